// Package catalog отдаёт каталог уроков с решением о доступе к каждому.
package catalog

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/lesson-runtime/internal/http/response"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/catalog"
)

type Service interface {
	Catalog() []catalog.Entry
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	entries := h.service.Catalog()
	render.JSON(w, r, response.OKWithData(map[string]any{
		"items": entries,
		"count": len(entries),
	}))
}
