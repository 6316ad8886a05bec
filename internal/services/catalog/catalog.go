// Package catalog хранит неизменяемый список уроков и считает для каждого
// решение о доступе и статус награды.
package catalog

import (
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/lesson-runtime/internal/models"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/entitlement"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/gate"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/reward"
)

// ErrUnknownItem — урока с таким id нет в каталоге.
var ErrUnknownItem = errors.New("unknown content item")

// Catalog — список уроков в порядке показа.
type Catalog struct {
	items []models.ContentItem
	byID  map[string]int
}

// New создаёт каталог. Уроки с повторяющимся id отбрасываются, остаётся первый.
func New(items []models.ContentItem) *Catalog {
	c := &Catalog{byID: make(map[string]int, len(items))}
	for _, item := range items {
		if _, dup := c.byID[item.ID]; dup {
			continue
		}
		c.byID[item.ID] = len(c.items)
		c.items = append(c.items, item)
	}
	return c
}

// Lookup возвращает урок по id.
func (c *Catalog) Lookup(id string) (models.ContentItem, error) {
	i, ok := c.byID[id]
	if !ok {
		return models.ContentItem{}, fmt.Errorf("%w: %q", ErrUnknownItem, id)
	}
	return c.items[i], nil
}

// Len возвращает число уроков.
func (c *Catalog) Len() int { return len(c.items) }

// Entry — урок вместе с тем, что нужно экрану каталога.
type Entry struct {
	Item     models.ContentItem `json:"item"`
	Decision gate.Decision      `json:"access"`
	Locked   bool               `json:"locked"`
	Earned   bool               `json:"reward_earned"`
}

// Entries считает решения о доступе для всего каталога.
func (c *Catalog) Entries(ent entitlement.State, rewards reward.Ledger, now time.Time) []Entry {
	out := make([]Entry, 0, len(c.items))
	for _, item := range c.items {
		d := gate.Gate(item, ent, now)
		out = append(out, Entry{
			Item:     item,
			Decision: d,
			Locked:   d.IsLocked(),
			Earned:   rewards.IsEarned(item.ID),
		})
	}
	return out
}
