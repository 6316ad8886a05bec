package state

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/lesson-runtime/internal/store"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Snapshot() store.Snapshot {
	return m.Called().Get(0).(store.Snapshot)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestHandler_ServeHTTP(t *testing.T) {
	snap := store.Initial()
	snap.Version = 7

	svc := new(ServiceMock)
	svc.On("Snapshot").Return(snap).Once()

	rec := httptest.NewRecorder()
	New(newNoopLogger(), svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/state", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "OK", got["status"])

	data, ok := got["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(7), data["version"])
	assert.Contains(t, data, "session")
	assert.Contains(t, data, "entitlement")
	assert.Contains(t, data, "playback")
	svc.AssertExpectations(t)
}
