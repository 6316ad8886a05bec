package session

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/lesson-runtime/internal/models"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/session"
	"github.com/magabrotheeeer/lesson-runtime/internal/store"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) SignUp(ctx context.Context, name, email, password string) (models.UserIdentity, error) {
	args := m.Called(ctx, name, email, password)
	return args.Get(0).(models.UserIdentity), args.Error(1)
}

func (m *ServiceMock) SignIn(ctx context.Context, email, password string) (models.UserIdentity, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(models.UserIdentity), args.Error(1)
}

func (m *ServiceMock) SignInWithGoogle(ctx context.Context) (models.UserIdentity, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.UserIdentity), args.Error(1)
}

func (m *ServiceMock) ContinueAsGuest(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *ServiceMock) SignOut(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newRequest(t *testing.T, path string, body any) *http.Request {
	t.Helper()

	var raw []byte
	switch v := body.(type) {
	case nil:
	case string:
		raw = []byte(v)
	default:
		var err error
		raw, err = json.Marshal(v)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	return req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var got map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	return got
}

var alice = models.UserIdentity{ID: "u-1", DisplayName: "Alice", Email: "alice@example.com"}

func TestHandler_SignIn(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		mockUser       models.UserIdentity
		mockErr        error
		callsService   bool
		wantStatusCode int
		wantStatus     string
		wantError      string
	}{
		{
			name:           "valid credentials",
			requestBody:    SignInRequest{Email: "alice@example.com", Password: "secret"},
			mockUser:       alice,
			callsService:   true,
			wantStatusCode: http.StatusOK,
			wantStatus:     "OK",
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     "Error",
			wantError:      "invalid request body",
		},
		{
			name:           "blank password",
			requestBody:    SignInRequest{Email: "alice@example.com"},
			mockErr:        &session.ValidationError{Fields: []string{"password"}},
			callsService:   true,
			wantStatusCode: http.StatusUnprocessableEntity,
			wantStatus:     "Error",
			wantError:      "validation failed: field password is a required field",
		},
		{
			name:           "wrong password",
			requestBody:    SignInRequest{Email: "alice@example.com", Password: "nope"},
			mockErr:        session.ErrInvalidCredentials,
			callsService:   true,
			wantStatusCode: http.StatusUnauthorized,
			wantStatus:     "Error",
			wantError:      "invalid credentials",
		},
		{
			name:           "already in progress",
			requestBody:    SignInRequest{Email: "alice@example.com", Password: "secret"},
			mockErr:        session.ErrAlreadyInProgress,
			callsService:   true,
			wantStatusCode: http.StatusConflict,
			wantStatus:     "Error",
			wantError:      "authentication already in progress",
		},
		{
			name:           "provider unreachable",
			requestBody:    SignInRequest{Email: "alice@example.com", Password: "secret"},
			mockErr:        session.ErrNetworkFailure,
			callsService:   true,
			wantStatusCode: http.StatusServiceUnavailable,
			wantStatus:     "Error",
			wantError:      "network failure",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.callsService {
				req := tt.requestBody.(SignInRequest)
				svc.On("SignIn", mock.Anything, req.Email, req.Password).Return(tt.mockUser, tt.mockErr).Once()
			}
			handler := New(newNoopLogger(), svc)

			rec := httptest.NewRecorder()
			handler.SignIn(rec, newRequest(t, "/session/sign-in", tt.requestBody))

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			got := decode(t, rec)
			assert.Equal(t, tt.wantStatus, got["status"])
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, got["error"])
			} else {
				data, ok := got["data"].(map[string]any)
				require.True(t, ok)
				assert.Equal(t, alice.ID, data["id"])
				assert.Equal(t, alice.Email, data["email"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_SignUp(t *testing.T) {
	svc := new(ServiceMock)
	svc.On("SignUp", mock.Anything, "Alice", "alice@example.com", "secret").Return(alice, nil).Once()
	svc.On("SignUp", mock.Anything, "Bob", "alice@example.com", "secret").
		Return(models.UserIdentity{}, session.ErrDuplicateAccount).Once()
	handler := New(newNoopLogger(), svc)

	rec := httptest.NewRecorder()
	handler.SignUp(rec, newRequest(t, "/session/sign-up", SignUpRequest{
		DisplayName: "Alice", Email: "alice@example.com", Password: "secret",
	}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Alice", decode(t, rec)["data"].(map[string]any)["display_name"])

	rec = httptest.NewRecorder()
	handler.SignUp(rec, newRequest(t, "/session/sign-up", SignUpRequest{
		DisplayName: "Bob", Email: "alice@example.com", Password: "secret",
	}))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "account already exists", decode(t, rec)["error"])

	svc.AssertExpectations(t)
}

func TestHandler_Google(t *testing.T) {
	svc := new(ServiceMock)
	svc.On("SignInWithGoogle", mock.Anything).Return(models.UserIdentity{}, session.ErrAuthCancelled).Once()
	handler := New(newNoopLogger(), svc)

	rec := httptest.NewRecorder()
	handler.Google(rec, newRequest(t, "/session/google", nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "authentication cancelled", decode(t, rec)["error"])
	svc.AssertExpectations(t)
}

func TestHandler_GuestAndSignOut(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		serve          func(h *Handler) http.HandlerFunc
		mockErr        error
		wantStatusCode int
	}{
		{
			name:           "guest",
			method:         "ContinueAsGuest",
			serve:          func(h *Handler) http.HandlerFunc { return h.Guest },
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "guest while signed in",
			method:         "ContinueAsGuest",
			serve:          func(h *Handler) http.HandlerFunc { return h.Guest },
			mockErr:        session.ErrAlreadyAuthenticated,
			wantStatusCode: http.StatusConflict,
		},
		{
			name:           "sign out",
			method:         "SignOut",
			serve:          func(h *Handler) http.HandlerFunc { return h.SignOut },
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "sign out after shutdown",
			method:         "SignOut",
			serve:          func(h *Handler) http.HandlerFunc { return h.SignOut },
			mockErr:        store.ErrClosed,
			wantStatusCode: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			svc.On(tt.method, mock.Anything).Return(tt.mockErr).Once()
			handler := New(newNoopLogger(), svc)

			rec := httptest.NewRecorder()
			tt.serve(handler)(rec, newRequest(t, "/session", nil))

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			if tt.mockErr == nil {
				assert.Equal(t, "OK", decode(t, rec)["status"])
			}
			svc.AssertExpectations(t)
		})
	}
}
