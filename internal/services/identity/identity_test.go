package identity_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/magabrotheeeer/lesson-runtime/internal/lib/jwt"
	"github.com/magabrotheeeer/lesson-runtime/internal/lib/password"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/identity"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/session"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newDirectory(opts ...identity.Option) *identity.Directory {
	return identity.NewDirectory(password.NewHasher(bcrypt.MinCost), newNoopLogger(), opts...)
}

func TestDirectory_SignUpThenSignIn(t *testing.T) {
	ctx := context.Background()
	d := newDirectory()

	user, err := d.SignUpWithEmail(ctx, "a@b.com", "pw", "A")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "A", user.DisplayName)
	assert.Equal(t, "a@b.com", user.Email)

	got, err := d.SignInWithEmail(ctx, "A@B.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, user, got)
}

func TestDirectory_Errors(t *testing.T) {
	ctx := context.Background()
	d := newDirectory()
	_, err := d.SignUpWithEmail(ctx, "a@b.com", "pw", "A")
	require.NoError(t, err)

	tests := []struct {
		name    string
		call    func() error
		wantErr error
	}{
		{
			name: "duplicate account",
			call: func() error {
				_, err := d.SignUpWithEmail(ctx, " a@b.com", "other", "B")
				return err
			},
			wantErr: session.ErrDuplicateAccount,
		},
		{
			name: "wrong password",
			call: func() error {
				_, err := d.SignInWithEmail(ctx, "a@b.com", "nope")
				return err
			},
			wantErr: session.ErrInvalidCredentials,
		},
		{
			name: "unknown account",
			call: func() error {
				_, err := d.SignInWithEmail(ctx, "x@y.com", "pw")
				return err
			},
			wantErr: session.ErrInvalidCredentials,
		},
		{
			name: "google not configured",
			call: func() error {
				_, err := d.SignInWithGoogle(ctx)
				return err
			},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestDirectory_LatencyHonoursContext(t *testing.T) {
	d := newDirectory(identity.WithLatency(time.Hour))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := d.SignInWithEmail(ctx, "a@b.com", "pw")
	assert.ErrorIs(t, err, session.ErrNetworkFailure)
}

type TokenSourceMock struct {
	mock.Mock
}

func (m *TokenSourceMock) IDToken(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func TestDirectory_SignInWithGoogle(t *testing.T) {
	maker := jwt.NewJWTMaker("google-test-key", "accounts.google.test", time.Minute)
	token, err := maker.GenerateToken("sub-42", "Greta", "greta@example.com")
	require.NoError(t, err)

	src := new(TokenSourceMock)
	src.On("IDToken", mock.Anything).Return(token, nil).Twice()
	d := newDirectory(identity.WithGoogle(src, maker))

	first, err := d.SignInWithGoogle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Greta", first.DisplayName)
	assert.Equal(t, "greta@example.com", first.Email)

	second, err := d.SignInWithGoogle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	src.AssertExpectations(t)
}

func TestDirectory_SignInWithGoogle_Failures(t *testing.T) {
	maker := jwt.NewJWTMaker("google-test-key", "accounts.google.test", time.Minute)
	forged, err := jwt.NewJWTMaker("forged", "accounts.google.test", time.Minute).GenerateToken("sub", "X", "x@example.com")
	require.NoError(t, err)

	tests := []struct {
		name     string
		token    string
		tokenErr error
		wantErr  error
	}{
		{name: "token source offline", tokenErr: errors.New("no network"), wantErr: session.ErrNetworkFailure},
		{name: "forged token", token: forged, wantErr: session.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := new(TokenSourceMock)
			src.On("IDToken", mock.Anything).Return(tt.token, tt.tokenErr).Once()
			d := newDirectory(identity.WithGoogle(src, maker))

			_, err := d.SignInWithGoogle(context.Background())
			assert.ErrorIs(t, err, tt.wantErr)
			src.AssertExpectations(t)
		})
	}
}

func TestStaticTokenSource(t *testing.T) {
	maker := jwt.NewJWTMaker("google-test-key", "accounts.google.test", time.Minute)
	src := identity.NewStaticTokenSource(maker, identity.DevGoogleAccount{Subject: "dev", Name: "Dev", Email: "dev@example.com"})

	token, err := src.IDToken(context.Background())
	require.NoError(t, err)
	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "dev", claims.Subject)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.IDToken(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
