package playback

import (
	"context"

	"github.com/magabrotheeeer/lesson-runtime/internal/services/gate"
)

type Service interface {
	Play(ctx context.Context, itemID string) (gate.Decision, error)
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Stop(ctx context.Context) error
}
