package billing

import (
	"context"
	"time"

	"github.com/magabrotheeeer/lesson-runtime/internal/services/entitlement"
)

type Service interface {
	ConfirmSubscription(ctx context.Context, plan entitlement.Plan, expiresAt *time.Time) error
	CancelSubscription(ctx context.Context) error
}
