package out

import (
	"context"

	"bnkchallenge/internal/modules/notify/domain"
)

// Sender delivers notifications through the admin API.
type Sender interface {
	Send(ctx context.Context, n domain.Notification) (domain.Receipt, error)
	Broadcast(ctx context.Context, n domain.Notification) (domain.Receipt, error)
}
