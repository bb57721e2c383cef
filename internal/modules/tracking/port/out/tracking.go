package out

import (
	"context"

	"bnkchallenge/internal/modules/tracking/domain"
	"bnkchallenge/internal/modules/tracking/dto"
)

// Sampler starts a sampling source for one session.
type Sampler interface {
	Arm(ctx context.Context, target domain.Target) (Feed, error)
}

// Feed delivers samples and at most one completion. Close releases the
// underlying ticker or host monitoring and is safe to call more than once.
type Feed interface {
	Events() <-chan domain.SourceEvent
	Close()
}

// Wallet credits a reward and returns the new balance. A confirmed balance
// from the host replaces the local computation.
type Wallet interface {
	Credit(ctx context.Context, missionID string, reward int, confirmed *int) (int, error)
}

type Journal interface {
	Record(ctx context.Context, record domain.SessionRecord) error
	List(ctx context.Context, limit int) ([]domain.SessionRecord, error)
}

// Relay mirrors session events to other processes.
type Relay interface {
	PublishProgress(ctx context.Context, progress dto.Progress) error
	PublishCompletion(ctx context.Context, completion dto.Completion) error
}
