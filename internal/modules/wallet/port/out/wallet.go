package out

import (
	"context"

	"bnkchallenge/internal/modules/wallet/domain"
)

type Ledger interface {
	// Latest returns the newest entry. ok is false for an empty ledger.
	Latest(ctx context.Context) (entry domain.Entry, ok bool, err error)
	Append(ctx context.Context, entry domain.Entry) error
	List(ctx context.Context, limit int) ([]domain.Entry, error)
}
