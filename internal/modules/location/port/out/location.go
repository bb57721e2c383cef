package out

import (
	"context"

	"bnkchallenge/internal/modules/location/domain"
)

// LocationSource acquires a single position. Implementations return one of
// the domain location errors, or ctx.Err() when the deadline passes.
type LocationSource interface {
	Kind() domain.SourceKind
	Acquire(ctx context.Context, opts domain.PositionOptions) (domain.GeoPosition, error)
}

// PositionFeed is implemented by sources that also push unsolicited positions.
type PositionFeed interface {
	Positions(ctx context.Context) (<-chan domain.GeoPosition, error)
}
