package out

import (
	"context"

	"bnkchallenge/internal/modules/location/domain"
)

// FixedSource reports a configured coordinate, for machines without a
// positioning device.
type FixedSource struct {
	lat float64
	lng float64
}

func NewFixedSource(lat, lng float64) *FixedSource {
	return &FixedSource{lat: lat, lng: lng}
}

func (s *FixedSource) Kind() domain.SourceKind {
	return domain.SourcePlatformGeolocation
}

func (s *FixedSource) Acquire(ctx context.Context, _ domain.PositionOptions) (domain.GeoPosition, error) {
	if err := ctx.Err(); err != nil {
		return domain.GeoPosition{}, err
	}
	return domain.GeoPosition{Latitude: s.lat, Longitude: s.lng}, nil
}
