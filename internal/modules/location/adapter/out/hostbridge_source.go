package out

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bnkchallenge/internal/modules/location/domain"
	"bnkchallenge/internal/platform/hostbridge"
)

type locationBridge interface {
	Subscribe(buffer int) (<-chan hostbridge.Event, func())
	RequestLocation(ctx context.Context) error
}

// HostBridgeSource asks the embedding host for a position and waits for the
// host to deliver it on the shared event stream.
type HostBridgeSource struct {
	bridge locationBridge
}

func NewHostBridgeSource(bridge locationBridge) *HostBridgeSource {
	return &HostBridgeSource{bridge: bridge}
}

func (s *HostBridgeSource) Kind() domain.SourceKind {
	return domain.SourceHostBridge
}

func (s *HostBridgeSource) Acquire(ctx context.Context, _ domain.PositionOptions) (domain.GeoPosition, error) {
	events, unsubscribe := s.bridge.Subscribe(16)
	defer unsubscribe()

	if err := s.bridge.RequestLocation(ctx); err != nil {
		if ctx.Err() != nil {
			return domain.GeoPosition{}, ctx.Err()
		}
		if errors.Is(err, hostbridge.ErrHostTimeout) {
			return domain.GeoPosition{}, fmt.Errorf("%w: %v", domain.ErrTimeout, err)
		}
		return domain.GeoPosition{}, fmt.Errorf("%w: %v", domain.ErrPositionUnavailable, err)
	}
	for {
		select {
		case <-ctx.Done():
			return domain.GeoPosition{}, ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return domain.GeoPosition{}, fmt.Errorf("%w: host bridge closed", domain.ErrPositionUnavailable)
			}
			if ev.Kind == hostbridge.EventLocation && ev.Location != nil {
				return fromHost(*ev.Location), nil
			}
		}
	}
}

// Positions forwards unsolicited host location pushes until ctx is done.
func (s *HostBridgeSource) Positions(ctx context.Context) (<-chan domain.GeoPosition, error) {
	events, unsubscribe := s.bridge.Subscribe(32)
	out := make(chan domain.GeoPosition, 8)
	go func() {
		defer close(out)
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if ev.Kind != hostbridge.EventLocation || ev.Location == nil {
					continue
				}
				select {
				case out <- fromHost(*ev.Location):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func fromHost(loc hostbridge.LocationEvent) domain.GeoPosition {
	pos := domain.GeoPosition{Latitude: loc.Latitude, Longitude: loc.Longitude, Accuracy: loc.Accuracy}
	if loc.TimestampMS > 0 {
		pos.At = time.UnixMilli(loc.TimestampMS).UTC()
	}
	return pos
}
