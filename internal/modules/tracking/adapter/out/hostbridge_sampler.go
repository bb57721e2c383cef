package out

import (
	"context"
	"fmt"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"bnkchallenge/internal/modules/tracking/domain"
	trackingout "bnkchallenge/internal/modules/tracking/port/out"
	"bnkchallenge/internal/platform/clock"
	"bnkchallenge/internal/platform/hostbridge"
	"bnkchallenge/internal/platform/logging"
)

const (
	monitorEventBuffer = 64
	stopMonitorTimeout = 5 * time.Second
)

type monitorBridge interface {
	Subscribe(buffer int) (<-chan hostbridge.Event, func())
	StartMonitoring(ctx context.Context, missionID string, lat, lng float64, duration time.Duration) error
	StopMonitoring(ctx context.Context, missionID string) error
}

// HostBridgeSampler hands geofence monitoring to the host. The host reports
// dwell progress and decides completion.
type HostBridgeSampler struct {
	bridge monitorBridge
	clock  clock.Clock
	logger hclog.Logger
}

func NewHostBridgeSampler(bridge monitorBridge, clk clock.Clock, logger hclog.Logger) *HostBridgeSampler {
	return &HostBridgeSampler{bridge: bridge, clock: clk, logger: logging.OrDiscard(logger).Named("host-sampler")}
}

func (s *HostBridgeSampler) Arm(ctx context.Context, target domain.Target) (trackingout.Feed, error) {
	events, unsubscribe := s.bridge.Subscribe(monitorEventBuffer)
	c := target.Coordinate
	if err := s.bridge.StartMonitoring(ctx, target.MissionID, c.Lat, c.Lng, target.RequiredDwell); err != nil {
		unsubscribe()
		return nil, fmt.Errorf("start host monitoring: %w", err)
	}
	f := &hostFeed{
		bridge:      s.bridge,
		clock:       s.clock,
		logger:      s.logger,
		missionID:   target.MissionID,
		unsubscribe: unsubscribe,
		events:      make(chan domain.SourceEvent, monitorEventBuffer),
		stop:        make(chan struct{}),
	}
	go f.run(events)
	return f, nil
}

type hostFeed struct {
	bridge      monitorBridge
	clock       clock.Clock
	logger      hclog.Logger
	missionID   string
	unsubscribe func()
	events      chan domain.SourceEvent
	stop        chan struct{}
	once        sync.Once
}

func (f *hostFeed) Events() <-chan domain.SourceEvent { return f.events }

// Close detaches from the bridge and asks the host to stop monitoring without
// waiting for the answer.
func (f *hostFeed) Close() {
	f.once.Do(func() {
		close(f.stop)
		f.unsubscribe()
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), stopMonitorTimeout)
			defer cancel()
			if err := f.bridge.StopMonitoring(ctx, f.missionID); err != nil {
				f.logger.Debug("stop monitoring failed", "mission", f.missionID, "error", err)
			}
		}()
	})
}

func (f *hostFeed) run(in <-chan hostbridge.Event) {
	defer close(f.events)
	for {
		select {
		case <-f.stop:
			return
		case ev, ok := <-in:
			if !ok {
				return
			}
			out, ok := f.translate(ev)
			if !ok {
				continue
			}
			select {
			case f.events <- out:
			case <-f.stop:
				return
			}
		}
	}
}

func (f *hostFeed) translate(ev hostbridge.Event) (domain.SourceEvent, bool) {
	switch ev.Kind {
	case hostbridge.EventProgress:
		p := ev.Progress
		if p == nil || p.MissionID != f.missionID {
			return domain.SourceEvent{}, false
		}
		distance := p.DistanceM
		inZone := time.Duration(p.TimeInZoneMS) * time.Millisecond
		return domain.SourceEvent{
			Kind: domain.EventProgress,
			Sample: domain.Sample{
				MissionID:      p.MissionID,
				At:             f.clock.Now(),
				DistanceMeters: &distance,
				TimeInZone:     &inZone,
			},
		}, true
	case hostbridge.EventCompletion:
		c := ev.Completion
		if c == nil || c.MissionID != f.missionID {
			return domain.SourceEvent{}, false
		}
		return domain.SourceEvent{
			Kind:       domain.EventCompletion,
			Completion: domain.CompletionNotice{MissionID: c.MissionID, Reward: c.Reward, CoinBalance: c.CoinBalance},
		}, true
	default:
		return domain.SourceEvent{}, false
	}
}
