package out

import (
	"context"
	"sync"
	"time"

	"bnkchallenge/internal/modules/tracking/domain"
	trackingout "bnkchallenge/internal/modules/tracking/port/out"
	"bnkchallenge/internal/platform/clock"
)

// StandInSampler simulates a user standing inside the geofence. Each tick adds
// a fixed step at a fixed distance until the required dwell is reached.
type StandInSampler struct {
	ticker   clock.TickerFunc
	interval time.Duration
	step     time.Duration
	distance float64
}

func NewStandInSampler(ticker clock.TickerFunc) *StandInSampler {
	if ticker == nil {
		ticker = clock.SystemTicker
	}
	return &StandInSampler{
		ticker:   ticker,
		interval: domain.StandInTick,
		step:     domain.StandInStep,
		distance: domain.StandInDistanceMeters,
	}
}

func (s *StandInSampler) Arm(_ context.Context, target domain.Target) (trackingout.Feed, error) {
	ticks, stopTicker := s.ticker(s.interval)
	f := &standInFeed{
		target:     target,
		step:       s.step,
		distance:   s.distance,
		events:     make(chan domain.SourceEvent, 1),
		stop:       make(chan struct{}),
		stopTicker: stopTicker,
	}
	go f.run(ticks)
	return f, nil
}

type standInFeed struct {
	target     domain.Target
	step       time.Duration
	distance   float64
	events     chan domain.SourceEvent
	stop       chan struct{}
	stopTicker func()
	once       sync.Once
}

func (f *standInFeed) Events() <-chan domain.SourceEvent { return f.events }

func (f *standInFeed) Close() {
	f.once.Do(func() {
		close(f.stop)
		f.stopTicker()
	})
}

func (f *standInFeed) run(ticks <-chan time.Time) {
	defer close(f.events)
	var accumulated time.Duration
	for {
		select {
		case <-f.stop:
			return
		case at := <-ticks:
			accumulated += f.step
			distance := f.distance
			sample := domain.Sample{MissionID: f.target.MissionID, At: at, DistanceMeters: &distance, Step: f.step}
			if !f.emit(domain.SourceEvent{Kind: domain.EventProgress, Sample: sample}) {
				return
			}
			if accumulated >= f.target.RequiredDwell {
				f.emit(domain.SourceEvent{Kind: domain.EventCompletion, Completion: domain.CompletionNotice{MissionID: f.target.MissionID}})
				f.Close()
				return
			}
		}
	}
}

func (f *standInFeed) emit(ev domain.SourceEvent) bool {
	select {
	case f.events <- ev:
		return true
	case <-f.stop:
		return false
	}
}
