package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"bnkchallenge/internal/platform/geo"
	"bnkchallenge/internal/platform/hostbridge"
)

const geofenceRadiusMeters = 100

// simConfig describes the simulated device. The device starts StartOffsetM
// away from the mission target and walks toward it at SpeedMPS.
type simConfig struct {
	Tick         time.Duration `env:"TICK" envDefault:"1s"`
	SpeedMPS     float64       `env:"SPEED_MPS" envDefault:"40"`
	StartOffsetM float64       `env:"START_OFFSET_M" envDefault:"250"`
	Bearing      float64       `env:"BEARING" envDefault:"45"`
	Lat          float64       `env:"LAT" envDefault:"35.1796"`
	Lng          float64       `env:"LNG" envDefault:"129.0756"`
	AccuracyM    float64       `env:"ACCURACY_M" envDefault:"8"`
	CoinBalance  int           `env:"COIN_BALANCE"`
}

type monitorRun struct {
	cancel context.CancelFunc
}

type host struct {
	cfg    simConfig
	logger hclog.Logger

	mu       sync.Mutex
	position geo.Coordinate
	monitors map[string]*monitorRun
	sinks    map[int]chan *hostbridge.Event
	nextSink int
}

func newHost(cfg simConfig, logger hclog.Logger) *host {
	if cfg.Tick <= 0 {
		cfg.Tick = time.Second
	}
	return &host{
		cfg:      cfg,
		logger:   logger,
		position: geo.Coordinate{Lat: cfg.Lat, Lng: cfg.Lng},
		monitors: map[string]*monitorRun{},
		sinks:    map[int]chan *hostbridge.Event{},
	}
}

func (h *host) GetInfo(_ context.Context, _ *hostbridge.Empty) (*hostbridge.Info, error) {
	return &hostbridge.Info{
		Name:         "hostsim",
		Version:      "1.0.0",
		Capabilities: []string{hostbridge.CapabilityLocation, hostbridge.CapabilityGeofence},
	}, nil
}

func (h *host) RequestLocation(_ context.Context, _ *hostbridge.Empty) (*hostbridge.Ack, error) {
	h.mu.Lock()
	pos := h.position
	h.mu.Unlock()
	go h.broadcast(h.locationEvent(pos))
	return &hostbridge.Ack{OK: true}, nil
}

func (h *host) StartMonitoring(_ context.Context, in *hostbridge.StartMonitoringRequest) (*hostbridge.Ack, error) {
	if strings.TrimSpace(in.MissionID) == "" {
		return nil, fmt.Errorf("mission_id is required")
	}
	if in.DurationMS <= 0 {
		return nil, fmt.Errorf("duration_ms must be positive")
	}
	ctx, cancel := context.WithCancel(context.Background())
	run := &monitorRun{cancel: cancel}

	h.mu.Lock()
	if prev, ok := h.monitors[in.MissionID]; ok {
		prev.cancel()
	}
	h.monitors[in.MissionID] = run
	h.mu.Unlock()

	h.logger.Info("monitoring started", "mission", in.MissionID, "duration_ms", in.DurationMS)
	go h.monitor(ctx, run, *in)
	return &hostbridge.Ack{OK: true}, nil
}

func (h *host) StopMonitoring(_ context.Context, in *hostbridge.StopMonitoringRequest) (*hostbridge.Ack, error) {
	h.mu.Lock()
	run, ok := h.monitors[in.MissionID]
	delete(h.monitors, in.MissionID)
	h.mu.Unlock()
	if ok {
		run.cancel()
		h.logger.Info("monitoring stopped", "mission", in.MissionID)
	}
	return &hostbridge.Ack{OK: true}, nil
}

func (h *host) Events(_ *hostbridge.EventsRequest, sink hostbridge.EventSink) error {
	ch := make(chan *hostbridge.Event, 64)
	h.mu.Lock()
	id := h.nextSink
	h.nextSink++
	h.sinks[id] = ch
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.sinks, id)
		h.mu.Unlock()
	}()

	for {
		select {
		case <-sink.Context().Done():
			return nil
		case ev := <-ch:
			if err := sink.Send(ev); err != nil {
				return err
			}
		}
	}
}

// monitor walks the device toward the target one tick at a time and reports
// dwell progress until the required duration is spent inside the geofence.
func (h *host) monitor(ctx context.Context, run *monitorRun, req hostbridge.StartMonitoringRequest) {
	target := geo.Coordinate{Lat: req.Lat, Lng: req.Lng}
	pos := geo.Offset(target, h.cfg.Bearing, h.cfg.StartOffsetM)
	step := h.cfg.SpeedMPS * h.cfg.Tick.Seconds()
	required := time.Duration(req.DurationMS) * time.Millisecond

	ticker := time.NewTicker(h.cfg.Tick)
	defer ticker.Stop()

	var inZoneFor time.Duration
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if ctx.Err() != nil {
			return
		}
		pos = geo.Toward(pos, target, step)
		h.mu.Lock()
		h.position = pos
		h.mu.Unlock()

		distance := geo.DistanceMeters(pos, target)
		inZone := distance <= geofenceRadiusMeters
		if inZone {
			inZoneFor += h.cfg.Tick
		} else {
			inZoneFor = 0
		}
		h.broadcast(h.locationEvent(pos))
		h.broadcast(&hostbridge.Event{Kind: hostbridge.EventProgress, Progress: &hostbridge.ProgressEvent{
			MissionID:          req.MissionID,
			TimeInZoneMS:       inZoneFor.Milliseconds(),
			RequiredDurationMS: req.DurationMS,
			DistanceM:          distance,
			IsInZone:           inZone,
		}})
		if inZoneFor >= required {
			completion := &hostbridge.CompletionEvent{MissionID: req.MissionID}
			if h.cfg.CoinBalance > 0 {
				balance := h.cfg.CoinBalance
				completion.CoinBalance = &balance
			}
			h.broadcast(&hostbridge.Event{Kind: hostbridge.EventCompletion, Completion: completion})
			h.logger.Info("monitoring completed", "mission", req.MissionID)
			h.mu.Lock()
			if h.monitors[req.MissionID] == run {
				delete(h.monitors, req.MissionID)
			}
			h.mu.Unlock()
			run.cancel()
			return
		}
	}
}

func (h *host) locationEvent(pos geo.Coordinate) *hostbridge.Event {
	accuracy := h.cfg.AccuracyM
	return &hostbridge.Event{Kind: hostbridge.EventLocation, Location: &hostbridge.LocationEvent{
		Latitude:    pos.Lat,
		Longitude:   pos.Lng,
		Accuracy:    &accuracy,
		TimestampMS: time.Now().UnixMilli(),
	}}
}

func (h *host) broadcast(ev *hostbridge.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.sinks {
		select {
		case ch <- ev:
		default:
		}
	}
}
