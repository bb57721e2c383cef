package usecase

import (
	"context"
	"time"

	"bnkchallenge/internal/modules/tracking/domain"
	"bnkchallenge/internal/modules/tracking/dto"
	trackingin "bnkchallenge/internal/modules/tracking/port/in"
	"bnkchallenge/internal/modules/tracking/service"
	"bnkchallenge/internal/platform/geo"
)

type Interactor struct {
	tracker *service.Tracker
}

func NewInteractor(tracker *service.Tracker) trackingin.Usecase {
	return &Interactor{tracker: tracker}
}

func (i *Interactor) StartTracking(ctx context.Context, mission dto.Mission) (dto.Subscription, error) {
	m := domain.Mission{ID: mission.ID, Title: mission.Title, CoinReward: mission.CoinReward}
	if mission.Lat != nil && mission.Lng != nil {
		m.Coordinates = &geo.Coordinate{Lat: *mission.Lat, Lng: *mission.Lng}
	}
	handle, err := i.tracker.StartTracking(ctx, m)
	if err != nil {
		return dto.Subscription{}, err
	}
	return dto.Subscription{
		SessionID: handle.SessionID(),
		MissionID: handle.MissionID(),
		Progress:  handle.Progress(),
		Done:      handle.Done(),
		Stop:      handle.Stop,
	}, nil
}

func (i *Interactor) StopTracking(ctx context.Context) error {
	return i.tracker.StopTracking(ctx)
}

func (i *Interactor) HandleSample(ctx context.Context, in dto.SampleInput) error {
	sample := domain.Sample{
		MissionID:      in.MissionID,
		At:             in.At,
		DistanceMeters: in.DistanceMeters,
		Step:           time.Duration(in.StepMillis) * time.Millisecond,
	}
	if in.Lat != nil && in.Lng != nil {
		sample.Position = &geo.Coordinate{Lat: *in.Lat, Lng: *in.Lng}
	}
	return i.tracker.HandleSample(ctx, sample)
}

func (i *Interactor) Snapshot() dto.Snapshot {
	return i.tracker.Snapshot()
}

func (i *Interactor) OnComplete(fn func(dto.Completion)) {
	i.tracker.OnComplete(fn)
}

func (i *Interactor) History(ctx context.Context, limit int) ([]dto.SessionRecord, error) {
	records, err := i.tracker.History(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SessionRecord, 0, len(records))
	for _, r := range records {
		out = append(out, dto.SessionRecord{
			SessionID:              r.SessionID,
			MissionID:              r.MissionID,
			State:                  string(r.State),
			AccumulatedDwellMillis: r.AccumulatedDwell.Milliseconds(),
			Samples:                r.Samples,
			Reward:                 r.Reward,
			CoinBalance:            r.CoinBalance,
			StartedAt:              r.StartedAt,
			EndedAt:                r.EndedAt,
		})
	}
	return out, nil
}
