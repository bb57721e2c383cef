package in

import (
	"context"

	catalogdto "bnkchallenge/internal/modules/catalog/dto"
	"bnkchallenge/internal/modules/tracking/dto"
	trackingin "bnkchallenge/internal/modules/tracking/port/in"
)

type CLIHandler struct {
	usecase trackingin.Usecase
}

func NewCLIHandler(usecase trackingin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Start(ctx context.Context, mission dto.Mission) (dto.Subscription, error) {
	return h.usecase.StartTracking(ctx, mission)
}

// StartMission starts tracking a catalog mission.
func (h CLIHandler) StartMission(ctx context.Context, m catalogdto.MissionOutput) (dto.Subscription, error) {
	return h.usecase.StartTracking(ctx, MissionFromCatalog(m))
}

func MissionFromCatalog(m catalogdto.MissionOutput) dto.Mission {
	return dto.Mission{ID: m.ID, Title: m.Title, Lat: m.Lat, Lng: m.Lng, CoinReward: m.CoinReward}
}

func (h CLIHandler) Stop(ctx context.Context) error {
	return h.usecase.StopTracking(ctx)
}

func (h CLIHandler) Sample(ctx context.Context, sample dto.SampleInput) error {
	return h.usecase.HandleSample(ctx, sample)
}

func (h CLIHandler) Snapshot() dto.Snapshot {
	return h.usecase.Snapshot()
}

func (h CLIHandler) OnComplete(fn func(dto.Completion)) {
	h.usecase.OnComplete(fn)
}

func (h CLIHandler) History(ctx context.Context, limit int) ([]dto.SessionRecord, error) {
	return h.usecase.History(ctx, limit)
}
