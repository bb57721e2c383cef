package in

import (
	"context"

	"bnkchallenge/internal/modules/catalog/dto"
	catalogin "bnkchallenge/internal/modules/catalog/port/in"
)

type CLIHandler struct {
	usecase catalogin.Usecase
}

func NewCLIHandler(usecase catalogin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) List(ctx context.Context, category, sort string) ([]dto.MissionOutput, error) {
	return h.usecase.ListMissions(ctx, dto.ListInput{Category: category, Sort: sort})
}

func (h CLIHandler) Recommended(ctx context.Context) ([]dto.MissionOutput, error) {
	return h.usecase.Recommended(ctx)
}

func (h CLIHandler) Get(ctx context.Context, missionID string) (dto.MissionOutput, error) {
	return h.usecase.GetMission(ctx, missionID)
}

func (h CLIHandler) Like(ctx context.Context, missionID string) (dto.LikeOutput, error) {
	return h.usecase.ToggleLike(ctx, missionID)
}

func (h CLIHandler) Participate(ctx context.Context, missionID string) (dto.ParticipateOutput, error) {
	return h.usecase.Participate(ctx, missionID)
}

func (h CLIHandler) MarkCompleted(ctx context.Context, missionID string) error {
	return h.usecase.MarkCompleted(ctx, missionID)
}

func (h CLIHandler) CurrentUser(ctx context.Context) (dto.UserOutput, error) {
	return h.usecase.CurrentUser(ctx)
}
