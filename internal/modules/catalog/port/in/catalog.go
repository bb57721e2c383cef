package in

import (
	"context"

	"bnkchallenge/internal/modules/catalog/dto"
)

type Usecase interface {
	ListMissions(ctx context.Context, input dto.ListInput) ([]dto.MissionOutput, error)
	Recommended(ctx context.Context) ([]dto.MissionOutput, error)
	GetMission(ctx context.Context, missionID string) (dto.MissionOutput, error)
	ToggleLike(ctx context.Context, missionID string) (dto.LikeOutput, error)
	Participate(ctx context.Context, missionID string) (dto.ParticipateOutput, error)
	MarkCompleted(ctx context.Context, missionID string) error
	CurrentUser(ctx context.Context) (dto.UserOutput, error)
}
