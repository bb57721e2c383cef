package in

import (
	"context"

	"bnkchallenge/internal/modules/tracking/dto"
)

type Usecase interface {
	StartTracking(ctx context.Context, mission dto.Mission) (dto.Subscription, error)
	StopTracking(ctx context.Context) error
	HandleSample(ctx context.Context, sample dto.SampleInput) error
	Snapshot() dto.Snapshot
	OnComplete(fn func(dto.Completion))
	History(ctx context.Context, limit int) ([]dto.SessionRecord, error)
}
