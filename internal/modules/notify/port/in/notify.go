package in

import (
	"context"

	"bnkchallenge/internal/modules/notify/dto"
)

type Usecase interface {
	Send(ctx context.Context, input dto.SendInput) (dto.Result, error)
	Broadcast(ctx context.Context, input dto.BroadcastInput) (dto.Result, error)
}
