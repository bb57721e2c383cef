package in

import (
	"context"

	"bnkchallenge/internal/modules/location/dto"
)

type Usecase interface {
	RequestLocation(ctx context.Context) (dto.Position, error)
	State() dto.State
	Listen(ctx context.Context) error
}
