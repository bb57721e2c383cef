package in

import (
	"context"

	"bnkchallenge/internal/modules/wallet/dto"
)

type Usecase interface {
	Balance(ctx context.Context) (int, error)
	Credit(ctx context.Context, input dto.CreditInput) (dto.EntryOutput, error)
	History(ctx context.Context, limit int) ([]dto.EntryOutput, error)
}
