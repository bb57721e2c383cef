package in

import (
	"context"

	"bnkchallenge/internal/modules/wallet/dto"
	walletin "bnkchallenge/internal/modules/wallet/port/in"
)

type CLIHandler struct {
	usecase walletin.Usecase
}

func NewCLIHandler(usecase walletin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Balance(ctx context.Context) (int, error) {
	return h.usecase.Balance(ctx)
}

func (h CLIHandler) History(ctx context.Context, limit int) ([]dto.EntryOutput, error) {
	return h.usecase.History(ctx, limit)
}
