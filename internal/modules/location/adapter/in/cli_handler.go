package in

import (
	"context"

	"bnkchallenge/internal/modules/location/dto"
	locationin "bnkchallenge/internal/modules/location/port/in"
)

type CLIHandler struct {
	usecase locationin.Usecase
}

func NewCLIHandler(usecase locationin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) RequestLocation(ctx context.Context) (dto.Position, error) {
	return h.usecase.RequestLocation(ctx)
}

func (h CLIHandler) State() dto.State {
	return h.usecase.State()
}

func (h CLIHandler) Listen(ctx context.Context) error {
	return h.usecase.Listen(ctx)
}
