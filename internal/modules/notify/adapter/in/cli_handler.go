package in

import (
	"context"

	"bnkchallenge/internal/modules/notify/dto"
	notifyin "bnkchallenge/internal/modules/notify/port/in"
)

type CLIHandler struct {
	usecase notifyin.Usecase
}

func NewCLIHandler(usecase notifyin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Send(ctx context.Context, token, title, body string) (dto.Result, error) {
	return h.usecase.Send(ctx, dto.SendInput{Token: token, Title: title, Body: body})
}

func (h CLIHandler) Broadcast(ctx context.Context, title, body string) (dto.Result, error) {
	return h.usecase.Broadcast(ctx, dto.BroadcastInput{Title: title, Body: body})
}
