package usecase

import (
	"context"

	"bnkchallenge/internal/modules/notify/domain"
	"bnkchallenge/internal/modules/notify/dto"
	notifyin "bnkchallenge/internal/modules/notify/port/in"
	"bnkchallenge/internal/modules/notify/service"
)

type Interactor struct {
	svc *service.NotifyService
}

func NewInteractor(svc *service.NotifyService) notifyin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Send(ctx context.Context, input dto.SendInput) (dto.Result, error) {
	n, receipt, err := i.svc.Send(ctx, input.Token, input.Title, input.Body)
	if err != nil {
		return dto.Result{}, err
	}
	return toDTO(n, receipt), nil
}

func (i *Interactor) Broadcast(ctx context.Context, input dto.BroadcastInput) (dto.Result, error) {
	n, receipt, err := i.svc.Broadcast(ctx, input.Title, input.Body)
	if err != nil {
		return dto.Result{}, err
	}
	return toDTO(n, receipt), nil
}

func toDTO(n domain.Notification, r domain.Receipt) dto.Result {
	return dto.Result{Status: r.Status, Title: n.Title, Body: n.Body, Response: string(r.Payload)}
}
