package usecase

import (
	"context"

	"bnkchallenge/internal/modules/wallet/domain"
	"bnkchallenge/internal/modules/wallet/dto"
	walletin "bnkchallenge/internal/modules/wallet/port/in"
	"bnkchallenge/internal/modules/wallet/service"
)

type Interactor struct {
	svc *service.WalletService
}

func NewInteractor(svc *service.WalletService) walletin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Balance(ctx context.Context) (int, error) {
	return i.svc.Balance(ctx)
}

func (i *Interactor) Credit(ctx context.Context, input dto.CreditInput) (dto.EntryOutput, error) {
	entry, err := i.svc.Credit(ctx, input.MissionID, input.Reward, input.ConfirmedBalance)
	if err != nil {
		return dto.EntryOutput{}, err
	}
	return toDTO(entry), nil
}

func (i *Interactor) History(ctx context.Context, limit int) ([]dto.EntryOutput, error) {
	entries, err := i.svc.History(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.EntryOutput, 0, len(entries))
	for _, e := range entries {
		out = append(out, toDTO(e))
	}
	return out, nil
}

func toDTO(e domain.Entry) dto.EntryOutput {
	return dto.EntryOutput{ID: e.ID, MissionID: e.MissionID, Reward: e.Reward, Balance: e.Balance, Confirmed: e.Confirmed, At: e.At}
}
