package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"bnkchallenge/internal/modules/wallet/domain"
	walletout "bnkchallenge/internal/modules/wallet/port/out"
	"bnkchallenge/internal/platform/clock"
	apperrors "bnkchallenge/internal/platform/errors"
	"bnkchallenge/internal/platform/id"
)

type WalletService struct {
	clock   clock.Clock
	idGen   id.Generator
	ledger  walletout.Ledger
	opening int

	mu sync.Mutex
}

// NewWalletService builds a wallet whose balance starts at opening until the
// first ledger entry exists.
func NewWalletService(clock clock.Clock, idGen id.Generator, ledger walletout.Ledger, opening int) *WalletService {
	return &WalletService{clock: clock, idGen: idGen, ledger: ledger, opening: opening}
}

func (s *WalletService) Balance(ctx context.Context) (int, error) {
	latest, ok, err := s.ledger.Latest(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return s.opening, nil
	}
	return latest.Balance, nil
}

func (s *WalletService) Credit(ctx context.Context, missionID string, reward int, confirmed *int) (domain.Entry, error) {
	if strings.TrimSpace(missionID) == "" {
		return domain.Entry{}, fmt.Errorf("%w: mission id is required", apperrors.ErrInvalidInput)
	}
	if reward < 0 {
		return domain.Entry{}, fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, domain.ErrNegativeReward)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current, err := s.Balance(ctx)
	if err != nil {
		return domain.Entry{}, err
	}
	entry := domain.Entry{
		ID:        s.idGen.New(),
		MissionID: missionID,
		Reward:    reward,
		Balance:   domain.NextBalance(current, reward, confirmed),
		Confirmed: confirmed != nil,
		At:        s.clock.Now(),
	}
	if err := s.ledger.Append(ctx, entry); err != nil {
		return domain.Entry{}, err
	}
	return entry, nil
}

func (s *WalletService) History(ctx context.Context, limit int) ([]domain.Entry, error) {
	return s.ledger.List(ctx, limit)
}
