package usecase_test

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	walletout "bnkchallenge/internal/modules/wallet/adapter/out"
	"bnkchallenge/internal/modules/wallet/dto"
	walletin "bnkchallenge/internal/modules/wallet/port/in"
	"bnkchallenge/internal/modules/wallet/service"
	"bnkchallenge/internal/modules/wallet/usecase"
	apperrors "bnkchallenge/internal/platform/errors"
	"bnkchallenge/internal/platform/sqlitedb"
)

type fakeClock struct{ now time.Time }

func (f fakeClock) Now() time.Time { return f.now }

type seqID struct{ n *int }

func (s seqID) New() string {
	*s.n++
	return "entry-" + strconv.Itoa(*s.n)
}

func newWallet(t *testing.T, opening int) walletin.Usecase {
	t.Helper()
	db, err := sqlitedb.Open(filepath.Join(t.TempDir(), "bnk.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	ledger, err := walletout.NewSQLiteLedger(context.Background(), db)
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	n := 0
	svc := service.NewWalletService(fakeClock{now: time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)}, seqID{n: &n}, ledger, opening)
	return usecase.NewInteractor(svc)
}

func TestWalletStartsAtOpeningBalance(t *testing.T) {
	t.Parallel()
	w := newWallet(t, 28246)
	balance, err := w.Balance(context.Background())
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 28246 {
		t.Fatalf("expected opening balance, got %d", balance)
	}
	history, err := w.History(context.Background(), 0)
	if err != nil || len(history) != 0 {
		t.Fatalf("expected empty history, got %v (%v)", history, err)
	}
}

func TestWalletCreditAppendsLedger(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	w := newWallet(t, 28246)

	first, err := w.Credit(ctx, dto.CreditInput{MissionID: "m-1", Reward: 100})
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if first.Balance != 28346 || first.Confirmed {
		t.Fatalf("unexpected entry: %+v", first)
	}

	host := 50000
	second, err := w.Credit(ctx, dto.CreditInput{MissionID: "m-2", Reward: 300, ConfirmedBalance: &host})
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if second.Balance != 50000 || !second.Confirmed {
		t.Fatalf("unexpected confirmed entry: %+v", second)
	}

	balance, _ := w.Balance(ctx)
	if balance != 50000 {
		t.Fatalf("expected 50000, got %d", balance)
	}
	history, err := w.History(ctx, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 || history[0].MissionID != "m-2" || history[1].MissionID != "m-1" {
		t.Fatalf("unexpected history: %+v", history)
	}
	if !history[1].At.Equal(time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp: %v", history[1].At)
	}
	limited, _ := w.History(ctx, 1)
	if len(limited) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(limited))
	}
}

func TestWalletCreditValidation(t *testing.T) {
	t.Parallel()
	w := newWallet(t, 0)
	tests := []struct {
		name  string
		input dto.CreditInput
	}{
		{name: "missing mission", input: dto.CreditInput{Reward: 10}},
		{name: "negative reward", input: dto.CreditInput{MissionID: "m", Reward: -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := w.Credit(context.Background(), tt.input); !errors.Is(err, apperrors.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}
