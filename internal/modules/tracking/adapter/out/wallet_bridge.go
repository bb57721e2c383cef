package out

import (
	"context"

	walletdto "bnkchallenge/internal/modules/wallet/dto"
	walletin "bnkchallenge/internal/modules/wallet/port/in"
)

// WalletBridge credits rewards through the wallet module.
type WalletBridge struct {
	wallet walletin.Usecase
}

func NewWalletBridge(wallet walletin.Usecase) WalletBridge {
	return WalletBridge{wallet: wallet}
}

func (b WalletBridge) Credit(ctx context.Context, missionID string, reward int, confirmed *int) (int, error) {
	entry, err := b.wallet.Credit(ctx, walletdto.CreditInput{
		MissionID:        missionID,
		Reward:           reward,
		ConfirmedBalance: confirmed,
	})
	if err != nil {
		return 0, err
	}
	return entry.Balance, nil
}
