package domain

import (
	"errors"
	"time"
)

var ErrNegativeReward = errors.New("reward must not be negative")

// Entry is one ledger row. Balance is the balance after the entry applied.
type Entry struct {
	ID        string
	MissionID string
	Reward    int
	Balance   int
	Confirmed bool
	At        time.Time
}

// NextBalance returns the balance after crediting reward. A balance confirmed
// by the host wins over the local sum.
func NextBalance(current, reward int, confirmed *int) int {
	if confirmed != nil {
		return *confirmed
	}
	return current + reward
}
