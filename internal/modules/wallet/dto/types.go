package dto

import "time"

type CreditInput struct {
	MissionID        string
	Reward           int
	ConfirmedBalance *int
}

type EntryOutput struct {
	ID        string
	MissionID string
	Reward    int
	Balance   int
	Confirmed bool
	At        time.Time
}
