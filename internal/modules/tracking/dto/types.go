package dto

import "time"

type Mission struct {
	ID         string
	Title      string
	Lat        *float64
	Lng        *float64
	CoinReward int
}

type Progress struct {
	MissionID              string
	AccumulatedDwellMillis int64
	RequiredDwellMillis    int64
	DistanceMeters         float64
	IsInZone               bool
}

type Completion struct {
	SessionID   string
	MissionID   string
	Reward      int
	CoinBalance int
	CompletedAt time.Time
}

type Outcome struct {
	State      string
	Completion *Completion
}

type Snapshot struct {
	IsTracking   bool
	State        string
	SessionID    string
	MissionID    string
	MissionTitle string
	Reward       int
	Progress     *Progress
	Percent      float64
	Remaining    string
}

// Subscription is the caller's view of one tracking session.
type Subscription struct {
	SessionID string
	MissionID string
	Progress  <-chan Progress
	Done      <-chan Outcome
	Stop      func()
}

type SampleInput struct {
	MissionID      string
	Lat            *float64
	Lng            *float64
	DistanceMeters *float64
	StepMillis     int64
	At             time.Time
}

type SessionRecord struct {
	SessionID              string
	MissionID              string
	State                  string
	AccumulatedDwellMillis int64
	Samples                int
	Reward                 int
	CoinBalance            int
	StartedAt              time.Time
	EndedAt                time.Time
}
