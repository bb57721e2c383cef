package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"bnkchallenge/internal/platform/geo"
)

const (
	RequiredDwell        = 60 * time.Second
	GeofenceRadiusMeters = 100.0

	StandInTick           = time.Second
	StandInStep           = time.Second
	StandInDistanceMeters = 50.0
)

var (
	ErrMissingCoordinates = errors.New("mission has no coordinates")
	ErrInvalidMission     = errors.New("invalid mission")
	ErrEmptySample        = errors.New("sample carries neither position nor distance")
)

type State string

const (
	StateIdle      State = "idle"
	StateTracking  State = "tracking"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
)

// Mission is the slice of a catalog mission the tracker needs.
type Mission struct {
	ID          string
	Title       string
	Coordinates *geo.Coordinate
	CoinReward  int
}

func (m Mission) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidMission)
	}
	if m.CoinReward < 0 {
		return fmt.Errorf("%w: negative reward %d", ErrInvalidMission, m.CoinReward)
	}
	if m.Coordinates == nil {
		return ErrMissingCoordinates
	}
	return nil
}

// Target is what a sampler is armed with.
type Target struct {
	MissionID     string
	Coordinate    geo.Coordinate
	RequiredDwell time.Duration
}

type DwellSession struct {
	SessionID          string
	MissionID          string
	MissionTitle       string
	Target             geo.Coordinate
	Reward             int
	RequiredDwell      time.Duration
	AccumulatedDwell   time.Duration
	LastDistanceMeters float64
	InZone             bool
	Active             bool
	StartedAt          time.Time
	LastSampleAt       time.Time
	Samples            int
}

func NewSession(sessionID string, m Mission, now time.Time) (DwellSession, error) {
	if err := m.Validate(); err != nil {
		return DwellSession{}, err
	}
	return DwellSession{
		SessionID:     sessionID,
		MissionID:     m.ID,
		MissionTitle:  m.Title,
		Target:        *m.Coordinates,
		Reward:        m.CoinReward,
		RequiredDwell: RequiredDwell,
		Active:        true,
		StartedAt:     now,
	}, nil
}

func (s DwellSession) ArmTarget() Target {
	return Target{MissionID: s.MissionID, Coordinate: s.Target, RequiredDwell: s.RequiredDwell}
}

// Sample is one observation from a sampling source. DistanceMeters wins over
// Position when both are set. TimeInZone is a host-reported dwell total.
type Sample struct {
	MissionID      string
	At             time.Time
	Position       *geo.Coordinate
	DistanceMeters *float64
	Step           time.Duration
	TimeInZone     *time.Duration
}

// Apply folds one sample into the session. Leaving the zone resets the dwell
// to zero. Inside, a host-reported total replaces the dwell as is; local steps
// and clock deltas only add to it.
func (s *DwellSession) Apply(sample Sample) (Progress, error) {
	var distance float64
	switch {
	case sample.DistanceMeters != nil:
		distance = *sample.DistanceMeters
	case sample.Position != nil:
		distance = geo.DistanceMeters(*sample.Position, s.Target)
	default:
		return Progress{}, ErrEmptySample
	}

	inZone := distance <= GeofenceRadiusMeters
	if inZone {
		switch {
		case sample.TimeInZone != nil:
			s.AccumulatedDwell = max(*sample.TimeInZone, 0)
		case sample.Step > 0:
			s.AccumulatedDwell += sample.Step
		case s.Samples > 0 && !sample.At.IsZero() && !s.LastSampleAt.IsZero():
			s.AccumulatedDwell += max(sample.At.Sub(s.LastSampleAt), 0)
		}
	} else {
		s.AccumulatedDwell = 0
	}

	s.LastDistanceMeters = distance
	s.InZone = inZone
	s.Samples++
	if !sample.At.IsZero() {
		s.LastSampleAt = sample.At
	}
	return s.Progress(), nil
}

func (s DwellSession) Progress() Progress {
	return Progress{
		MissionID:      s.MissionID,
		Accumulated:    s.AccumulatedDwell,
		Required:       s.RequiredDwell,
		DistanceMeters: s.LastDistanceMeters,
		InZone:         s.InZone,
	}
}

type Progress struct {
	MissionID      string
	Accumulated    time.Duration
	Required       time.Duration
	DistanceMeters float64
	InZone         bool
}

// ProgressPercent is the dwell share in [0,100]. Nil progress is 0.
func ProgressPercent(p *Progress) float64 {
	if p == nil || p.Required <= 0 {
		return 0
	}
	pct := float64(p.Accumulated) / float64(p.Required) * 100
	return math.Max(0, math.Min(100, pct))
}

// FormatRemaining renders the time left as M:SS, rounding seconds up.
func FormatRemaining(p *Progress) string {
	remaining := RequiredDwell
	if p != nil {
		remaining = max(p.Required-p.Accumulated, 0)
	}
	secs := (remaining.Milliseconds() + 999) / 1000
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

type EventKind int

const (
	EventProgress EventKind = iota + 1
	EventCompletion
)

// SourceEvent is what a sampler feed emits.
type SourceEvent struct {
	Kind       EventKind
	Sample     Sample
	Completion CompletionNotice
}

// CompletionNotice carries the optional values the host confirmed.
type CompletionNotice struct {
	MissionID   string
	Reward      *int
	CoinBalance *int
}

type Completion struct {
	SessionID   string
	MissionID   string
	Reward      int
	CoinBalance int
	CompletedAt time.Time
}

// SessionRecord is the journal row written when a session ends.
type SessionRecord struct {
	SessionID        string
	MissionID        string
	State            State
	AccumulatedDwell time.Duration
	Samples          int
	Reward           int
	CoinBalance      int
	StartedAt        time.Time
	EndedAt          time.Time
}
