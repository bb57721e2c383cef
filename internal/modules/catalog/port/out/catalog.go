package out

import (
	"context"
	"time"

	"bnkchallenge/internal/modules/catalog/domain"
)

// RemoteCatalog is the mission REST API.
type RemoteCatalog interface {
	ListMissions(ctx context.Context, category domain.Category, sort domain.SortType) ([]domain.Mission, error)
	Recommended(ctx context.Context, userID string) ([]domain.Mission, error)
	ToggleLike(ctx context.Context, missionID string) (bool, error)
	Participate(ctx context.Context, missionID string) (domain.ParticipationResult, error)
	CurrentUser(ctx context.Context) (domain.User, error)
}

// SeedCatalog is the bundled offline catalog.
type SeedCatalog interface {
	Missions() []domain.Mission
	Recommended() []domain.Mission
	User() domain.User
}

// StateStore keeps likes and participation made while offline.
type StateStore interface {
	Likes(ctx context.Context) (map[string]bool, error)
	SetLike(ctx context.Context, missionID string, liked bool) error
	Participations(ctx context.Context) (map[string]Participation, error)
	SetParticipation(ctx context.Context, missionID string, p Participation) error
}

type Participation struct {
	Status    domain.ParticipationStatus
	UpdatedAt time.Time
}
