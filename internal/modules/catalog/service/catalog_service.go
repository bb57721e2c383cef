package service

import (
	"context"
	"fmt"
	"strings"

	hclog "github.com/hashicorp/go-hclog"

	"bnkchallenge/internal/modules/catalog/domain"
	catalogout "bnkchallenge/internal/modules/catalog/port/out"
	"bnkchallenge/internal/platform/clock"
	apperrors "bnkchallenge/internal/platform/errors"
	"bnkchallenge/internal/platform/logging"
)

// CatalogService serves missions from the remote API and falls back to the
// bundled catalog when the API is not configured or fails.
type CatalogService struct {
	remote catalogout.RemoteCatalog
	seed   catalogout.SeedCatalog
	store  catalogout.StateStore
	clock  clock.Clock
	userID string
	logger hclog.Logger
}

// NewCatalogService accepts a nil remote for offline use.
func NewCatalogService(remote catalogout.RemoteCatalog, seed catalogout.SeedCatalog, store catalogout.StateStore, clock clock.Clock, userID string, logger hclog.Logger) *CatalogService {
	return &CatalogService{
		remote: remote,
		seed:   seed,
		store:  store,
		clock:  clock,
		userID: userID,
		logger: logging.OrDiscard(logger).Named("catalog"),
	}
}

func (s *CatalogService) Online() bool { return s.remote != nil }

func (s *CatalogService) fallback(op string, err error) {
	s.logger.Warn("mission api unavailable, using bundled catalog", "op", op, "error", err)
}

func (s *CatalogService) ListMissions(ctx context.Context, category domain.Category, sort domain.SortType) ([]domain.Mission, error) {
	var (
		missions []domain.Mission
		fetched  bool
	)
	if s.remote != nil {
		remote, err := s.remote.ListMissions(ctx, category, sort)
		if err == nil {
			missions, fetched = remote, true
		} else {
			s.fallback("list", err)
		}
	}
	if !fetched {
		local, err := s.offline(ctx, s.seed.Missions())
		if err != nil {
			return nil, err
		}
		missions = local
	}
	out := domain.Filter(missions, category)
	domain.Sort(out, sort)
	return out, nil
}

func (s *CatalogService) Recommended(ctx context.Context) ([]domain.Mission, error) {
	var (
		missions []domain.Mission
		fetched  bool
	)
	if s.remote != nil {
		remote, err := s.remote.Recommended(ctx, s.userID)
		if err == nil {
			missions, fetched = remote, true
		} else {
			s.fallback("recommend", err)
		}
	}
	if !fetched {
		local, err := s.offline(ctx, s.seed.Recommended())
		if err != nil {
			return nil, err
		}
		missions = local
	}
	domain.RankRecommended(missions)
	return missions, nil
}

func (s *CatalogService) GetMission(ctx context.Context, missionID string) (domain.Mission, error) {
	all, err := s.ListMissions(ctx, domain.CategoryAll, domain.SortNone)
	if err != nil {
		return domain.Mission{}, err
	}
	recommended, err := s.Recommended(ctx)
	if err != nil {
		return domain.Mission{}, err
	}
	for _, m := range append(all, recommended...) {
		if m.ID == missionID {
			return m, nil
		}
	}
	return domain.Mission{}, fmt.Errorf("%w: mission %s", apperrors.ErrNotFound, missionID)
}

func (s *CatalogService) ToggleLike(ctx context.Context, missionID string) (bool, error) {
	if err := requireID(missionID); err != nil {
		return false, err
	}
	if s.remote != nil {
		liked, err := s.remote.ToggleLike(ctx, missionID)
		if err == nil {
			return liked, nil
		}
		s.fallback("like", err)
	}
	m, err := s.offlineMission(ctx, missionID)
	if err != nil {
		return false, err
	}
	liked := !m.IsLiked
	if err := s.store.SetLike(ctx, missionID, liked); err != nil {
		return false, err
	}
	return liked, nil
}

func (s *CatalogService) Participate(ctx context.Context, missionID string) (domain.ParticipationResult, error) {
	if err := requireID(missionID); err != nil {
		return domain.ParticipationResult{}, err
	}
	if s.remote != nil {
		res, err := s.remote.Participate(ctx, missionID)
		if err == nil {
			return res, nil
		}
		s.fallback("participate", err)
	}
	m, err := s.offlineMission(ctx, missionID)
	if err != nil {
		return domain.ParticipationResult{}, err
	}
	if m.ParticipationStatus == domain.ParticipationCompleted {
		return domain.ParticipationResult{Success: false, Message: domain.MessageAlreadyCompleted}, nil
	}
	err = s.store.SetParticipation(ctx, missionID, catalogout.Participation{Status: domain.ParticipationInProgress, UpdatedAt: s.clock.Now()})
	if err != nil {
		return domain.ParticipationResult{}, err
	}
	return domain.ParticipationResult{Success: true, Message: domain.MessageParticipated}, nil
}

// MarkCompleted records a finished mission locally.
func (s *CatalogService) MarkCompleted(ctx context.Context, missionID string) error {
	if err := requireID(missionID); err != nil {
		return err
	}
	return s.store.SetParticipation(ctx, missionID, catalogout.Participation{Status: domain.ParticipationCompleted, UpdatedAt: s.clock.Now()})
}

func (s *CatalogService) CurrentUser(ctx context.Context) (domain.User, error) {
	if s.remote != nil {
		user, err := s.remote.CurrentUser(ctx)
		if err == nil {
			return user, nil
		}
		s.fallback("user", err)
	}
	return s.seed.User(), nil
}

func (s *CatalogService) offlineMission(ctx context.Context, missionID string) (domain.Mission, error) {
	all := append(s.seed.Missions(), s.seed.Recommended()...)
	for _, m := range all {
		if m.ID != missionID {
			continue
		}
		merged, err := s.offline(ctx, []domain.Mission{m})
		if err != nil {
			return domain.Mission{}, err
		}
		return merged[0], nil
	}
	return domain.Mission{}, fmt.Errorf("%w: mission %s", apperrors.ErrNotFound, missionID)
}

// offline overlays locally stored likes and participation on a copy of missions.
func (s *CatalogService) offline(ctx context.Context, missions []domain.Mission) ([]domain.Mission, error) {
	likes, err := s.store.Likes(ctx)
	if err != nil {
		return nil, err
	}
	participations, err := s.store.Participations(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Mission, len(missions))
	copy(out, missions)
	for i := range out {
		if liked, ok := likes[out[i].ID]; ok {
			out[i].IsLiked = liked
		}
		if p, ok := participations[out[i].ID]; ok {
			out[i].ParticipationStatus = p.Status
			if p.Status == domain.ParticipationCompleted {
				at := p.UpdatedAt
				out[i].CompletedAt = &at
			}
		}
	}
	return out, nil
}

func requireID(missionID string) error {
	if strings.TrimSpace(missionID) == "" {
		return fmt.Errorf("%w: mission id is required", apperrors.ErrInvalidInput)
	}
	return nil
}
