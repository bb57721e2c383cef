package usecase

import (
	"context"
	"fmt"

	"bnkchallenge/internal/modules/catalog/domain"
	"bnkchallenge/internal/modules/catalog/dto"
	catalogin "bnkchallenge/internal/modules/catalog/port/in"
	"bnkchallenge/internal/modules/catalog/service"
	apperrors "bnkchallenge/internal/platform/errors"
)

type Interactor struct {
	svc *service.CatalogService
}

func NewInteractor(svc *service.CatalogService) catalogin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) ListMissions(ctx context.Context, input dto.ListInput) ([]dto.MissionOutput, error) {
	category, err := domain.ParseCategory(input.Category)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err)
	}
	sort, err := domain.ParseSort(input.Sort)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err)
	}
	missions, err := i.svc.ListMissions(ctx, category, sort)
	if err != nil {
		return nil, err
	}
	return toDTOs(missions), nil
}

func (i *Interactor) Recommended(ctx context.Context) ([]dto.MissionOutput, error) {
	missions, err := i.svc.Recommended(ctx)
	if err != nil {
		return nil, err
	}
	return toDTOs(missions), nil
}

func (i *Interactor) GetMission(ctx context.Context, missionID string) (dto.MissionOutput, error) {
	m, err := i.svc.GetMission(ctx, missionID)
	if err != nil {
		return dto.MissionOutput{}, err
	}
	return toDTO(m), nil
}

func (i *Interactor) ToggleLike(ctx context.Context, missionID string) (dto.LikeOutput, error) {
	liked, err := i.svc.ToggleLike(ctx, missionID)
	if err != nil {
		return dto.LikeOutput{}, err
	}
	return dto.LikeOutput{MissionID: missionID, IsLiked: liked}, nil
}

func (i *Interactor) Participate(ctx context.Context, missionID string) (dto.ParticipateOutput, error) {
	res, err := i.svc.Participate(ctx, missionID)
	if err != nil {
		return dto.ParticipateOutput{}, err
	}
	return dto.ParticipateOutput{MissionID: missionID, Success: res.Success, Message: res.Message}, nil
}

func (i *Interactor) MarkCompleted(ctx context.Context, missionID string) error {
	return i.svc.MarkCompleted(ctx, missionID)
}

func (i *Interactor) CurrentUser(ctx context.Context) (dto.UserOutput, error) {
	u, err := i.svc.CurrentUser(ctx)
	if err != nil {
		return dto.UserOutput{}, err
	}
	out := dto.UserOutput{ID: u.ID, Name: u.Name, CoinBalance: u.CoinBalance}
	if u.Preferences != nil {
		for _, c := range u.Preferences.Categories {
			out.Categories = append(out.Categories, string(c))
		}
	}
	return out, nil
}

func toDTOs(missions []domain.Mission) []dto.MissionOutput {
	out := make([]dto.MissionOutput, 0, len(missions))
	for _, m := range missions {
		out = append(out, toDTO(m))
	}
	return out
}

func toDTO(m domain.Mission) dto.MissionOutput {
	out := dto.MissionOutput{
		ID:                  m.ID,
		Title:               m.Title,
		ImageURL:            m.ImageURL,
		Location:            m.Location,
		LocationDetail:      m.LocationDetail,
		Distance:            m.Distance,
		CoinReward:          m.CoinReward,
		Category:            string(m.Category),
		CategoryLabel:       m.Category.Label(),
		IsLiked:             m.IsLiked,
		EndDate:             m.EndDate,
		Insight:             m.Insight,
		VerificationMethods: m.VerificationMethods,
		ParticipationStatus: string(m.ParticipationStatus),
		CompletedAt:         m.CompletedAt,
		FinalScore:          m.FinalScore,
	}
	if m.Coordinates != nil {
		lat, lng := m.Coordinates.Lat, m.Coordinates.Lng
		out.Lat, out.Lng = &lat, &lng
	}
	return out
}
