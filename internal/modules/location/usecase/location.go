package usecase

import (
	"context"

	"bnkchallenge/internal/modules/location/domain"
	"bnkchallenge/internal/modules/location/dto"
	locationin "bnkchallenge/internal/modules/location/port/in"
	"bnkchallenge/internal/modules/location/service"
)

type Interactor struct {
	provider *service.Provider
}

func NewInteractor(provider *service.Provider) locationin.Usecase {
	return &Interactor{provider: provider}
}

func (i *Interactor) RequestLocation(ctx context.Context) (dto.Position, error) {
	pos, err := i.provider.RequestLocation(ctx)
	if err != nil {
		return dto.Position{}, err
	}
	return toDTO(pos), nil
}

func (i *Interactor) State() dto.State {
	snap := i.provider.Snapshot()
	out := dto.State{
		Err:     snap.Err,
		Message: domain.Message(snap.Err),
		Loading: snap.Loading,
		Source:  string(i.provider.SourceKind()),
	}
	if snap.Position != nil {
		pos := toDTO(*snap.Position)
		out.Position = &pos
	}
	return out
}

func (i *Interactor) Listen(ctx context.Context) error {
	return i.provider.Listen(ctx)
}

func toDTO(pos domain.GeoPosition) dto.Position {
	return dto.Position{Latitude: pos.Latitude, Longitude: pos.Longitude, Accuracy: pos.Accuracy, At: pos.At}
}
