package app

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	catalogdto "bnkchallenge/internal/modules/catalog/dto"
	locationdto "bnkchallenge/internal/modules/location/dto"
	trackingdomain "bnkchallenge/internal/modules/tracking/domain"
	trackingdto "bnkchallenge/internal/modules/tracking/dto"
	"bnkchallenge/internal/ui/components"
	"bnkchallenge/internal/ui/overlay"
	missionsview "bnkchallenge/internal/ui/views/missions"
)

type fakeCatalog struct {
	missions     []catalogdto.MissionOutput
	participated []string
	refuse       string
}

func (f *fakeCatalog) List(context.Context, string, string) ([]catalogdto.MissionOutput, error) {
	return f.missions, nil
}

func (f *fakeCatalog) Recommended(context.Context) ([]catalogdto.MissionOutput, error) {
	return f.missions, nil
}

func (f *fakeCatalog) Like(_ context.Context, id string) (catalogdto.LikeOutput, error) {
	return catalogdto.LikeOutput{MissionID: id, IsLiked: true}, nil
}

func (f *fakeCatalog) Participate(_ context.Context, id string) (catalogdto.ParticipateOutput, error) {
	f.participated = append(f.participated, id)
	if f.refuse != "" {
		return catalogdto.ParticipateOutput{MissionID: id, Message: f.refuse}, nil
	}
	return catalogdto.ParticipateOutput{MissionID: id, Success: true}, nil
}

func (f *fakeCatalog) CurrentUser(context.Context) (catalogdto.UserOutput, error) {
	return catalogdto.UserOutput{ID: "user-1", Name: "채수원", CoinBalance: 28246}, nil
}

type fakeTracking struct {
	started []string
	err     error
	sub     trackingdto.Subscription
	stops   int
}

func (f *fakeTracking) StartMission(_ context.Context, m catalogdto.MissionOutput) (trackingdto.Subscription, error) {
	f.started = append(f.started, m.ID)
	if f.err != nil {
		return trackingdto.Subscription{}, f.err
	}
	return f.sub, nil
}

func (f *fakeTracking) Stop(context.Context) error {
	f.stops++
	return nil
}

func (f *fakeTracking) Snapshot() trackingdto.Snapshot {
	return trackingdto.Snapshot{IsTracking: true, SessionID: f.sub.SessionID, MissionTitle: "감천문화마을 탐방", Reward: 120, Remaining: "1:00"}
}

type fakeWallet struct{ balance int }

func (f fakeWallet) Balance(context.Context) (int, error) { return f.balance, nil }

type fakeLocation struct{}

func (fakeLocation) RequestLocation(context.Context) (locationdto.Position, error) {
	return locationdto.Position{Latitude: 35.1, Longitude: 129.0}, nil
}

func (fakeLocation) State() locationdto.State {
	return locationdto.State{Position: &locationdto.Position{Latitude: 35.1, Longitude: 129.0}}
}

func sampleMissions() []catalogdto.MissionOutput {
	lat, lng := 35.0975, 129.0108
	return []catalogdto.MissionOutput{{ID: "mission-7", Title: "감천문화마을 탐방", CoinReward: 120, Lat: &lat, Lng: &lng, Location: "부산 사하구"}}
}

func loadedModel(t *testing.T, catalog *fakeCatalog, tracking *fakeTracking) Model {
	t.Helper()
	m := NewModel(catalog, tracking, fakeWallet{balance: 28246}, fakeLocation{})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	next, _ = next.Update(missionsview.LoadedMsg{Missions: catalog.missions})
	return next.(Model)
}

func TestEnterParticipatesAndOpensOverlay(t *testing.T) {
	t.Parallel()
	sub := trackingdto.Subscription{
		SessionID: "s-1",
		MissionID: "mission-7",
		Progress:  make(chan trackingdto.Progress, 1),
		Done:      make(chan trackingdto.Outcome, 1),
		Stop:      func() {},
	}
	catalog := &fakeCatalog{missions: sampleMissions()}
	tracking := &fakeTracking{sub: sub}
	m := loadedModel(t, catalog, tracking)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("enter must start participation")
	}
	msg := cmd()
	if len(catalog.participated) != 1 || len(tracking.started) != 1 || tracking.started[0] != "mission-7" {
		t.Fatalf("expected participate then track, got %v / %v", catalog.participated, tracking.started)
	}
	next, _ = next.Update(msg)
	model := next.(Model)
	if model.overlay == nil {
		t.Fatalf("overlay must open after tracking starts")
	}
	if view := model.View(); !strings.Contains(view, "미션 진행 중") {
		t.Fatalf("expected overlay in view:\n%s", view)
	}

	next, _ = model.Update(overlay.FinishedMsg{SessionID: "s-1", Outcome: trackingdto.Outcome{
		State:      "completed",
		Completion: &trackingdto.Completion{SessionID: "s-1", MissionID: "mission-7", Reward: 120, CoinBalance: 28366},
	}})
	model = next.(Model)
	if model.balance != 28366 || !strings.Contains(model.status, "미션 완료") {
		t.Fatalf("unexpected state after completion: balance=%d status=%q", model.balance, model.status)
	}
	next, _ = model.Update(overlay.DismissMsg{})
	if next.(Model).overlay != nil {
		t.Fatalf("dismiss must close the overlay")
	}
}

func TestRefusedParticipationStaysOnList(t *testing.T) {
	t.Parallel()
	catalog := &fakeCatalog{missions: sampleMissions(), refuse: "이미 완료한 미션입니다."}
	tracking := &fakeTracking{}
	m := loadedModel(t, catalog, tracking)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	next, _ := m.Update(cmd())
	model := next.(Model)
	if model.overlay != nil || len(tracking.started) != 0 {
		t.Fatalf("refused participation must not track")
	}
	if model.status != "이미 완료한 미션입니다." {
		t.Fatalf("unexpected status %q", model.status)
	}
}

func TestMissingCoordinatesShowsError(t *testing.T) {
	t.Parallel()
	catalog := &fakeCatalog{missions: sampleMissions()}
	tracking := &fakeTracking{err: trackingdomain.ErrMissingCoordinates}
	m := loadedModel(t, catalog, tracking)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	next, _ := m.Update(cmd())
	model := next.(Model)
	if model.overlay != nil || model.status != "위치 정보가 없는 미션입니다" {
		t.Fatalf("unexpected state: overlay=%v status=%q", model.overlay != nil, model.status)
	}
}

func TestPaletteCommands(t *testing.T) {
	t.Parallel()
	tracking := &fakeTracking{}
	m := loadedModel(t, &fakeCatalog{missions: sampleMissions()}, tracking)

	next, _ := m.Update(components.PaletteSubmitMsg{Input: "teleport"})
	if got := next.(Model).status; got != "unknown command: teleport" {
		t.Fatalf("unexpected status %q", got)
	}
	next, _ = m.Update(components.PaletteSubmitMsg{Input: "category karaoke"})
	if got := next.(Model).status; got != "unknown category: karaoke" {
		t.Fatalf("unexpected status %q", got)
	}
	_, cmd := m.Update(components.PaletteSubmitMsg{Input: "stop"})
	if cmd == nil {
		t.Fatalf("stop must issue a command")
	}
	cmd()
	if tracking.stops != 1 {
		t.Fatalf("expected one stop, got %d", tracking.stops)
	}
}

func TestEveryPaletteCommandIsHandled(t *testing.T) {
	t.Parallel()
	m := loadedModel(t, &fakeCatalog{missions: sampleMissions()}, &fakeTracking{})
	for _, c := range components.PaletteCommands() {
		next, _ := m.Update(components.PaletteSubmitMsg{Input: c.Name})
		if got := next.(Model).status; strings.HasPrefix(got, "unknown command") {
			t.Fatalf("palette offers %q but the model rejects it: %q", c.Name, got)
		}
	}
}

func TestHeaderShowsUserAndBalance(t *testing.T) {
	t.Parallel()
	catalog := &fakeCatalog{missions: sampleMissions()}
	m := loadedModel(t, catalog, &fakeTracking{})
	next, _ := m.Update(userLoadedMsg{user: catalogdto.UserOutput{Name: "채수원"}})
	next, _ = next.Update(balanceMsg{balance: 28246})
	view := next.View()
	if !strings.Contains(view, "채수원") || !strings.Contains(view, "28,246") {
		t.Fatalf("expected user and balance in header:\n%s", view)
	}
}
