package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	catalogdto "bnkchallenge/internal/modules/catalog/dto"
	locationdto "bnkchallenge/internal/modules/location/dto"
	trackingdomain "bnkchallenge/internal/modules/tracking/domain"
	trackingdto "bnkchallenge/internal/modules/tracking/dto"
	apperrors "bnkchallenge/internal/platform/errors"
	"bnkchallenge/internal/ui/components"
	"bnkchallenge/internal/ui/overlay"
	"bnkchallenge/internal/ui/theme"
	missionsview "bnkchallenge/internal/ui/views/missions"
)

// ─── ports ───────────────────────────────────────────────────────────────────
// Each port is the minimal interface that this orchestration layer requires.

type catalogPort interface {
	missionsview.CatalogPort
	Like(ctx context.Context, missionID string) (catalogdto.LikeOutput, error)
	Participate(ctx context.Context, missionID string) (catalogdto.ParticipateOutput, error)
	CurrentUser(ctx context.Context) (catalogdto.UserOutput, error)
}

type trackingPort interface {
	StartMission(ctx context.Context, m catalogdto.MissionOutput) (trackingdto.Subscription, error)
	Stop(ctx context.Context) error
	Snapshot() trackingdto.Snapshot
}

type walletPort interface {
	Balance(ctx context.Context) (int, error)
}

type locationPort interface {
	RequestLocation(ctx context.Context) (locationdto.Position, error)
	State() locationdto.State
}

// ─── async messages ───────────────────────────────────────────────────────────

type userLoadedMsg struct {
	user catalogdto.UserOutput
	err  error
}

type balanceMsg struct {
	balance int
	err     error
}

type locatedMsg struct {
	state locationdto.State
}

type trackStartedMsg struct {
	mission catalogdto.MissionOutput
	sub     trackingdto.Subscription
	refused string
	err     error
}

type likedMsg struct {
	out catalogdto.LikeOutput
	err error
}

type stoppedMsg struct{ err error }

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Track     key.Binding
	Like      key.Binding
	Category  key.Binding
	Sort      key.Binding
	Recommend key.Binding
	Locate    key.Binding
	Help      key.Binding
	Palette   key.Binding
	Quit      key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Track:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "참여 + 추적")),
		Like:      key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "좋아요")),
		Category:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "카테고리")),
		Sort:      key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "정렬")),
		Recommend: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "AI 추천")),
		Locate:    key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "내 위치")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette:   key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:      key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Track, k.Like, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Track, k.Like},
		{k.Category, k.Sort, k.Recommend},
		{k.Locate, k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model: the mission list, the tracking overlay
// while a session runs, the help screen and the command palette.
type Model struct {
	catalog  catalogPort
	tracking trackingPort
	wallet   walletPort
	location locationPort

	missions missionsview.Model
	overlay  *overlay.Model

	keys     keyMap
	help     help.Model
	showHelp bool
	palette  components.Palette

	user     catalogdto.UserOutput
	balance  int
	located  locationdto.State
	starting bool
	status   string
	width    int
	height   int
}

// NewModel wires the TUI. location may be nil when no position source exists.
func NewModel(catalog catalogPort, tracking trackingPort, wallet walletPort, location locationPort) Model {
	return Model{
		catalog:  catalog,
		tracking: tracking,
		wallet:   wallet,
		location: location,
		missions: missionsview.New(catalog),
		keys:     defaultKeys(),
		help:     help.New(),
		palette:  components.NewPalette(),
		status:   "준비됨",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.missions.Init(),
		m.loadUserCmd(),
		m.loadBalanceCmd(),
		m.locateCmd(),
	)
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// The palette intercepts all input while open.
	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()

	case userLoadedMsg:
		if msg.err != nil {
			m.status = "사용자 정보: " + msg.err.Error()
		} else {
			m.user = msg.user
		}

	case balanceMsg:
		if msg.err != nil {
			m.status = "잔액 조회: " + msg.err.Error()
		} else {
			m.balance = msg.balance
		}

	case locatedMsg:
		m.located = msg.state
		if msg.state.Message != "" {
			m.status = msg.state.Message
		}

	case likedMsg:
		if msg.err != nil {
			m.status = "좋아요 실패: " + msg.err.Error()
			return m, nil
		}
		if msg.out.IsLiked {
			m.status = "♥ 좋아요"
		} else {
			m.status = "좋아요 취소"
		}
		return m, m.missions.Reload()

	case trackStartedMsg:
		m.starting = false
		switch {
		case msg.err != nil:
			m.status = trackingFailure(msg.err)
		case msg.refused != "":
			m.status = msg.refused
		default:
			location := msg.mission.LocationDetail
			if location == "" {
				location = msg.mission.Location
			}
			ov := overlay.New(m.tracking, msg.sub, location)
			ov, _ = ov.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
			m.overlay = &ov
			m.status = "추적 시작: " + msg.mission.Title
			return m, tea.Batch(ov.Init(), m.missions.Reload())
		}

	case stoppedMsg:
		if msg.err != nil {
			m.status = "추적 중지 실패: " + msg.err.Error()
		}

	case overlay.ProgressMsg, overlay.FinishedMsg:
		if m.overlay == nil {
			return m, nil
		}
		ov, cmd := m.overlay.Update(msg)
		m.overlay = &ov
		cmds = append(cmds, cmd)
		if done, ok := msg.(overlay.FinishedMsg); ok && done.SessionID == ov.SessionID() {
			if c := done.Outcome.Completion; c != nil {
				m.balance = c.CoinBalance
				m.status = fmt.Sprintf("🎉 미션 완료 +%s 코인", humanize.Comma(int64(c.Reward)))
			} else {
				m.status = "미션 취소됨"
			}
			cmds = append(cmds, m.missions.Reload(), m.loadBalanceCmd())
		}
		return m, tea.Batch(cmds...)

	case overlay.DismissMsg:
		m.overlay = nil
		return m, nil

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "준비됨"

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}

		if m.overlay != nil {
			if msg.String() == "ctrl+c" {
				return m, tea.Batch(m.stopCmd(), tea.Quit)
			}
			ov, cmd := m.overlay.Update(msg)
			m.overlay = &ov
			return m, cmd
		}

		// Yield to the list when its search filter is active.
		if m.missions.Filtering() {
			break
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "?":
			m.showHelp = !m.showHelp
			return m, nil
		case ":":
			return m, m.palette.Open()
		case "enter":
			return m.trackSelected()
		case "l":
			return m.likeSelected()
		case "c":
			return m, m.missions.NextCategory()
		case "o":
			return m, m.missions.NextSort()
		case "r":
			return m, m.missions.ShowRecommended(true)
		case "g":
			m.status = "위치 확인 중…"
			return m, m.locateCmd()
		}
	}

	var viewCmd tea.Cmd
	m.missions, viewCmd = m.missions.Update(msg)
	cmds = append(cmds, viewCmd)

	return m, tea.Batch(cmds...)
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	header := m.renderHeader()
	statusBar := m.renderStatusBar()
	contentH := max(m.height-lipgloss.Height(header)-lipgloss.Height(statusBar), 1)

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).
			Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.overlay != nil:
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Bottom, m.overlay.View())
	default:
		content = m.missions.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

func (m Model) renderHeader() string {
	name := m.user.Name
	if name == "" {
		name = "게스트"
	}
	left := theme.Hot.Render("BNK 챌린지") + "  " + theme.Muted.Render(name)
	right := theme.Coin.Render("🪙 " + humanize.Comma(int64(m.balance)))
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	bar := left + strings.Repeat(" ", gap) + right
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	if m.overlay != nil && !m.overlay.Finished() {
		left = theme.Hot.Render("● 추적 중") + "  " + left
	}
	right := theme.Muted.Render(m.locationLabel() + "  ?:help  :::palette  q:quit")
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

func (m Model) locationLabel() string {
	switch {
	case m.location == nil:
		return "📍 위치 없음"
	case m.located.Loading:
		return "📍 …"
	case m.located.Position != nil:
		return fmt.Sprintf("📍 %.4f, %.4f", m.located.Position.Latitude, m.located.Position.Longitude)
	default:
		return "📍 -"
	}
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	switch parts[0] {
	case "category":
		if len(parts) < 2 {
			m.status = "usage: category <name>"
			return m, nil
		}
		cmd, ok := m.missions.SetCategory(parts[1])
		if !ok {
			m.status = "unknown category: " + parts[1]
			return m, nil
		}
		return m, cmd

	case "sort":
		if len(parts) < 2 {
			m.status = "usage: sort <distance|popular|recent>"
			return m, nil
		}
		cmd, ok := m.missions.SetSort(parts[1])
		if !ok {
			m.status = "unknown sort: " + parts[1]
			return m, nil
		}
		return m, cmd

	case "recommend":
		return m, m.missions.ShowRecommended(true)

	case "missions":
		return m, m.missions.ShowRecommended(false)

	case "refresh":
		return m, tea.Batch(m.missions.Reload(), m.loadBalanceCmd(), m.loadUserCmd())

	case "track":
		return m.trackSelected()

	case "like":
		return m.likeSelected()

	case "stop":
		return m, m.stopCmd()

	case "locate":
		m.status = "위치 확인 중…"
		return m, m.locateCmd()

	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m Model) trackSelected() (tea.Model, tea.Cmd) {
	mission, ok := m.missions.Selected()
	if !ok {
		m.status = "선택된 미션이 없습니다"
		return m, nil
	}
	if m.starting {
		return m, nil
	}
	m.starting = true
	m.status = "참여 중: " + mission.Title
	return m, m.participateAndTrackCmd(mission)
}

func (m Model) likeSelected() (tea.Model, tea.Cmd) {
	mission, ok := m.missions.Selected()
	if !ok {
		m.status = "선택된 미션이 없습니다"
		return m, nil
	}
	return m, m.likeCmd(mission.ID)
}

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.missions, _ = m.missions.Update(sz)
	if m.overlay != nil {
		ov, _ := m.overlay.Update(sz)
		m.overlay = &ov
	}
}

func trackingFailure(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrActiveSessionExists):
		return "이미 진행 중인 미션이 있습니다"
	case errors.Is(err, trackingdomain.ErrMissingCoordinates):
		return "위치 정보가 없는 미션입니다"
	default:
		return "미션 시작 실패: " + err.Error()
	}
}

// ─── async commands ───────────────────────────────────────────────────────────

func (m Model) loadUserCmd() tea.Cmd {
	return func() tea.Msg {
		user, err := m.catalog.CurrentUser(context.Background())
		return userLoadedMsg{user: user, err: err}
	}
}

func (m Model) loadBalanceCmd() tea.Cmd {
	return func() tea.Msg {
		balance, err := m.wallet.Balance(context.Background())
		return balanceMsg{balance: balance, err: err}
	}
}

func (m Model) locateCmd() tea.Cmd {
	if m.location == nil {
		return nil
	}
	return func() tea.Msg {
		_, _ = m.location.RequestLocation(context.Background())
		return locatedMsg{state: m.location.State()}
	}
}

func (m Model) likeCmd(missionID string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.catalog.Like(context.Background(), missionID)
		return likedMsg{out: out, err: err}
	}
}

// participateAndTrackCmd joins the mission and then starts dwell tracking on it.
func (m Model) participateAndTrackCmd(mission catalogdto.MissionOutput) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		res, err := m.catalog.Participate(ctx, mission.ID)
		if err != nil {
			return trackStartedMsg{mission: mission, err: err}
		}
		if !res.Success {
			return trackStartedMsg{mission: mission, refused: res.Message}
		}
		sub, err := m.tracking.StartMission(ctx, mission)
		return trackStartedMsg{mission: mission, sub: sub, err: err}
	}
}

func (m Model) stopCmd() tea.Cmd {
	return func() tea.Msg {
		return stoppedMsg{err: m.tracking.Stop(context.Background())}
	}
}
