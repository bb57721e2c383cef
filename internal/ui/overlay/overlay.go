package overlay

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	trackingdto "bnkchallenge/internal/modules/tracking/dto"
	"bnkchallenge/internal/ui/theme"
)

// SnapshotSource exposes the live tracking view.
type SnapshotSource interface {
	Snapshot() trackingdto.Snapshot
}

// ProgressMsg carries one progress update for SessionID.
type ProgressMsg struct {
	SessionID string
	Progress  trackingdto.Progress
}

// FinishedMsg is emitted once when the session completes or is cancelled.
type FinishedMsg struct {
	SessionID string
	Outcome   trackingdto.Outcome
}

// DismissMsg asks the parent to close the overlay.
type DismissMsg struct{}

type keyMap struct {
	Cancel  key.Binding
	Dismiss key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Cancel:  key.NewBinding(key.WithKeys("x", "esc"), key.WithHelp("x", "미션 포기")),
		Dismiss: key.NewBinding(key.WithKeys("enter", "esc"), key.WithHelp("enter", "닫기")),
	}
}

// Model renders a running dwell session over the mission list.
type Model struct {
	source   SnapshotSource
	sub      trackingdto.Subscription
	location string
	snapshot trackingdto.Snapshot
	outcome  *trackingdto.Outcome
	stopping bool
	bar      progress.Model
	keys     keyMap
	width    int
}

// New builds the overlay for sub. location is the place shown under the title.
func New(source SnapshotSource, sub trackingdto.Subscription, location string) Model {
	bar := progress.New(progress.WithGradient(string(theme.Coral), string(theme.Peach)), progress.WithoutPercentage())
	bar.Width = 40
	return Model{
		source:   source,
		sub:      sub,
		location: location,
		snapshot: source.Snapshot(),
		bar:      bar,
		keys:     defaultKeys(),
	}
}

func (m Model) Init() tea.Cmd { return m.wait() }

// Finished reports whether the session has ended.
func (m Model) Finished() bool { return m.outcome != nil }

func (m Model) SessionID() string { return m.sub.SessionID }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = max(10, min(msg.Width-12, 48))

	case ProgressMsg:
		if msg.SessionID != m.sub.SessionID || m.outcome != nil {
			return m, nil
		}
		if fresh := m.source.Snapshot(); fresh.IsTracking && fresh.SessionID == m.sub.SessionID {
			m.snapshot = fresh
		} else {
			// The tracker already moved on; keep the last value we were sent.
			p := msg.Progress
			m.snapshot.Progress = &p
		}
		return m, m.wait()

	case FinishedMsg:
		if msg.SessionID != m.sub.SessionID {
			return m, nil
		}
		out := msg.Outcome
		m.outcome = &out
		m.stopping = false

	case tea.KeyMsg:
		if m.outcome != nil {
			if key.Matches(msg, m.keys.Dismiss) {
				return m, func() tea.Msg { return DismissMsg{} }
			}
			return m, nil
		}
		if key.Matches(msg, m.keys.Cancel) && !m.stopping {
			m.stopping = true
			stop := m.sub.Stop
			return m, func() tea.Msg {
				if stop != nil {
					stop()
				}
				return nil
			}
		}
	}
	return m, nil
}

// wait blocks on the subscription until the next progress value or the outcome.
func (m Model) wait() tea.Cmd {
	sub := m.sub
	return func() tea.Msg {
		if sub.Progress != nil {
			if p, ok := <-sub.Progress; ok {
				return ProgressMsg{SessionID: sub.SessionID, Progress: p}
			}
		}
		out, ok := <-sub.Done
		if !ok {
			out = trackingdto.Outcome{State: "cancelled"}
		}
		return FinishedMsg{SessionID: sub.SessionID, Outcome: out}
	}
}

func (m Model) View() string {
	var sb strings.Builder
	if m.outcome != nil {
		m.renderOutcome(&sb)
	} else {
		m.renderTracking(&sb)
	}
	w := m.width - 4
	if w < 40 {
		w = 72
	}
	return theme.Sheet.Width(w).Render(sb.String())
}

func (m Model) renderTracking(sb *strings.Builder) {
	s := m.snapshot
	sb.WriteString(theme.Title.Render("미션 진행 중") + "\n\n")
	sb.WriteString(theme.Big.Render(s.MissionTitle))
	if s.Reward > 0 {
		sb.WriteString("  " + theme.Coin.Render("🪙 "+humanize.Comma(int64(s.Reward))))
	}
	sb.WriteString("\n")
	if m.location != "" {
		sb.WriteString(theme.Muted.Render(m.location) + "\n")
	}
	sb.WriteString("\n")

	inZone := s.Progress != nil && s.Progress.IsInZone
	switch {
	case inZone:
		sb.WriteString(theme.InZone.Render("목표 위치 도착!") + "  " + theme.Muted.Render("해당 위치에서 1분간 대기해주세요") + "\n")
	case s.Progress != nil:
		sb.WriteString(theme.OutZone.Render("목표 위치로 이동 중") + "  " + theme.Muted.Render("목표까지 약 "+FormatDistance(s.Progress.DistanceMeters)) + "\n")
	default:
		sb.WriteString(theme.OutZone.Render("위치 확인 중") + "\n")
	}
	sb.WriteString("\n")

	percent := s.Percent
	sb.WriteString(fmt.Sprintf("%s %s\n", theme.Muted.Render("진행률"), theme.Big.Render(fmt.Sprintf("%d%%", int(math.Round(percent))))))
	sb.WriteString(m.bar.ViewAs(percent/100) + "\n\n")
	sb.WriteString(theme.Big.Render(s.Remaining) + " " + theme.Muted.Render("남은 시간") + "\n\n")
	sb.WriteString(theme.Muted.Render("💡 목표 위치 100m 이내에서 1분간 머물러야 미션이 완료됩니다. 범위를 벗어나면 시간이 초기화됩니다.") + "\n\n")
	if m.stopping {
		sb.WriteString(theme.Muted.Render("취소하는 중…"))
	} else {
		sb.WriteString(theme.Muted.Render("x: 미션 포기"))
	}
}

func (m Model) renderOutcome(sb *strings.Builder) {
	out := m.outcome
	if out.Completion == nil {
		sb.WriteString(theme.Title.Render("미션 취소됨") + "\n\n")
		sb.WriteString(theme.Muted.Render(m.snapshot.MissionTitle) + "\n\n")
		sb.WriteString(theme.Muted.Render("enter: 닫기"))
		return
	}
	c := out.Completion
	sb.WriteString(theme.Title.Render("🎉 미션 완료!") + "\n\n")
	sb.WriteString(theme.Big.Render(m.snapshot.MissionTitle) + "\n\n")
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		theme.Coin.Render("+"+humanize.Comma(int64(c.Reward))+" 코인"),
		theme.Muted.Render("  ·  잔액 "),
		theme.Coin.Render(humanize.Comma(int64(c.CoinBalance))),
	) + "\n\n")
	sb.WriteString(theme.Muted.Render("enter: 닫기"))
}

// FormatDistance renders meters below 1 km as whole meters and above as km.
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%dm", int(math.Round(meters)))
	}
	return fmt.Sprintf("%.1fkm", meters/1000)
}
