package missions

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	catalogdto "bnkchallenge/internal/modules/catalog/dto"
	"bnkchallenge/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type CatalogPort interface {
	List(ctx context.Context, category, sort string) ([]catalogdto.MissionOutput, error)
	Recommended(ctx context.Context) ([]catalogdto.MissionOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type LoadedMsg struct {
	Missions []catalogdto.MissionOutput
	Err      error
}

// ─── list item ───────────────────────────────────────────────────────────────

type missionItem struct {
	mission catalogdto.MissionOutput
}

func (i missionItem) Title() string {
	title := i.mission.Title
	if i.mission.IsLiked {
		title = theme.Liked.Render("♥") + " " + title
	}
	return title
}

func (i missionItem) Description() string {
	desc := fmt.Sprintf("%s · %s · %s코인", i.mission.CategoryLabel, i.mission.Distance, humanize.Comma(int64(i.mission.CoinReward)))
	switch i.mission.ParticipationStatus {
	case "completed":
		desc += " · 완료"
	case "in_progress":
		desc += " · 참여 중"
	}
	return desc
}

func (i missionItem) FilterValue() string { return i.mission.Title + " " + i.mission.Location }

// ─── model ───────────────────────────────────────────────────────────────────

// Category and sort cycle through these values.
var (
	categories = []string{"all", "food", "cafe", "tourist", "culture", "festival", "walk", "shopping", "self-dev", "sports"}
	sorts      = []string{"distance", "popular", "recent"}
)

type Model struct {
	port        CatalogPort
	list        list.Model
	preview     viewport.Model
	spinner     spinner.Model
	loading     bool
	recommended bool
	category    int
	sort        int
	width       int
	height      int
}

func New(port CatalogPort) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().
		Background(theme.Mantle).
		Foreground(theme.Text).
		Padding(1)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	m := Model{
		port:    port,
		list:    l,
		preview: vp,
		spinner: sp,
		loading: true,
	}
	m.list.Title = m.heading()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Reload(), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case LoadedMsg:
		m.loading = false
		m.list.Title = m.heading()
		if msg.Err != nil {
			m.list.Title = m.heading() + " · " + msg.Err.Error()
			return m, nil
		}
		items := make([]list.Item, len(msg.Missions))
		for i, mission := range msg.Missions {
			items[i] = missionItem{mission: mission}
		}
		cmds = append(cmds, m.list.SetItems(items))
		m.preview.SetContent(m.renderDetail())

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	if !m.loading {
		var lCmd tea.Cmd
		prevIdx := m.list.Index()
		m.list, lCmd = m.list.Update(msg)
		cmds = append(cmds, lCmd)
		if m.list.Index() != prevIdx {
			m.preview.SetContent(m.renderDetail())
		}

		var vCmd tea.Cmd
		m.preview, vCmd = m.preview.Update(msg)
		cmds = append(cmds, vCmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" 미션을 불러오는 중…")
	}

	listW := m.width * 5 / 10
	detailW := m.width - listW

	listPane := lipgloss.NewStyle().
		Width(listW).
		Height(m.height).
		Render(m.list.View())

	detailPane := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Surface1).
		Background(theme.Mantle).
		Width(max(detailW-2, 1)).
		Height(max(m.height-2, 1)).
		Render(m.preview.View())

	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

// Reload fetches the list for the current category and sort.
func (m Model) Reload() tea.Cmd {
	port := m.port
	category, sort, recommended := categories[m.category], sorts[m.sort], m.recommended
	return func() tea.Msg {
		if recommended {
			missions, err := port.Recommended(context.Background())
			return LoadedMsg{Missions: missions, Err: err}
		}
		missions, err := port.List(context.Background(), category, sort)
		return LoadedMsg{Missions: missions, Err: err}
	}
}

// NextCategory switches to the following category and reloads.
func (m *Model) NextCategory() tea.Cmd {
	m.recommended = false
	m.category = (m.category + 1) % len(categories)
	m.list.Title = m.heading()
	return m.Reload()
}

// NextSort switches to the following sort order and reloads.
func (m *Model) NextSort() tea.Cmd {
	m.recommended = false
	m.sort = (m.sort + 1) % len(sorts)
	m.list.Title = m.heading()
	return m.Reload()
}

// SetCategory selects a category by API name. It reports false for unknown names.
func (m *Model) SetCategory(name string) (tea.Cmd, bool) {
	for i, c := range categories {
		if c == name {
			m.recommended = false
			m.category = i
			m.list.Title = m.heading()
			return m.Reload(), true
		}
	}
	return nil, false
}

// SetSort selects a sort order by API name. It reports false for unknown names.
func (m *Model) SetSort(name string) (tea.Cmd, bool) {
	for i, s := range sorts {
		if s == name {
			m.recommended = false
			m.sort = i
			m.list.Title = m.heading()
			return m.Reload(), true
		}
	}
	return nil, false
}

// ShowRecommended toggles the AI-ranked list.
func (m *Model) ShowRecommended(on bool) tea.Cmd {
	m.recommended = on
	m.list.Title = m.heading()
	return m.Reload()
}

// Selected returns the highlighted mission.
func (m Model) Selected() (catalogdto.MissionOutput, bool) {
	if item, ok := m.list.SelectedItem().(missionItem); ok {
		return item.mission, true
	}
	return catalogdto.MissionOutput{}, false
}

// Filtering reports whether the list's search filter is currently active.
// The app model checks this to avoid consuming global keys during a search.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m Model) heading() string {
	if m.recommended {
		return "AI 추천 미션"
	}
	return fmt.Sprintf("미션 · %s · %s", categoryLabel(categories[m.category]), sortLabel(sorts[m.sort]))
}

func categoryLabel(c string) string {
	switch c {
	case "all":
		return "전체"
	case "food":
		return "음식"
	case "cafe":
		return "카페"
	case "tourist":
		return "관광"
	case "culture":
		return "문화생활"
	case "festival":
		return "축제"
	case "walk":
		return "산책"
	case "shopping":
		return "쇼핑"
	case "self-dev":
		return "자기개발"
	case "sports":
		return "스포츠"
	}
	return c
}

func sortLabel(s string) string {
	switch s {
	case "distance":
		return "거리순"
	case "popular":
		return "인기순"
	case "recent":
		return "최신순"
	}
	return s
}

func (m *Model) resize() {
	listW := m.width * 5 / 10
	detailW := m.width - listW
	m.list.SetSize(listW, m.height)
	m.preview.Width = max(detailW-4, 1)
	m.preview.Height = max(m.height-4, 1)
}

func (m Model) renderDetail() string {
	d, ok := m.Selected()
	if !ok {
		return theme.Muted.Render("미션을 선택하세요")
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(d.Title) + "\n\n")
	sb.WriteString(theme.Muted.Render("장소:   ") + d.Location)
	if d.LocationDetail != "" {
		sb.WriteString(" · " + d.LocationDetail)
	}
	sb.WriteString("\n")
	sb.WriteString(theme.Muted.Render("거리:   ") + d.Distance + "\n")
	sb.WriteString(theme.Muted.Render("보상:   ") + theme.Coin.Render(humanize.Comma(int64(d.CoinReward))+" 코인") + "\n")
	if d.EndDate != "" {
		sb.WriteString(theme.Muted.Render("마감:   ") + d.EndDate + "\n")
	}
	if d.FinalScore != nil {
		sb.WriteString(fmt.Sprintf("%s%.0f%%\n", theme.Muted.Render("추천:   "), *d.FinalScore*100))
	}
	if d.Lat == nil || d.Lng == nil {
		sb.WriteString(theme.Err.Render("위치 정보가 없는 미션입니다") + "\n")
	}
	if d.Insight != "" {
		sb.WriteString("\n" + theme.Hot.Render("💡 ") + d.Insight + "\n")
	}
	if len(d.VerificationMethods) > 0 {
		sb.WriteString("\n" + theme.Muted.Render("인증 방법") + "\n")
		for _, v := range d.VerificationMethods {
			sb.WriteString("  • " + v + "\n")
		}
	}
	if d.CompletedAt != nil {
		sb.WriteString("\n" + theme.Muted.Render("완료: ") + humanize.Time(*d.CompletedAt) + "\n")
	}
	sb.WriteString("\n" + theme.Muted.Render("enter: 참여하고 추적 시작  l: 좋아요"))
	return sb.String()
}
