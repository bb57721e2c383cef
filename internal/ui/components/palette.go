package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"bnkchallenge/internal/ui/theme"
)

// PaletteSubmitMsg is emitted when the user confirms a command.
type PaletteSubmitMsg struct{ Input string }

// PaletteCancelMsg is emitted when the user presses esc.
type PaletteCancelMsg struct{}

var (
	paletteStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Peach).
			Background(theme.Mantle).
			Foreground(theme.Text).
			Padding(0, 1)

	hintStyle = lipgloss.NewStyle().Foreground(theme.Subtext0)
	helpStyle = lipgloss.NewStyle().Foreground(theme.Lavender)
)

// PaletteCommand describes one mission command the palette accepts.
type PaletteCommand struct {
	Name string
	Args string
	Help string
}

// paletteCommands must stay in sync with the switch in app/model.go executePalette.
var paletteCommands = []PaletteCommand{
	{Name: "track", Help: "선택한 미션에 참여하고 체류 추적 시작"},
	{Name: "stop", Help: "진행 중인 미션 추적 중단"},
	{Name: "locate", Help: "현재 위치 다시 확인"},
	{Name: "like", Help: "선택한 미션 좋아요 토글"},
	{Name: "recommend", Help: "추천 미션만 보기"},
	{Name: "missions", Help: "전체 미션 목록으로 돌아가기"},
	{Name: "category", Args: "<all|food|cafe|tourist|culture|festival|walk|shopping|self-dev|sports>", Help: "카테고리로 미션 거르기"},
	{Name: "sort", Args: "<distance|popular|recent>", Help: "미션 정렬 기준 바꾸기"},
	{Name: "refresh", Help: "미션 목록과 코인 잔액 새로고침"},
}

// PaletteCommands returns the commands the palette offers, in display order.
func PaletteCommands() []PaletteCommand {
	return append([]PaletteCommand(nil), paletteCommands...)
}

func (c PaletteCommand) usage() string {
	if c.Args == "" {
		return c.Name
	}
	return c.Name + " " + c.Args
}

// matchCommands filters by the first word typed. Once arguments follow,
// only the exact command stays listed.
func matchCommands(input string) []PaletteCommand {
	input = strings.ToLower(strings.TrimLeft(input, " "))
	word, _, hasArgs := strings.Cut(input, " ")
	var out []PaletteCommand
	for _, c := range paletteCommands {
		if hasArgs && c.Name != word {
			continue
		}
		if !strings.HasPrefix(c.Name, word) {
			continue
		}
		out = append(out, c)
		if len(out) == maxHints {
			break
		}
	}
	return out
}

const maxHints = 5

// Palette is a command-palette overlay backed by bubbles/textinput.
type Palette struct {
	input   textinput.Model
	visible bool
	width   int
}

// NewPalette creates an inactive Palette ready to be opened.
func NewPalette() Palette {
	ti := textinput.New()
	ti.Placeholder = "track, stop, category tourist…"
	ti.CharLimit = 128
	return Palette{input: ti}
}

// Visible reports whether the palette is currently shown.
func (p Palette) Visible() bool { return p.visible }

// Open shows the palette, clears the input, and returns the focus command.
func (p *Palette) Open() tea.Cmd {
	p.visible = true
	p.input.SetValue("")
	return p.input.Focus()
}

// SetWidth sets the render width for the overlay.
func (p *Palette) SetWidth(w int) { p.width = w }

func (p Palette) Update(msg tea.Msg) (Palette, tea.Cmd) {
	if !p.visible {
		return p, nil
	}
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			p.visible = false
			p.input.Blur()
			return p, func() tea.Msg { return PaletteCancelMsg{} }
		case "enter":
			val := strings.TrimSpace(p.input.Value())
			p.visible = false
			p.input.Blur()
			return p, func() tea.Msg { return PaletteSubmitMsg{Input: val} }
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p Palette) View() string {
	if !p.visible {
		return ""
	}
	matching := matchCommands(p.input.Value())

	var sb strings.Builder
	sb.WriteString(theme.Title.Render("미션 명령") + "\n")
	sb.WriteString(": " + p.input.View() + "\n")
	if len(matching) > 0 {
		sb.WriteString("\n")
		for _, c := range matching {
			sb.WriteString(hintStyle.Render("  "+c.usage()) + "  " + helpStyle.Render(c.Help) + "\n")
		}
	} else {
		sb.WriteString("\n" + helpStyle.Render("  일치하는 명령이 없습니다") + "\n")
	}

	w := p.width
	if w < 20 {
		w = 64
	}
	return paletteStyle.Width(w - 2).Render(sb.String())
}
