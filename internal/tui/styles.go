package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Border animation for freshly shown cards.
type borderTickMsg time.Time

const borderFrames = 20

func borderTickCmd() tea.Cmd {
	return tea.Tick(60*time.Millisecond, func(t time.Time) tea.Msg {
		return borderTickMsg(t)
	})
}

// renderShimmer renders text letter-spaced as a flowing wave of green light.
// Deep forest green (#1a3a24) -> bright emerald (#4ade80).
func renderShimmer(text string, frame int) string {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return ""
	}

	var out strings.Builder
	t := float64(frame)
	for i, ch := range runes {
		x := 0.0
		if n > 1 {
			x = float64(i) / float64(n-1)
		}
		phase := t*0.1 - x*3.0
		phase += math.Sin(t*0.023) * 2.0

		b := math.Sin(phase)*0.5 + 0.5
		b = math.Pow(b, 1.3)
		b = b*0.75 + math.Sin(t*0.035)*0.12 + 0.18
		b = math.Max(0.05, math.Min(1.0, b))

		r := clampByte(26 + b*(74-26))
		g := clampByte(58 + b*(222-58))
		bl := clampByte(36 + b*(128-36))

		out.WriteString(lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", r, g, bl))).
			Render(string(ch)))
		if i < n-1 {
			out.WriteString(" ")
		}
	}
	return out.String()
}

func clampByte(v float64) int {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return int(v)
}

var (
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e4e4ec")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c0c4d0"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	helpLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#34d474"))

	linkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#22d3ee")).
			Underline(true)

	rejectStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#b45555"))

	goldStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4a844"))

	buttonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c0c4d0")).
			Background(lipgloss.Color("#1e1e2a")).
			Padding(0, 1)

	buttonSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#111118")).
				Background(lipgloss.Color("#4ade80")).
				Bold(true).
				Padding(0, 1)

	selectedRowBg = lipgloss.NewStyle().Background(lipgloss.Color("#1e1e2a"))

	cardColor = "#34d474"
)

// redirectStyle colors a routing outcome.
func redirectStyle(redirect string) lipgloss.Style {
	switch redirect {
	case "activity", "external":
		return accentStyle
	case "default":
		return goldStyle
	case "noop":
		return rejectStyle
	default:
		return dimStyle
	}
}

// cardBorder renders the animated top or bottom border of a notification card.
// pos: "top" or "bottom". label: optional header text (top only).
// frame: 0=static, 1-20=animating. width: terminal width.
func cardBorder(pos, label, baseColor string, frame, width int) string {
	w := width - 4
	if w < 10 {
		w = 10
	}
	animating := frame > 0 && frame <= borderFrames

	if pos == "bottom" {
		border := " └" + strings.Repeat("─", w)
		if animating {
			return animBorderLine(border, baseColor, frame, w)
		}
		return lipgloss.NewStyle().Foreground(lipgloss.Color(baseColor)).Render(border)
	}

	if label == "" {
		border := " ┌" + strings.Repeat("─", w)
		if animating {
			return animBorderLine(border, baseColor, frame, w)
		}
		return lipgloss.NewStyle().Foreground(lipgloss.Color(baseColor)).Render(border)
	}

	prefix := " ┌ " + label + " "
	remaining := w - lipgloss.Width(prefix) + 2 // +2 for " ┌"
	if remaining < 1 {
		remaining = 1
	}
	if animating {
		return prefix + animBorderDashes(remaining, baseColor, frame)
	}
	return prefix + lipgloss.NewStyle().Foreground(lipgloss.Color(baseColor)).Render(strings.Repeat("─", remaining))
}

// animBorderLine renders a full border line with sine-wave brightness.
func animBorderLine(line, baseColor string, frame, width int) string {
	var out strings.Builder
	for i, ch := range []rune(line) {
		out.WriteString(waveStyle(baseColor, frame, i, width).Render(string(ch)))
	}
	return out.String()
}

// animBorderDashes renders n dashes with sine-wave brightness.
func animBorderDashes(n int, baseColor string, frame int) string {
	var out strings.Builder
	for i := 0; i < n; i++ {
		out.WriteString(waveStyle(baseColor, frame, i, n).Render("─"))
	}
	return out.String()
}

// waveStyle colors position i of width between 40% and full brightness.
func waveStyle(baseColor string, frame, i, width int) lipgloss.Style {
	r0, g0, b0 := hexToRGB(baseColor)
	rD, gD, bD := int(float64(r0)*0.4), int(float64(g0)*0.4), int(float64(b0)*0.4)

	x := float64(i) / float64(max(width, 1))
	phase := float64(frame)*0.3 - x*4.0
	b := math.Pow(math.Sin(phase)*0.5+0.5, 1.5)
	r := clampByte(float64(rD) + b*float64(r0-rD))
	g := clampByte(float64(gD) + b*float64(g0-gD))
	bl := clampByte(float64(bD) + b*float64(b0-bD))
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", r, g, bl)))
}

// hexToRGB parses a hex color string (#RRGGBB) into r,g,b ints.
func hexToRGB(hex string) (int, int, int) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 128, 128, 128
	}
	var r, g, b int
	_, _ = fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b) //nolint:errcheck
	return r, g, b
}

// helpEntry renders a single "key label" pair for help bars.
func helpEntry(key, label string) string {
	return helpKeyStyle.Render(key) + " " + helpLabelStyle.Render(label)
}
