package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/larapush/larapush-go/pkg/domain"
	"github.com/larapush/larapush-go/pkg/push"
)

// ClickHandler routes a tap. *push.Push implements it.
type ClickHandler interface {
	HandleClick(ctx context.Context, click domain.Click, surface push.Surface) push.RouteResult
}

// routedMsg carries the outcome of a routed tap. closed reports whether the
// router closed the surface showing the notification.
type routedMsg struct {
	id     uuid.UUID
	target int
	result push.RouteResult
	closed bool
}

type copyResultMsg struct {
	err error
}

// copyText is swapped out in tests.
var copyText = clipboard.WriteAll

// targetCount is the body plus one per action button.
func targetCount(n *domain.Notification) int {
	return 1 + len(n.Actions)
}

// clickFor returns the click for target 0 (body) or 1..n (action buttons).
func clickFor(n *domain.Notification, target int) (domain.Click, bool) {
	if target == 0 {
		return n.Click(), true
	}
	if target < 1 || target > len(n.Actions) {
		return domain.Click{}, false
	}
	return n.Actions[target-1].Click(), true
}

func routeCmd(ctx context.Context, h ClickHandler, n *domain.Notification, target int, surface push.Surface) tea.Cmd {
	click, ok := clickFor(n, target)
	if !ok || h == nil {
		return nil
	}
	id := n.ID
	return func() tea.Msg {
		// The router closes the surface before HandleClick returns.
		closed := false
		s := push.SurfaceFunc(func() {
			closed = true
			if surface != nil {
				surface.Close()
			}
		})
		res := h.HandleClick(ctx, click, s)
		return routedMsg{id: id, target: target, result: res, closed: closed}
	}
}

func copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return copyResultMsg{err: copyText(text)}
	}
}

// digitTarget maps "1".."9" to an action button index.
func digitTarget(key string) (int, bool) {
	if len(key) != 1 || key[0] < '1' || key[0] > '9' {
		return 0, false
	}
	return int(key[0] - '0'), true
}

// Card shows a single notification and routes the first tap, then quits.
type Card struct {
	ctx       context.Context
	handler   ClickHandler
	surface   push.Surface
	n         *domain.Notification
	cursor    int
	routing   bool
	result    *push.RouteResult
	dismissed bool
	status    string
	width     int
	frame     int
}

// NewCard creates a card for n. surface is closed by the router once a tap
// has been handled; it may be nil.
func NewCard(ctx context.Context, n *domain.Notification, h ClickHandler, surface push.Surface) Card {
	return Card{ctx: ctx, handler: h, surface: surface, n: n, width: 60}
}

func (c Card) Init() tea.Cmd {
	return borderTickCmd()
}

// Result returns the routing outcome once a tap was handled.
func (c Card) Result() (push.RouteResult, bool) {
	if c.result == nil {
		return push.RouteResult{}, false
	}
	return *c.result, true
}

// Dismissed reports whether the card was closed without a tap.
func (c Card) Dismissed() bool {
	return c.dismissed
}

func (c Card) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		c.width = msg.Width

	case borderTickMsg:
		c.frame++
		if c.frame <= borderFrames {
			return c, borderTickCmd()
		}

	case routedMsg:
		c.routing = false
		res := msg.result
		c.result = &res
		return c, tea.Quit

	case copyResultMsg:
		if msg.err != nil {
			c.status = "copy failed: " + msg.err.Error()
		} else {
			c.status = "copied!"
		}

	case tea.KeyMsg:
		if c.routing {
			if msg.String() == "ctrl+c" {
				return c, tea.Quit
			}
			return c, nil
		}
		return c.handleKey(msg)
	}
	return c, nil
}

func (c Card) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "esc", "ctrl+c":
		c.dismissed = true
		return c, tea.Quit
	case "right", "l", "tab":
		c.cursor = (c.cursor + 1) % targetCount(c.n)
	case "left", "h", "shift+tab":
		c.cursor = (c.cursor - 1 + targetCount(c.n)) % targetCount(c.n)
	case "enter", " ":
		return c.tap(c.cursor)
	case "c":
		click, _ := clickFor(c.n, c.cursor)
		if click.Action == "" {
			c.status = "nothing to copy"
			return c, nil
		}
		return c, copyCmd(click.Action)
	default:
		if target, ok := digitTarget(key); ok && target <= len(c.n.Actions) {
			c.cursor = target
			return c.tap(target)
		}
	}
	return c, nil
}

func (c Card) tap(target int) (tea.Model, tea.Cmd) {
	cmd := routeCmd(c.ctx, c.handler, c.n, target, c.surface)
	if cmd == nil {
		return c, nil
	}
	c.routing = true
	c.status = "opening…"
	return c, cmd
}

func (c Card) View() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(renderCard(c.n, c.cursor, c.frame, c.width))
	b.WriteString("\n")
	if c.status != "" && c.result == nil {
		b.WriteString("  " + dimStyle.Render(c.status) + "\n")
	}
	if c.result != nil {
		b.WriteString("  " + renderResult(*c.result) + "\n")
	}
	help := []string{helpEntry("enter", "open"), helpEntry("←/→", "select")}
	if len(c.n.Actions) > 0 {
		help = append(help, helpEntry(fmt.Sprintf("1-%d", min(len(c.n.Actions), 9)), "action"))
	}
	help = append(help, helpEntry("c", "copy link"), helpEntry("q", "dismiss"))
	b.WriteString("\n  " + strings.Join(help, "  ") + "\n")
	return b.String()
}

// renderCard draws the notification with the selected tap target highlighted.
func renderCard(n *domain.Notification, cursor, frame, width int) string {
	inner := width - 6
	if inner < 20 {
		inner = 20
	}
	bar := accentStyle.Render(" │ ")

	label := "notification"
	if n.From != "" {
		label += " · " + truncStr(n.From, 24)
	}

	var b strings.Builder
	b.WriteString(cardBorder("top", metaStyle.Render(label), cardColor, frame, width) + "\n")

	title := cleanLine(n.Title)
	if title == "" {
		title = "(untitled)"
	}
	b.WriteString(bar + selectedStyle.Render(truncStr(title, inner)) + "\n")
	for _, line := range wrap(n.Body, inner) {
		b.WriteString(bar + normalStyle.Render(line) + "\n")
	}
	if n.IconURL != "" {
		b.WriteString(bar + metaStyle.Render("icon  "+truncStr(n.IconURL, inner-6)) + "\n")
	}
	if n.ImageURL != "" {
		b.WriteString(bar + metaStyle.Render("image "+truncStr(n.ImageURL, inner-6)) + "\n")
	}
	if n.ClickAction != "" {
		b.WriteString(bar + dimStyle.Render("→ ") + linkStyle.Render(truncStr(n.ClickAction, inner-2)) + "\n")
	}

	buttons := []string{renderButton("open", cursor == 0)}
	for i, a := range n.Actions {
		buttons = append(buttons, renderButton(fmt.Sprintf("%d %s", i+1, truncStr(a.Title, 20)), cursor == i+1))
	}
	b.WriteString(bar + "\n")
	b.WriteString(bar + strings.Join(buttons, " ") + "\n")
	b.WriteString(cardBorder("bottom", "", cardColor, frame, width))
	return b.String()
}

func renderButton(label string, selected bool) string {
	if selected {
		return buttonSelectedStyle.Render(label)
	}
	return buttonStyle.Render(label)
}

// renderResult summarizes where a tap went.
func renderResult(res push.RouteResult) string {
	var parts []string
	if res.Tracked {
		if res.TrackErr != nil {
			parts = append(parts, rejectStyle.Render("tracking failed"))
		} else {
			parts = append(parts, dimStyle.Render("tracked"))
		}
	}
	out := redirectStyle(string(res.Redirect)).Render(string(res.Redirect))
	if res.Target != "" {
		out += " " + metaStyle.Render(res.Target)
	}
	parts = append(parts, out)
	if res.Err != nil {
		parts = append(parts, rejectStyle.Render(res.Err.Error()))
	}
	return strings.Join(parts, dimStyle.Render(" · "))
}
