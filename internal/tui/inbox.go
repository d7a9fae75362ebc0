package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/larapush/larapush-go/pkg/domain"
	"github.com/larapush/larapush-go/pkg/push"
)

// NotificationMsg delivers a decoded notification to the inbox. Send it with
// tea.Program.Send from whatever transport is listening.
type NotificationMsg struct {
	Notification *domain.Notification
	Received     time.Time
}

type inboxItem struct {
	n        *domain.Notification
	received time.Time
	result   *push.RouteResult
}

// Inbox lists notifications as they arrive, newest first. Taps are routed
// without closing the inbox; a notification whose surface the router closed
// is dismissed from the list.
type Inbox struct {
	ctx     context.Context
	handler ClickHandler
	source  string
	items   []inboxItem
	cursor  int
	detail  bool
	target  int
	routing bool
	status  string
	last    *push.RouteResult
	width   int
	height  int
	frame   int
}

// NewInbox creates an empty inbox. source is shown in the header, e.g. the
// NATS subject being listened on.
func NewInbox(ctx context.Context, h ClickHandler, source string) Inbox {
	return Inbox{ctx: ctx, handler: h, source: source, width: 80, height: 24}
}

func (m Inbox) Init() tea.Cmd {
	return borderTickCmd()
}

func (m Inbox) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case borderTickMsg:
		m.frame++
		if m.frame <= borderFrames {
			return m, borderTickCmd()
		}

	case NotificationMsg:
		if msg.Notification == nil {
			return m, nil
		}
		received := msg.Received
		if received.IsZero() {
			received = time.Now()
		}
		m.items = append([]inboxItem{{n: msg.Notification, received: received}}, m.items...)
		if len(m.items) > 1 && (m.cursor > 0 || m.detail) {
			m.cursor++
		}
		if m.frame > borderFrames {
			m.frame = 0
			return m, borderTickCmd()
		}

	case routedMsg:
		m.routing = false
		m.status = ""
		res := msg.result
		m.last = &res
		if msg.closed {
			m.remove(msg.id)
			m.detail = false
			break
		}
		for i := range m.items {
			if m.items[i].n.ID == msg.id {
				m.items[i].result = &res
			}
		}

	case copyResultMsg:
		if msg.err != nil {
			m.status = "copy failed: " + msg.err.Error()
		} else {
			m.status = "copied!"
		}

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.routing {
			return m, nil
		}
		if m.detail {
			return m.handleDetailKey(msg)
		}
		return m.handleListKey(msg)
	}
	return m, nil
}

func (m Inbox) selected() (*inboxItem, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return nil, false
	}
	return &m.items[m.cursor], true
}

func (m Inbox) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "j", "down":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "enter":
		if _, ok := m.selected(); ok {
			m.detail = true
			m.target = 0
			m.status = ""
		}
	case "o":
		return m.tap(0)
	case "x", "d":
		if _, ok := m.selected(); ok {
			m.items = append(m.items[:m.cursor], m.items[m.cursor+1:]...)
			if m.cursor >= len(m.items) && m.cursor > 0 {
				m.cursor--
			}
		}
	}
	return m, nil
}

func (m Inbox) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	item, ok := m.selected()
	if !ok {
		m.detail = false
		return m, nil
	}
	key := msg.String()
	switch key {
	case "esc", "q":
		m.detail = false
		m.status = ""
	case "right", "l", "tab":
		m.target = (m.target + 1) % targetCount(item.n)
	case "left", "h", "shift+tab":
		m.target = (m.target - 1 + targetCount(item.n)) % targetCount(item.n)
	case "enter", " ":
		return m.tap(m.target)
	case "c":
		click, _ := clickFor(item.n, m.target)
		if click.Action == "" {
			m.status = "nothing to copy"
			return m, nil
		}
		return m, copyCmd(click.Action)
	default:
		if target, ok := digitTarget(key); ok && target <= len(item.n.Actions) {
			m.target = target
			return m.tap(target)
		}
	}
	return m, nil
}

// remove drops the notification with id, keeping the cursor in range.
func (m *Inbox) remove(id uuid.UUID) {
	for i := range m.items {
		if m.items[i].n.ID != id {
			continue
		}
		m.items = append(m.items[:i], m.items[i+1:]...)
		if i < m.cursor || m.cursor >= len(m.items) {
			m.cursor = max(m.cursor-1, 0)
		}
		return
	}
}

func (m Inbox) tap(target int) (tea.Model, tea.Cmd) {
	item, ok := m.selected()
	if !ok {
		return m, nil
	}
	cmd := routeCmd(m.ctx, m.handler, item.n, target, nil)
	if cmd == nil {
		return m, nil
	}
	m.routing = true
	m.status = "opening…"
	return m, cmd
}

func (m Inbox) View() string {
	var b strings.Builder

	header := "  " + renderShimmer("LARAPUSH", m.frame)
	if m.source != "" {
		header += "  " + metaStyle.Render(m.source)
	}
	count := fmt.Sprintf("%d notification", len(m.items))
	if len(m.items) != 1 {
		count += "s"
	}
	b.WriteString("\n" + header + "  " + dimStyle.Render(count) + "\n\n")

	if m.detail {
		if item, ok := m.selected(); ok {
			card := renderCard(item.n, m.target, m.frame, m.width) + "\n"
			b.WriteString(truncateToHeight(card, max(m.height-8, 4)))
			if item.result != nil {
				b.WriteString("  " + renderResult(*item.result) + "\n")
			}
		}
	} else {
		b.WriteString(m.renderList())
		if m.last != nil {
			b.WriteString("\n  " + dimStyle.Render("last tap ") + renderResult(*m.last) + "\n")
		}
	}

	if m.status != "" {
		b.WriteString("\n  " + dimStyle.Render(m.status) + "\n")
	}
	b.WriteString("\n  " + m.helpBar() + "\n")
	return b.String()
}

func (m Inbox) renderList() string {
	if len(m.items) == 0 {
		return "  " + dimStyle.Render("waiting for notifications…") + "\n"
	}

	// Chrome: header(3) + status(2) + help(2)
	rows := max(m.height-7, 1)
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	end := min(start+rows, len(m.items))

	titleWidth := max(m.width/3, 12)
	var b strings.Builder
	for i := start; i < end; i++ {
		item := m.items[i]
		title := truncStr(cleanLine(item.n.Title), titleWidth)
		body := truncStr(cleanLine(item.n.Body), max(m.width-titleWidth-24, 8))

		prefix := "  "
		titleStyled := normalStyle.Render(fmt.Sprintf("%-*s", titleWidth, title))
		if i == m.cursor {
			prefix = accentStyle.Render("▸ ")
			titleStyled = selectedStyle.Render(fmt.Sprintf("%-*s", titleWidth, title))
		}
		row := prefix + titleStyled + "  " + dimStyle.Render(body) + "  " + metaStyle.Render(formatTime(item.received))
		if item.result != nil {
			row += "  " + redirectStyle(string(item.result.Redirect)).Render(string(item.result.Redirect))
		}
		if i == m.cursor {
			row = selectedRowBg.Render(row)
		}
		b.WriteString(row + "\n")
	}
	return b.String()
}

func (m Inbox) helpBar() string {
	var entries []string
	if m.detail {
		entries = []string{
			helpEntry("enter", "open"),
			helpEntry("←/→", "select"),
			helpEntry("1-9", "action"),
			helpEntry("c", "copy link"),
			helpEntry("esc", "back"),
		}
	} else {
		entries = []string{
			helpEntry("j/k", "nav"),
			helpEntry("enter", "details"),
			helpEntry("o", "open"),
			helpEntry("x", "dismiss"),
			helpEntry("q", "quit"),
		}
	}
	return strings.Join(entries, "  ")
}
