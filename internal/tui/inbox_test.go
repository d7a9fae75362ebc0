package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/larapush/larapush-go/pkg/domain"
	"github.com/larapush/larapush-go/pkg/push"
)

func newTestInbox(h ClickHandler) Inbox {
	m := NewInbox(context.Background(), h, "larapush.message")
	m.width = 100
	m.height = 30
	return m
}

func deliver(t *testing.T, m tea.Model, titles ...string) tea.Model {
	t.Helper()
	for _, title := range titles {
		n := testNotification()
		n.ID = uuid.New()
		n.Title = title
		m, _ = m.Update(NotificationMsg{Notification: n, Received: time.Now()})
	}
	return m
}

func TestInboxNewestFirst(t *testing.T) {
	model := deliver(t, newTestInbox(&recordingHandler{}), "first", "second", "third")
	m := model.(Inbox)

	if len(m.items) != 3 {
		t.Fatalf("items = %d, want 3", len(m.items))
	}
	if m.items[0].n.Title != "third" {
		t.Errorf("items[0] = %q, want third", m.items[0].n.Title)
	}
	view := m.View()
	if !strings.Contains(view, "3 notifications") {
		t.Error("View() missing count")
	}
	if strings.Index(view, "third") > strings.Index(view, "first") {
		t.Error("newest notification should be listed first")
	}
}

func TestInboxIgnoresNilNotification(t *testing.T) {
	model, _ := newTestInbox(&recordingHandler{}).Update(NotificationMsg{})
	if n := len(model.(Inbox).items); n != 0 {
		t.Errorf("items = %d, want 0", n)
	}
}

func TestInboxEmptyView(t *testing.T) {
	view := newTestInbox(&recordingHandler{}).View()
	if !strings.Contains(view, "waiting for notifications") {
		t.Error("empty inbox should show the waiting hint")
	}
	if !strings.Contains(view, "0 notifications") {
		t.Error("empty inbox should show a zero count")
	}
}

func TestInboxNavigation(t *testing.T) {
	model := deliver(t, newTestInbox(&recordingHandler{}), "a", "b", "c")

	model, _ = model.Update(keyRunes("j"))
	model, _ = model.Update(keyRunes("j"))
	model, _ = model.Update(keyRunes("j"))
	if got := model.(Inbox).cursor; got != 2 {
		t.Errorf("cursor after 3x j = %d, want 2 (clamped)", got)
	}
	model, _ = model.Update(keyRunes("k"))
	if got := model.(Inbox).cursor; got != 1 {
		t.Errorf("cursor after k = %d, want 1", got)
	}
}

func TestInboxCursorFollowsSelectionOnArrival(t *testing.T) {
	model := deliver(t, newTestInbox(&recordingHandler{}), "a", "b")
	model, _ = model.Update(keyRunes("j")) // on "a"
	model = deliver(t, model, "c")

	m := model.(Inbox)
	item, ok := m.selected()
	if !ok || item.n.Title != "a" {
		t.Errorf("selected = %+v, want a", item)
	}
}

func TestInboxOpenDismissesRoutedItem(t *testing.T) {
	h := &recordingHandler{result: push.RouteResult{Redirect: push.RedirectExternal}}
	model := deliver(t, newTestInbox(h), "older", "newer")

	model, cmd := model.Update(keyRunes("o"))
	if !model.(Inbox).routing {
		t.Fatal("expected routing=true")
	}
	model, cmd = runCmd(t, model, cmd)
	if cmd != nil {
		t.Error("inbox should stay open after routing")
	}

	m := model.(Inbox)
	if len(h.clicks) != 1 || h.clicks[0].Action != "https://shop.example.com/sale" {
		t.Fatalf("clicks = %+v", h.clicks)
	}
	if len(m.items) != 1 || m.items[0].n.Title != "older" {
		t.Fatalf("items after routing = %d, want only older", len(m.items))
	}
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}
	if m.last == nil || m.last.Redirect != push.RedirectExternal {
		t.Errorf("last = %+v", m.last)
	}
	if !strings.Contains(m.View(), "external") {
		t.Error("list should show the last redirect")
	}
}

func TestInboxKeepsItemWhenSurfaceStaysOpen(t *testing.T) {
	h := &recordingHandler{result: push.RouteResult{Redirect: push.RedirectExternal}, keepOpen: true}
	model := deliver(t, newTestInbox(h), "only")

	model, cmd := model.Update(keyRunes("o"))
	model, _ = runCmd(t, model, cmd)

	m := model.(Inbox)
	if len(m.items) != 1 {
		t.Fatalf("items = %d, want 1", len(m.items))
	}
	if m.items[0].result == nil || m.items[0].result.Redirect != push.RedirectExternal {
		t.Errorf("result = %+v", m.items[0].result)
	}
}

func TestInboxDetailActions(t *testing.T) {
	h := &recordingHandler{result: push.RouteResult{Redirect: push.RedirectActivity, Target: "CartActivity"}}
	model := deliver(t, newTestInbox(h), "sale")

	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !model.(Inbox).detail {
		t.Fatal("enter should open the detail view")
	}
	if !strings.Contains(model.View(), "1 Cart") {
		t.Error("detail view should render action buttons")
	}

	model, cmd := model.Update(keyRunes("1"))
	model, _ = runCmd(t, model, cmd)
	if len(h.clicks) != 1 || h.clicks[0].Action != "activity://CartActivity" {
		t.Fatalf("clicks = %+v", h.clicks)
	}
	m := model.(Inbox)
	if m.detail {
		t.Error("detail view should close once the notification is handled")
	}
	if len(m.items) != 0 {
		t.Errorf("items = %d, want 0", len(m.items))
	}
	if !strings.Contains(m.View(), "CartActivity") {
		t.Error("list should show the routing result")
	}
}

func TestInboxDetailBack(t *testing.T) {
	model := deliver(t, newTestInbox(&recordingHandler{}), "sale")
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if model.(Inbox).detail {
		t.Error("esc should return to the list")
	}
}

func TestInboxDismissItem(t *testing.T) {
	model := deliver(t, newTestInbox(&recordingHandler{}), "a", "b")
	model, _ = model.Update(keyRunes("j"))
	model, _ = model.Update(keyRunes("x"))

	m := model.(Inbox)
	if len(m.items) != 1 || m.items[0].n.Title != "b" {
		t.Fatalf("items after dismiss = %d", len(m.items))
	}
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}
}

func TestInboxQuit(t *testing.T) {
	_, cmd := newTestInbox(&recordingHandler{}).Update(keyRunes("q"))
	if cmd == nil {
		t.Fatal("expected quit command on 'q'")
	}
}

func TestInboxTapWithoutItems(t *testing.T) {
	_, cmd := newTestInbox(&recordingHandler{}).Update(keyRunes("o"))
	if cmd != nil {
		t.Error("open on an empty inbox should do nothing")
	}
}

func TestInboxAnimationRestartsOnArrival(t *testing.T) {
	var model tea.Model = newTestInbox(&recordingHandler{})
	for i := 0; i <= borderFrames; i++ {
		model, _ = model.Update(borderTickMsg{})
	}
	n := &domain.Notification{ID: uuid.New(), Title: "late"}
	model, cmd := model.Update(NotificationMsg{Notification: n})
	if cmd == nil {
		t.Error("a new notification should restart the border animation")
	}
	if model.(Inbox).frame != 0 {
		t.Errorf("frame = %d, want 0", model.(Inbox).frame)
	}
}
