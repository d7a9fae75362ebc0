package domain

import (
	"strings"

	"github.com/google/uuid"
)

// ActivityScheme prefixes click actions that navigate inside the host app.
const ActivityScheme = "activity://"

// Notification is the display + action model decoded from a push message.
type Notification struct {
	ID          uuid.UUID `json:"id"`
	From        string    `json:"from,omitempty"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	IconURL     string    `json:"icon,omitempty"`
	ImageURL    string    `json:"image,omitempty"`
	ClickAction string    `json:"click_action,omitempty"`
	TrackingURL string    `json:"api_url,omitempty"`
	Actions     []Action  `json:"actions,omitempty"`
}

// Action is a notification button.
type Action struct {
	Title       string `json:"title"`
	ClickAction string `json:"click_action"`
	TrackingURL string `json:"api_url,omitempty"`
}

// Click is what a tap hands to the click router.
type Click struct {
	Action      string `json:"click_action,omitempty"`
	TrackingURL string `json:"api_url,omitempty"`
}

// Click returns the context for tapping the notification body.
func (n *Notification) Click() Click {
	return Click{Action: n.ClickAction, TrackingURL: n.TrackingURL}
}

// Click returns the context for tapping this action button.
func (a Action) Click() Click {
	return Click{Action: a.ClickAction, TrackingURL: a.TrackingURL}
}

// Activity reports the local activity name when the action uses the
// activity:// scheme.
func (c Click) Activity() (string, bool) {
	if !strings.HasPrefix(c.Action, ActivityScheme) {
		return "", false
	}
	return strings.TrimPrefix(c.Action, ActivityScheme), true
}
