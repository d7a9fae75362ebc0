package push

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/larapush/larapush-go/pkg/domain"
)

// NotificationField is the message data field carrying the notification JSON.
const NotificationField = "notification"

var (
	// ErrNoNotification means the message has no notification field.
	ErrNoNotification = errors.New("message has no notification field")
	// ErrMalformed means the notification field is not a JSON object.
	ErrMalformed = errors.New("malformed notification")
)

// ParseMessage decodes the notification carried by msg. Action entries
// missing a title or click action are skipped; everything else about a bad
// payload fails the whole message.
func ParseMessage(msg domain.Message) (*domain.Notification, error) {
	raw, ok := msg.Data[NotificationField]
	if !ok {
		return nil, ErrNoNotification
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: not an object", ErrMalformed)
	}

	n := &domain.Notification{
		ID:          uuid.New(),
		From:        msg.From,
		Title:       optString(fields, "title"),
		Body:        optString(fields, "body"),
		IconURL:     optString(fields, "icon"),
		ImageURL:    optString(fields, "image"),
		ClickAction: optString(fields, "click_action"),
		TrackingURL: optString(fields, "api_url"),
	}

	var entries []json.RawMessage
	if json.Unmarshal(fields["actions"], &entries) != nil {
		return n, nil
	}
	for _, entry := range entries {
		if a, ok := parseAction(entry, n.TrackingURL); ok {
			n.Actions = append(n.Actions, a)
		}
	}
	return n, nil
}

func parseAction(raw json.RawMessage, defaultTracking string) (domain.Action, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return domain.Action{}, false
	}
	title, ok := getString(fields, "title")
	if !ok {
		return domain.Action{}, false
	}
	click, ok := getString(fields, "click_action")
	if !ok {
		return domain.Action{}, false
	}
	tracking, ok := getString(fields, "api_url")
	if !ok {
		tracking = defaultTracking
	}
	return domain.Action{Title: title, ClickAction: click, TrackingURL: tracking}, true
}

// optString returns the field as a string, or "" when it is absent or null.
func optString(fields map[string]json.RawMessage, key string) string {
	s, _ := getString(fields, key)
	return s
}

// getString reads a scalar field as a string. Numbers and booleans are
// returned in their JSON form; objects, arrays and null count as absent.
func getString(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok {
		return "", false
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	case 'n', '{', '[':
		return "", false
	default:
		return string(raw), true
	}
}
