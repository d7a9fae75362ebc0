package domain

// Subscription is the token + tag snapshot registered with the panel.
type Subscription struct {
	Domain string   `json:"domain"`
	Token  string   `json:"token"`
	URL    string   `json:"url"`
	Tags   []string `json:"tags"`
}

// Message is an inbound push message as delivered by the transport.
// Data carries the raw string fields; the "notification" field holds a
// JSON-encoded object.
type Message struct {
	From string            `json:"from,omitempty"`
	Data map[string]string `json:"data"`
}

// TokenEvent announces a freshly issued device token.
type TokenEvent struct {
	Token string `json:"token"`
}
