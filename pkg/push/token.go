package push

import "context"

// TokenProvider issues the opaque device token the panel addresses this
// device by. Token may block until the transport hands one out.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
	// Invalidate drops the current token so the next Token call issues a new one.
	Invalidate(ctx context.Context) error
}

// PermissionChecker reports whether the host may currently display
// notifications.
type PermissionChecker interface {
	NotificationsEnabled(ctx context.Context) (bool, error)
}
