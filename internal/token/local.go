// Package token issues device tokens for hosts that have no platform push
// transport of their own.
package token

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/larapush/larapush-go/pkg/push"
)

// Key is where the device token is persisted, under push.PrefsNamespace.
const Key = "device_token"

// Local mints a random token on first use and keeps it in a KV store until
// it is invalidated.
type Local struct {
	mu    sync.Mutex
	kv    push.KV
	newID func() string
}

// NewLocal creates a Local provider backed by kv.
func NewLocal(kv push.KV) *Local {
	return &Local{kv: kv, newID: func() string { return uuid.NewString() }}
}

// Token returns the stored token, minting and persisting one if needed.
func (l *Local) Token(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tok, ok, err := l.kv.Get(ctx, push.PrefsNamespace, Key)
	if err != nil {
		return "", fmt.Errorf("token.Local: read: %w", err)
	}
	if ok && tok != "" {
		return tok, nil
	}
	tok = l.newID()
	if err := l.kv.Put(ctx, push.PrefsNamespace, Key, tok); err != nil {
		return "", fmt.Errorf("token.Local: persist: %w", err)
	}
	return tok, nil
}

// Invalidate forgets the stored token.
func (l *Local) Invalidate(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.kv.Delete(ctx, push.PrefsNamespace, Key); err != nil {
		return fmt.Errorf("token.Local: delete: %w", err)
	}
	return nil
}

// Static always returns the same token; Invalidate is a no-op. Useful when
// the token is handed in from outside, e.g. via an environment variable.
type Static string

func (s Static) Token(context.Context) (string, error) {
	if s == "" {
		return "", fmt.Errorf("token.Static: empty token")
	}
	return string(s), nil
}

func (Static) Invalidate(context.Context) error { return nil }
