package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/larapush/larapush-go/pkg/push"
)

// Store is a closable push.KV.
type Store interface {
	push.KV
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend       string // "sqlite", "redis" or "memory"
	Path          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Open builds the backend named by opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", "sqlite":
		if dir := filepath.Dir(opts.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("store.Open: create %s: %w", dir, err)
			}
		}
		return OpenSQLite(opts.Path)
	case "redis":
		return NewRedis(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.RedisPrefix)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("store.Open: unknown backend %q", opts.Backend)
	}
}
