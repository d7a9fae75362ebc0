package token

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larapush/larapush-go/internal/store"
	"github.com/larapush/larapush-go/pkg/push"
)

func TestLocal_StableUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	p := NewLocal(kv)

	first, err := p.Token(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	again, err := p.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	// A second provider over the same store sees the persisted token.
	other, err := NewLocal(kv).Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, other)

	require.NoError(t, p.Invalidate(ctx))
	rotated, err := p.Token(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first, rotated)
}

type failingKV struct{ push.KV }

func (failingKV) Get(context.Context, string, string) (string, bool, error) {
	return "", false, errors.New("disk gone")
}

func TestLocal_ReadError(t *testing.T) {
	_, err := NewLocal(failingKV{}).Token(context.Background())
	assert.ErrorContains(t, err, "disk gone")
}

func TestStatic(t *testing.T) {
	tok, err := Static("abc").Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)
	assert.NoError(t, Static("abc").Invalidate(context.Background()))

	_, err = Static("").Token(context.Background())
	assert.Error(t, err)
}
