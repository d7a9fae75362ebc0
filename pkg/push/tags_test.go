package push

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagStore_AddRemove(t *testing.T) {
	ctx := context.Background()
	s := NewTagStore(newMemKV(), nil)

	changed, err := s.Add(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = s.Remove(ctx, "b")
	require.NoError(t, err)
	assert.True(t, changed)

	assert.Equal(t, []string{"a"}, s.Current(ctx).Slice())
}

func TestTagStore_AddExistingIsNoop(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	s := NewTagStore(kv, nil)

	_, err := s.Add(ctx, "news")
	require.NoError(t, err)
	kv.putErr = errBoom // any further write would fail

	changed, err := s.Add(ctx, "news", " news ")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestTagStore_RemoveMissingAndClearEmpty(t *testing.T) {
	ctx := context.Background()
	s := NewTagStore(newMemKV(), nil)

	changed, err := s.Remove(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = s.Clear(ctx)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = s.Add(ctx, "x")
	require.NoError(t, err)
	changed, err = s.Clear(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Empty(t, s.Current(ctx))
}

func TestTagStore_OrderIrrelevant(t *testing.T) {
	ctx := context.Background()
	a := NewTagStore(newMemKV(), nil)
	b := NewTagStore(newMemKV(), nil)

	_, err := a.Add(ctx, "x", "y", "z")
	require.NoError(t, err)
	_, err = b.Add(ctx, "z", "x")
	require.NoError(t, err)
	_, err = b.Add(ctx, "y")
	require.NoError(t, err)

	assert.True(t, a.Current(ctx).Equal(b.Current(ctx)))
}

func TestTagStore_CaseSensitiveAndNormalized(t *testing.T) {
	ctx := context.Background()
	s := NewTagStore(newMemKV(), nil)

	_, err := s.Add(ctx, "News", "news", "  sports\t", "", "   ")
	require.NoError(t, err)
	assert.Equal(t, []string{"News", "news", "sports"}, s.Current(ctx).Slice())
}

func TestTagStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()

	first := NewTagStore(kv, nil)
	_, err := first.Add(ctx, "b", "a", "c")
	require.NoError(t, err)

	raw, ok, err := kv.Get(ctx, PrefsNamespace, TagsKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `["a","b","c"]`, raw)

	reloaded := NewTagStore(kv, nil)
	assert.True(t, first.Current(ctx).Equal(reloaded.Current(ctx)))
}

func TestTagStore_AbsentKeyIsEmpty(t *testing.T) {
	s := NewTagStore(newMemKV(), nil)
	assert.Empty(t, s.Current(context.Background()))
}

func TestTagStore_CorruptValueFailsSoft(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	require.NoError(t, kv.Put(ctx, PrefsNamespace, TagsKey, "{not json"))

	s := NewTagStore(kv, nil)
	assert.Empty(t, s.Current(ctx))

	changed, err := s.Add(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, changed)
	raw, _, _ := kv.Get(ctx, PrefsNamespace, TagsKey)
	assert.JSONEq(t, `["fresh"]`, raw)
}

func TestTagStore_ReadErrorBlocksMutation(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	require.NoError(t, kv.Put(ctx, PrefsNamespace, TagsKey, `["keep"]`))
	kv.getErr = errBoom

	s := NewTagStore(kv, nil)
	_, err := s.Add(ctx, "new")
	require.ErrorIs(t, err, errBoom)

	kv.getErr = nil
	assert.Equal(t, []string{"keep"}, s.Current(ctx).Slice())
}

func TestTagStore_PersistErrorLeavesSetUnchanged(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	s := NewTagStore(kv, nil)
	kv.putErr = errBoom

	changed, err := s.Add(ctx, "a")
	require.ErrorIs(t, err, errBoom)
	assert.False(t, changed)
	assert.Empty(t, s.Current(ctx))
}

func TestTagStore_ConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	s := NewTagStore(kv, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Add(ctx, fmt.Sprintf("tag-%02d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.Current(ctx), 50)
	assert.Len(t, NewTagStore(kv, nil).Current(ctx), 50)
}

func TestTagStore_SeesEditsFromOtherStores(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	daemon := NewTagStore(kv, nil)
	cli := NewTagStore(kv, nil)

	assert.Empty(t, daemon.Current(ctx))
	_, err := cli.Add(ctx, "news")
	require.NoError(t, err)
	assert.Equal(t, []string{"news"}, daemon.Current(ctx).Slice())

	_, err = daemon.Add(ctx, "sports")
	require.NoError(t, err)
	assert.Equal(t, []string{"news", "sports"}, cli.Current(ctx).Slice())
}
