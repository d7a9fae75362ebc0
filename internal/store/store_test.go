package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larapush/larapush-go/pkg/push"
)

// testKV runs the behavior every backend must share.
func testKV(t *testing.T, kv Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := kv.Get(ctx, "ns", "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Put(ctx, "ns", "k", `["a"]`))
	v, ok, err := kv.Get(ctx, "ns", "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `["a"]`, v)

	require.NoError(t, kv.Put(ctx, "ns", "k", `["a","b"]`))
	v, _, err = kv.Get(ctx, "ns", "k")
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, v)

	_, ok, err = kv.Get(ctx, "other", "k")
	require.NoError(t, err)
	assert.False(t, ok, "namespaces must be isolated")

	require.NoError(t, kv.Delete(ctx, "ns", "k"))
	_, ok, err = kv.Get(ctx, "ns", "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Delete(ctx, "ns", "never-set"))
}

func TestMemory(t *testing.T) {
	testKV(t, NewMemory())
}

func TestSQLite(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "prefs.db"))
	require.NoError(t, err)
	defer s.Close()
	testKV(t, s)
}

func TestSQLite_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prefs.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	tags := push.NewTagStore(s, nil)
	_, err = tags.Add(ctx, "news", "sports")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, []string{"news", "sports"}, push.NewTagStore(s, nil).Current(ctx).Slice())
}

func TestSQLite_SharedFileTagStores(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prefs.db")

	daemonKV, err := OpenSQLite(path)
	require.NoError(t, err)
	defer daemonKV.Close()
	cliKV, err := OpenSQLite(path)
	require.NoError(t, err)
	defer cliKV.Close()

	daemon := push.NewTagStore(daemonKV, nil)
	cli := push.NewTagStore(cliKV, nil)

	assert.Empty(t, daemon.Current(ctx))
	_, err = cli.Add(ctx, "news")
	require.NoError(t, err)
	assert.Equal(t, []string{"news"}, daemon.Current(ctx).Slice())

	// The daemon's own edit must keep the tag the CLI added.
	_, err = daemon.Add(ctx, "sports")
	require.NoError(t, err)
	assert.Equal(t, []string{"news", "sports"}, push.NewTagStore(cliKV, nil).Current(ctx).Slice())
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("LARAPUSH_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("LARAPUSH_TEST_REDIS_ADDR not set")
	}
	r, err := NewRedis(context.Background(), addr, "", 0, "larapush-test:"+t.Name()+":")
	require.NoError(t, err)
	defer r.Close()
	testKV(t, r)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	path := filepath.Join(t.TempDir(), "nested", "dir", "prefs.db")
	s, err = Open(ctx, Options{Path: path})
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &SQLite{}, s)
	assert.FileExists(t, path)

	_, err = Open(ctx, Options{Backend: "etcd"})
	assert.Error(t, err)
}
