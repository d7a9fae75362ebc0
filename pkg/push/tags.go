package push

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

const (
	// PrefsNamespace is the KV namespace every persisted value lives under.
	PrefsNamespace = "LaraPushPrefs"
	// TagsKey holds the JSON-encoded developer tag list.
	TagsKey = "developer_tags"
)

// KV is the durable key-value storage behind the tag set.
// Get reports ok=false for an absent key.
type KV interface {
	Get(ctx context.Context, namespace, key string) (value string, ok bool, err error)
	Put(ctx context.Context, namespace, key, value string) error
	Delete(ctx context.Context, namespace, key string) error
}

// TagSet is a set of case-sensitive tags.
type TagSet map[string]struct{}

// NewTagSet builds a set from tags, normalizing each one.
func NewTagSet(tags ...string) TagSet {
	s := make(TagSet, len(tags))
	for _, t := range tags {
		if t = normalizeTag(t); t != "" {
			s[t] = struct{}{}
		}
	}
	return s
}

// Has reports whether tag is in the set.
func (s TagSet) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

// Slice returns the tags in sorted order.
func (s TagSet) Slice() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Equal reports whether both sets hold the same tags.
func (s TagSet) Equal(o TagSet) bool {
	if len(s) != len(o) {
		return false
	}
	for t := range s {
		if !o.Has(t) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (s TagSet) Clone() TagSet {
	c := make(TagSet, len(s))
	for t := range s {
		c[t] = struct{}{}
	}
	return c
}

// normalizeTag trims surrounding whitespace. Case is preserved.
func normalizeTag(t string) string {
	return strings.TrimSpace(t)
}

// TagStore keeps the developer tag set in a KV store. Every read goes to the
// store, so edits made by another process sharing it are seen. Mutations are
// a serialized read-modify-write that persists before it reports a change.
type TagStore struct {
	mu     sync.Mutex
	kv     KV
	logger *slog.Logger
}

// NewTagStore creates a TagStore over kv.
func NewTagStore(kv KV, logger *slog.Logger) *TagStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &TagStore{kv: kv, logger: logger}
}

// Add unions tags into the set. changed is true only when the persisted set
// was modified.
func (s *TagStore) Add(ctx context.Context, tags ...string) (changed bool, err error) {
	return s.mutate(ctx, func(cur TagSet) TagSet {
		next := cur.Clone()
		for t := range NewTagSet(tags...) {
			next[t] = struct{}{}
		}
		return next
	})
}

// Remove deletes tags from the set.
func (s *TagStore) Remove(ctx context.Context, tags ...string) (changed bool, err error) {
	return s.mutate(ctx, func(cur TagSet) TagSet {
		next := cur.Clone()
		for t := range NewTagSet(tags...) {
			delete(next, t)
		}
		return next
	})
}

// Clear empties the set.
func (s *TagStore) Clear(ctx context.Context) (changed bool, err error) {
	return s.mutate(ctx, func(TagSet) TagSet {
		return TagSet{}
	})
}

// Current returns a snapshot of the set.
func (s *TagStore) Current(ctx context.Context) TagSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, err := s.load(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "read tags failed", "err", err)
		return TagSet{}
	}
	return cur
}

func (s *TagStore) mutate(ctx context.Context, fn func(TagSet) TagSet) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	next := fn(cur)
	if next.Equal(cur) {
		return false, nil
	}
	data, err := json.Marshal(next.Slice())
	if err != nil {
		return false, fmt.Errorf("push.TagStore: marshal tags: %w", err)
	}
	if err := s.kv.Put(ctx, PrefsNamespace, TagsKey, string(data)); err != nil {
		return false, fmt.Errorf("push.TagStore: persist tags: %w", err)
	}
	return true, nil
}

// load must be called with mu held. A corrupt stored value yields an empty
// set, which the next effective mutation overwrites. A failed read is
// returned so mutations never clobber tags they could not see.
func (s *TagStore) load(ctx context.Context) (TagSet, error) {
	raw, ok, err := s.kv.Get(ctx, PrefsNamespace, TagsKey)
	if err != nil {
		return nil, fmt.Errorf("push.TagStore: read tags: %w", err)
	}
	if !ok {
		return TagSet{}, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		s.logger.WarnContext(ctx, "stored tags are corrupt, starting empty", "err", err)
		return TagSet{}, nil
	}
	return NewTagSet(list...), nil
}
