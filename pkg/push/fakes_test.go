package push

import (
	"context"
	"errors"
	"sync"

	"github.com/larapush/larapush-go/pkg/domain"
)

type memKV struct {
	mu     sync.Mutex
	data   map[string]string
	getErr error
	putErr error
}

func newMemKV() *memKV {
	return &memKV{data: make(map[string]string)}
}

func (m *memKV) Get(_ context.Context, ns, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.data[ns+"/"+key]
	return v, ok, nil
}

func (m *memKV) Put(_ context.Context, ns, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.data[ns+"/"+key] = value
	return nil
}

func (m *memKV) Delete(_ context.Context, ns, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, ns+"/"+key)
	return nil
}

type fakeTokens struct {
	mu            sync.Mutex
	token         string
	tokenErr      error
	invalidateErr error
	invalidated   int
	generation    int
}

func (f *fakeTokens) Token(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tokenErr != nil {
		return "", f.tokenErr
	}
	return f.token, nil
}

func (f *fakeTokens) Invalidate(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated++
	if f.invalidateErr != nil {
		return f.invalidateErr
	}
	f.generation++
	f.token = "token-" + string(rune('0'+f.generation))
	return nil
}

// fakePanel records every call in order.
type fakePanel struct {
	mu          sync.Mutex
	calls       []string
	subs        []domain.Subscription
	registerErr error
	trackErr    error
	block       bool
}

func (f *fakePanel) RegisterToken(ctx context.Context, sub domain.Subscription) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "register")
	f.subs = append(f.subs, sub)
	return f.registerErr
}

func (f *fakePanel) Track(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "track "+url)
	return f.trackErr
}

func (f *fakePanel) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakePanel) Subs() []domain.Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Subscription(nil), f.subs...)
}

// eventRecorder collects observed events.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) Observe(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) Kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]EventKind, 0, len(r.events))
	for _, ev := range r.events {
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}

var errBoom = errors.New("boom")
