package capture

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/neilberkman/researchtrail/internal/core/enrich"
	"github.com/neilberkman/researchtrail/internal/core/models"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store that records every Set call
type memStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	sets    []map[string][]byte
	failSet error
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (m *memStore) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string][]byte{}
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			out[k] = append([]byte(nil), v...)
		}
	}
	return out, nil
}

func (m *memStore) Set(ctx context.Context, entries map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet != nil {
		return m.failSet
	}
	m.sets = append(m.sets, entries)
	for k, v := range entries {
		if v == nil {
			delete(m.data, k)
			continue
		}
		m.data[k] = append([]byte(nil), v...)
	}
	return nil
}

func (m *memStore) raw(key string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key]
}

func (m *memStore) lastSet() map[string][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets[len(m.sets)-1]
}

// fakeClock advances one second per call
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func sequentialIDs() func() string {
	ids := []string{"s1", "s2", "s3", "s4", "s5", "s6"}
	n := 0
	return func() string {
		id := ids[n]
		n++
		return id
	}
}

// stubEnricher returns a fixed result
type stubEnricher struct {
	mu    sync.Mutex
	title string
	err   error
	calls int
}

func (s *stubEnricher) Title(ctx context.Context, page enrich.Page) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.title, s.err
}

func (s *stubEnricher) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// blockingEnricher holds every call until release is closed
type blockingEnricher struct {
	release chan struct{}
	title   string
}

func (b *blockingEnricher) Title(ctx context.Context, page enrich.Page) (string, error) {
	select {
	case <-b.release:
		return b.title, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

var errUnavailable = errors.New("service unavailable")

func newTestEngine(t *testing.T, store Store, enricher TitleEnricher, opts ...Option) *Engine {
	t.Helper()
	base := []Option{
		WithClock(newClock().Now),
		WithIDGenerator(sequentialIDs()),
		WithLocation(time.UTC),
		WithExportDir(t.TempDir()),
	}
	e := New(store, enricher, append(base, opts...)...)
	t.Cleanup(e.Close)
	return e
}

func navigate(t *testing.T, e *Engine, tabID int, url string) bool {
	t.Helper()
	added, err := e.HandleNavigation(context.Background(), NavigationEvent{URL: url, TabID: tabID, WindowID: 1})
	require.NoError(t, err)
	return added
}

func pageURLs(s *models.Session) []string {
	urls := make([]string, len(s.Pages))
	for i, p := range s.Pages {
		urls[i] = p.URL
	}
	return urls
}

func pageOrders(s *models.Session) []int {
	orders := make([]int, len(s.Pages))
	for i, p := range s.Pages {
		orders[i] = p.Order
	}
	return orders
}
