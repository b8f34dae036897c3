package memsource

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Adi0604/Water-Works/internal/domain"
	"github.com/Adi0604/Water-Works/internal/ports"
)

// MemSource is an in-memory data source. Rows can be added while sessions are
// running; each feed keeps the first row stored for a timestamp.
type MemSource struct {
	mu    sync.RWMutex
	name  string
	feeds map[string]map[int64]domain.Row
}

func New(name string) *MemSource {
	if name == "" {
		name = "memory"
	}
	return &MemSource{name: name, feeds: make(map[string]map[int64]domain.Row)}
}

// Add stores rows under feed and reports how many were new.
func (m *MemSource) Add(feed string, rows ...domain.Row) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.feeds[feed]
	if !ok {
		f = make(map[int64]domain.Row)
		m.feeds[feed] = f
	}
	added := 0
	for _, r := range rows {
		k := r.Timestamp.UnixNano()
		if _, dup := f[k]; dup {
			continue
		}
		f[k] = r
		added++
	}
	return added
}

func (m *MemSource) Name() string { return m.name }

func (m *MemSource) ListTimestamps(ctx context.Context, feed string) ([]time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	f := m.feeds[feed]
	out := make([]time.Time, 0, len(f))
	for _, r := range f {
		out = append(out, r.Timestamp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

func (m *MemSource) FetchRow(ctx context.Context, feed string, ts time.Time) (domain.Row, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Row{}, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.feeds[feed][ts.UnixNano()]
	if !ok || !r.Timestamp.Equal(ts) {
		return domain.Row{}, false, nil
	}
	return r, true, nil
}

// Len returns the number of rows held for feed.
func (m *MemSource) Len(feed string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.feeds[feed])
}

func (m *MemSource) Close() error { return nil }

var _ ports.DataSource = (*MemSource)(nil)
