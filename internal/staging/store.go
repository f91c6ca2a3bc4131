// Package staging stores raw per-run CSV snapshots and finds the most
// recent one for an endpoint.
package staging

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ErrNoSnapshot is returned when no object matches an endpoint's prefix.
var ErrNoSnapshot = errors.New("no staged snapshot")

// Store is an object store addressed by slash-separated names.
type Store interface {
	Put(ctx context.Context, name string, data []byte) error
	// List returns the names under prefix, in no particular order.
	List(ctx context.Context, prefix string) ([]string, error)
	Get(ctx context.Context, name string) ([]byte, error)
}

// ObjectName returns {endpoint}/{YYYY}/{MM}/{endpoint}_{YYYY-MM-DD_HHMMSS}.csv.
func ObjectName(endpoint string, t time.Time) string {
	return fmt.Sprintf("%s%s.csv", MonthPrefix(endpoint, t), t.Format("2006-01-02_150405"))
}

// MonthPrefix returns the prefix shared by every snapshot of endpoint
// taken in the month of t.
func MonthPrefix(endpoint string, t time.Time) string {
	return fmt.Sprintf("%s/%s/%s/%s_", endpoint, t.Format("2006"), t.Format("01"), endpoint)
}

// Latest returns the lexicographically greatest object name for endpoint
// within the month of now.
func Latest(ctx context.Context, s Store, endpoint string, now time.Time) (string, error) {
	prefix := MonthPrefix(endpoint, now)
	names, err := s.List(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("list %q: %w", prefix, err)
	}
	if len(names) == 0 {
		return "", fmt.Errorf("%w: prefix %q", ErrNoSnapshot, prefix)
	}
	latest := names[0]
	for _, n := range names[1:] {
		if n > latest {
			latest = n
		}
	}
	return latest, nil
}

// MemoryStore keeps objects in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (m *MemoryStore) Put(_ context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[name] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var names []string
	for n := range m.objects {
		if len(n) >= len(prefix) && n[:len(prefix)] == prefix {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemoryStore) Get(_ context.Context, name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[name]
	if !ok {
		return nil, fmt.Errorf("object %q: not found", name)
	}
	return append([]byte(nil), data...), nil
}
