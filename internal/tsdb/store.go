// Package tsdb persists named scalar metrics by timestamp. It backs the
// /update and /csv auxiliary routes and is not part of the core metrics
// pipeline.
package tsdb

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Record is one persisted metric row.
type Record struct {
	MetricName string    `json:"metric_name"`
	Timestamp  time.Time `json:"timestamp"`
	Value      float64   `json:"value"`
}

// Store persists and queries metric records.
type Store interface {
	// Insert stores one record.
	Insert(ctx context.Context, rec Record) error

	// Select returns the records for name with since <= timestamp <= until,
	// ordered by timestamp.
	Select(ctx context.Context, name string, since, until time.Time) ([]Record, error)

	// Close releases the underlying connection.
	Close() error
}

// MemoryStore is an in-process Store for tests and store-less deployments.
type MemoryStore struct {
	mu   sync.Mutex
	recs []Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Insert implements Store.
func (s *MemoryStore) Insert(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
	return nil
}

// Select implements Store.
func (s *MemoryStore) Select(_ context.Context, name string, since, until time.Time) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Record
	for _, rec := range s.recs {
		if rec.MetricName != name {
			continue
		}
		if rec.Timestamp.Before(since) || rec.Timestamp.After(until) {
			continue
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}
