package store

import (
	"context"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/i474232898/weather-data-collector/internal/report"
	"github.com/i474232898/weather-data-collector/internal/weather"
)

// MemoryStore is a concurrency-safe in-memory implementation of weather.Store.
// Rows do not outlive the process.
type MemoryStore struct {
	mu sync.RWMutex

	rows   []weather.Row
	nextID int64
	table  report.Table
	closed bool

	// maxRows caps the number of kept rows, oldest dropped first (0 = unlimited).
	maxRows int
}

// NewMemoryStore creates a new MemoryStore. If maxRows is <= 0, it is treated as unlimited.
func NewMemoryStore(maxRows int, opts Options) *MemoryStore {
	return &MemoryStore{
		nextID:  1,
		table:   opts.Table,
		maxRows: maxRows,
	}
}

// InsertBatch pairs the observations and appends the rows; an incomplete set appends nothing.
func (s *MemoryStore) InsertBatch(_ context.Context, set *weather.ObservationSet) (int, error) {
	rows, err := set.Rows()
	if err != nil {
		zap.L().Error("refusing to insert batch", zap.Error(err))
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}

	for _, r := range rows {
		r.ID = s.nextID
		s.nextID++
		s.rows = append(s.rows, r)
	}

	if s.maxRows > 0 && len(s.rows) > s.maxRows {
		over := len(s.rows) - s.maxRows
		s.rows = s.rows[over:]
	}
	return len(rows), nil
}

// All returns a copy of every kept row in insertion order.
func (s *MemoryStore) All(_ context.Context) ([]weather.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	out := make([]weather.Row, len(s.rows))
	copy(out, s.rows)
	return out, nil
}

// RenderAll writes every kept row as a text table to w.
func (s *MemoryStore) RenderAll(ctx context.Context, w io.Writer) error {
	rows, err := s.All(ctx)
	if err != nil {
		return err
	}
	return s.table.Render(w, rows)
}

// Close drops every row. Calling it more than once is a no-op.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.rows = nil
	return nil
}
