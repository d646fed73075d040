package weather

import (
	"context"
	"io"
)

// Provider abstracts the current-weather source (OpenWeatherMap in production,
// fakes in tests).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, target Target) (Observation, error)
}

// Store is the contract the SQL store (and the in-memory store) must satisfy.
type Store interface {
	InsertBatch(ctx context.Context, set *ObservationSet) (int, error)
	All(ctx context.Context) ([]Row, error)
	RenderAll(ctx context.Context, w io.Writer) error
	Close() error
}
