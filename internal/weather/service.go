package weather

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CollectResult summarises one fetch-and-store cycle.
type CollectResult struct {
	RunID        string
	Observations int
	Inserted     int
}

// Service orchestrates fetching observations and persisting rows.
type Service struct {
	client *Client
	store  Store
}

// NewService creates a new Service.
func NewService(client *Client, store Store) *Service {
	return &Service{
		client: client,
		store:  store,
	}
}

// Collect fetches all targets, then inserts the paired rows as one batch.
// An incomplete fetch is reported as *IncompleteBatchError and nothing is stored.
func (s *Service) Collect(ctx context.Context) (CollectResult, error) {
	res := CollectResult{RunID: uuid.NewString()}
	zap.L().Info("collection started", zap.String("run_id", res.RunID), zap.Int("targets", len(s.client.Targets())))

	set := s.client.FetchObservations(ctx)
	res.Observations = set.Len()

	n, err := s.store.InsertBatch(ctx, set)
	if err != nil {
		return res, fmt.Errorf("collection %s: %w", res.RunID, err)
	}
	res.Inserted = n

	zap.L().Info("collection stored rows", zap.String("run_id", res.RunID), zap.Int("rows", n))
	return res, nil
}

// Report writes every stored row as a text table to w.
func (s *Service) Report(ctx context.Context, w io.Writer) error {
	return s.store.RenderAll(ctx, w)
}

// Rows delegates to the underlying store.
func (s *Service) Rows(ctx context.Context) ([]Row, error) {
	return s.store.All(ctx)
}
