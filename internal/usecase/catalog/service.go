package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/sitekit/internal/domain"
	dombatch "github.com/kailas-cloud/sitekit/internal/domain/batch"
	domcat "github.com/kailas-cloud/sitekit/internal/domain/catalog"
)

// MaxBatchSize is the default maximum number of items per import.
const MaxBatchSize = 1000

// ItemInput is one record of an import file or request.
type ItemInput struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	Title       string `json:"title" yaml:"title"`
	SKUs        string `json:"skUs" yaml:"skUs"`
	Description string `json:"itemDetailedDescription" yaml:"itemDetailedDescription"`
	MfgPartNos  string `json:"mfgPartNos" yaml:"mfgPartNos"`
}

// Service imports and reads catalog items with per-item error reporting.
type Service struct {
	repo         Repository
	maxBatchSize int
	logger       *zap.Logger
}

// New creates a catalog service.
func New(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, maxBatchSize: MaxBatchSize, logger: logger}
}

// WithMaxBatchSize configures the maximum batch size.
func (s *Service) WithMaxBatchSize(size int) *Service {
	if size > 0 {
		s.maxBatchSize = size
	}
	return s
}

// Import validates and stores items. Items without an ID get a random UUID.
// Oversized batches are rejected as a whole with domain.ErrBatchTooLarge.
func (s *Service) Import(ctx context.Context, in []ItemInput) ([]dombatch.Result, error) {
	if len(in) > s.maxBatchSize {
		return nil, fmt.Errorf("%d items exceeds %d: %w", len(in), s.maxBatchSize, domain.ErrBatchTooLarge)
	}

	results := make([]dombatch.Result, len(in))
	valid := make([]domcat.Item, 0, len(in))
	validIdx := make([]int, 0, len(in))

	for i, raw := range in {
		id := raw.ID
		if id == "" {
			id = uuid.NewString()
		}
		item, err := domcat.New(id, raw.Title, raw.SKUs, raw.Description, raw.MfgPartNos)
		if err != nil {
			results[i] = dombatch.NewError(id, err)
			continue
		}
		valid = append(valid, item)
		validIdx = append(validIdx, i)
	}

	if len(valid) > 0 {
		if err := s.repo.UpsertBatch(ctx, valid); err != nil {
			s.logger.Error("catalog import failed", zap.Int("items", len(valid)), zap.Error(err))
			for j, i := range validIdx {
				results[i] = dombatch.NewError(valid[j].ID(), fmt.Errorf("store item: %w", err))
			}
			return results, nil
		}
		for j, i := range validIdx {
			results[i] = dombatch.NewOK(valid[j].ID())
		}
	}

	ok, failed := dombatch.Count(results)
	s.logger.Info("catalog import finished", zap.Int("ok", ok), zap.Int("failed", failed))
	return results, nil
}

// Get returns one item.
func (s *Service) Get(ctx context.Context, id string) (domcat.Item, error) {
	it, err := s.repo.Get(ctx, id)
	if err != nil {
		return domcat.Item{}, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

// Delete removes one item.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}
