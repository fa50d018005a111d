package search

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/kailas-cloud/sitekit/internal/domain"
	"github.com/kailas-cloud/sitekit/internal/domain/search/category"
	"github.com/kailas-cloud/sitekit/internal/domain/search/filter"
	"github.com/kailas-cloud/sitekit/internal/metrics"
	"github.com/kailas-cloud/sitekit/internal/ui"
)

// Outcome describes what a search trigger did to the result set.
type Outcome string

// Search outcomes.
const (
	Applied         Outcome = "applied"
	Cleared         Outcome = "cleared"
	Failed          Outcome = "failed"
	Superseded      Outcome = "superseded"
	UnknownCategory Outcome = "unknown_category"
)

// Controller turns the search box and category dropdown into a filter on a result set.
type Controller struct {
	input    ValueSource
	category ValueSource
	results  ResultSet
	logger   *zap.Logger

	revision atomic.Uint64
}

// New creates a Controller over the given controls.
func New(input, category ValueSource, results ResultSet, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		input:    input,
		category: category,
		results:  results,
		logger:   logger,
	}
}

// Bind wires the button click and the Enter key of the input to Search.
func (c *Controller) Bind(button ClickSource, input KeySource) {
	button.OnClick(func(ctx context.Context) {
		c.Search(ctx)
	})
	input.OnKeyPress(func(ctx context.Context, key string) {
		if key == ui.KeyEnter {
			c.Search(ctx)
		}
	})
}

// Search reads the controls and applies the matching predicate.
// Blank text clears the filter whatever the category; an unknown category with
// non-blank text is logged and leaves the result set untouched.
func (c *Controller) Search(ctx context.Context) Outcome {
	text := strings.TrimSpace(c.input.Value())
	cat := category.Category(c.category.Value())

	var pred filter.Predicate
	if text != "" {
		p, ok := cat.Predicate(text)
		if !ok {
			c.logger.Error("unknown search category",
				zap.String("category", string(cat)),
				zap.Error(domain.ErrUnknownCategory),
			)
			return c.record(UnknownCategory)
		}
		pred = p
	}

	rev := c.revision.Add(1)
	if err := c.results.SetFilter(ctx, rev, pred); err != nil {
		if errors.Is(err, domain.ErrSuperseded) {
			c.logger.Debug("filter apply superseded",
				zap.Uint64("revision", rev),
				zap.Stringer("filter", pred),
			)
			return c.record(Superseded)
		}
		c.logger.Error("apply filter failed",
			zap.Uint64("revision", rev),
			zap.Stringer("filter", pred),
			zap.Error(err),
		)
		return c.record(Failed)
	}

	if pred.IsEmpty() {
		c.logger.Info("filter cleared", zap.Uint64("revision", rev))
		return c.record(Cleared)
	}
	c.logger.Info("filter applied",
		zap.Uint64("revision", rev),
		zap.String("category", string(cat)),
		zap.String("field", pred.Field()),
		zap.String("value", pred.Value()),
	)
	return c.record(Applied)
}

func (c *Controller) record(o Outcome) Outcome {
	metrics.FilterAppliesTotal.WithLabelValues(string(o)).Inc()
	return o
}
