// Package session keeps live search pages keyed by id with an idle TTL.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"

	"github.com/kailas-cloud/sitekit/internal/dataset"
	"github.com/kailas-cloud/sitekit/internal/domain"
	"github.com/kailas-cloud/sitekit/internal/domain/search/category"
	"github.com/kailas-cloud/sitekit/internal/domain/search/filter"
	"github.com/kailas-cloud/sitekit/internal/metrics"
	"github.com/kailas-cloud/sitekit/internal/ui"
	"github.com/kailas-cloud/sitekit/internal/usecase/search"
)

// Event types accepted by Dispatch.
const (
	EventClick    = "click"
	EventKeyPress = "keypress"
)

// Event sets control values and fires one trigger.
// Nil Input or Category leave the current control value unchanged.
type Event struct {
	Type     string
	Key      string
	Input    *string
	Category *string
}

// Session is one page with its bound controller.
type Session struct {
	Page       *ui.Page
	Controller *search.Controller

	// mu serializes Dispatch so an event's trigger reads the values it set.
	mu sync.Mutex
}

// Dispatch applies the event to the page controls and returns the resulting view.
// Events on one session run one at a time.
func (s *Session) Dispatch(ctx context.Context, ev Event) (dataset.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.Input != nil {
		s.Page.Input.SetValue(*ev.Input)
	}
	if ev.Category != nil {
		s.Page.Category.SetValue(*ev.Category)
	}

	switch ev.Type {
	case EventClick:
		s.Page.Button.Click(ctx)
	case EventKeyPress:
		if ev.Key == "" {
			return dataset.Snapshot{}, fmt.Errorf("keypress event without key: %w", domain.ErrInvalidEvent)
		}
		s.Page.Input.Press(ctx, ev.Key)
	default:
		return dataset.Snapshot{}, fmt.Errorf("event type %q: %w", ev.Type, domain.ErrInvalidEvent)
	}
	return s.Page.Results.View(), nil
}

// Config tunes the session manager.
type Config struct {
	TTL         time.Duration
	MaxSessions uint64
	PageSize    int
}

// Manager creates and looks up page sessions.
type Manager struct {
	catalog  dataset.Querier
	pageSize int
	cache    *ttlcache.Cache[string, *Session]
	logger   *zap.Logger
}

// NewManager creates a Manager and starts its expiration loop.
// Reads refresh the TTL, so sessions expire after TTL of inactivity.
func NewManager(q dataset.Querier, cfg Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []ttlcache.Option[string, *Session]{
		ttlcache.WithTTL[string, *Session](cfg.TTL),
	}
	if cfg.MaxSessions > 0 {
		opts = append(opts, ttlcache.WithCapacity[string, *Session](cfg.MaxSessions))
	}
	c := ttlcache.New[string, *Session](opts...)

	c.OnInsertion(func(context.Context, *ttlcache.Item[string, *Session]) {
		metrics.PageSessionsActive.Inc()
	})
	c.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *Session]) {
		metrics.PageSessionsActive.Dec()
		logger.Debug("page session evicted", zap.String("page_id", item.Key()), zap.Int("reason", int(reason)))
	})
	go c.Start()

	return &Manager{catalog: q, pageSize: cfg.PageSize, cache: c, logger: logger}
}

// Create builds a new page, binds the search controller and loads the unfiltered view.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	id := uuid.NewString()
	results := dataset.New(m.catalog, m.pageSize)

	options := make([]string, 0, len(category.All()))
	for _, c := range category.All() {
		options = append(options, string(c))
	}
	page := ui.NewPage(id, results, options...)

	ctrl := search.New(page.Input, page.Category, results, m.logger.With(zap.String("page_id", id)))
	ctrl.Bind(page.Button, page.Input)

	if err := results.SetFilter(ctx, 0, filter.Empty()); err != nil {
		return nil, fmt.Errorf("load initial view: %w", err)
	}

	s := &Session{Page: page, Controller: ctrl}
	m.cache.Set(id, s, ttlcache.DefaultTTL)
	return s, nil
}

// Get returns a live session.
func (m *Manager) Get(id string) (*Session, error) {
	item := m.cache.Get(id)
	if item == nil {
		return nil, fmt.Errorf("page %q: %w", id, domain.ErrNotFound)
	}
	return item.Value(), nil
}

// Delete drops a session before its TTL runs out. Unknown ids are ignored.
func (m *Manager) Delete(id string) {
	m.cache.Delete(id)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int { return m.cache.Len() }

// Close stops the expiration loop.
func (m *Manager) Close() {
	m.cache.Stop()
}
