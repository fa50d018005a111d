package sitekit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/sitekit/internal/db"
	dbRedis "github.com/kailas-cloud/sitekit/internal/db/redis"
	dombatch "github.com/kailas-cloud/sitekit/internal/domain/batch"
	domcat "github.com/kailas-cloud/sitekit/internal/domain/catalog"
	domcompletion "github.com/kailas-cloud/sitekit/internal/domain/completion"
	"github.com/kailas-cloud/sitekit/internal/domain/search/category"
	"github.com/kailas-cloud/sitekit/internal/domain/search/filter"
	"github.com/kailas-cloud/sitekit/internal/repository/item"
	"github.com/kailas-cloud/sitekit/internal/secret"
	"github.com/kailas-cloud/sitekit/internal/session"
	"github.com/kailas-cloud/sitekit/internal/transport/openai"
	catalogsvc "github.com/kailas-cloud/sitekit/internal/usecase/catalog"
	completionuc "github.com/kailas-cloud/sitekit/internal/usecase/completion"
	healthuc "github.com/kailas-cloud/sitekit/internal/usecase/health"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, swapped out in tests.
type completionUseCase interface {
	GetCompletion(ctx context.Context, prompt string) domcompletion.Result
}

type catalogUseCase interface {
	Import(ctx context.Context, in []catalogsvc.ItemInput) ([]dombatch.Result, error)
	Get(ctx context.Context, id string) (domcat.Item, error)
	Delete(ctx context.Context, id string) error
}

type pageUseCase interface {
	Create(ctx context.Context) (*session.Session, error)
	Delete(id string)
	Close()
}

// catalogStore is implemented by both the Redis-backed and the in-memory item repositories.
type catalogStore interface {
	catalogsvc.Repository
	EnsureIndex(ctx context.Context) error
	Query(ctx context.Context, p filter.Predicate, offset, limit int) ([]domcat.Item, int, error)
}

// Client is the sitekit SDK entry point.
type Client struct {
	store      db.Store
	completion completionUseCase
	catalog    catalogUseCase
	pages      pageUseCase
	health     healthUseCase
	closers    []func()
	obs        *observer
}

// New creates a Client. With a Redis or Valkey driver it connects and waits for the
// database; the provided context bounds that readiness check and the index creation.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver != driverMemory && len(cfg.addrs) == 0 {
		return nil, errors.New("sitekit: database address required (use WithRedis, WithValkey or WithMemory)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	var store db.Store
	if cfg.driver != driverMemory {
		s, err := createStore(cfg)
		if err != nil {
			return nil, err
		}
		if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			s.Close()
			return nil, fmt.Errorf("sitekit: database not ready: %w", err)
		}
		store = s
	}

	c, err := wireClient(ctx, store, cfg, obs)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}
	return c, nil
}

func createStore(cfg *clientConfig) (*dbRedis.Store, error) {
	switch cfg.driver {
	case driverRedis, driverValkey:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:      cfg.addrs,
			Username:   cfg.username,
			Password:   cfg.password,
			DB:         cfg.db,
			Standalone: cfg.standalone,
		})
		if err != nil {
			return nil, fmt.Errorf("sitekit: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("sitekit: unknown driver %q", cfg.driver)
	}
}

func wireClient(ctx context.Context, store db.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	logger := cfg.zapLogger
	if logger == nil {
		logger = zap.NewNop()
	}

	// Pass nil interfaces (not typed nil pointers) when there is no database.
	var (
		repo   catalogStore
		pinger healthuc.DBPinger
	)
	secrets := secret.Chain{secret.Static(cfg.secrets)}
	if store != nil {
		repo = item.New(store, cfg.keyPrefix)
		secrets = append(secrets, secret.NewKV(store, cfg.keyPrefix))
		pinger = store
	} else {
		repo = item.NewMemory()
	}

	if err := repo.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("sitekit: ensure catalog index: %w", err)
	}

	c := &Client{store: store, obs: obs}

	var secretStore secret.Store = secrets
	if cfg.secretTTL > 0 {
		cached := secret.NewCached(secrets, cfg.secretTTL)
		secretStore = cached
		c.closers = append(c.closers, cached.Close)
	}

	chat := openai.NewChat(&openai.Config{
		BaseURL:    cfg.baseURL,
		Model:      cfg.model,
		HTTPClient: cfg.httpClient,
		Logger:     logger,
	})
	completionSvc := completionuc.New(secretStore, chat, cfg.secretName, logger)

	catalogSvc := catalogsvc.New(repo, logger)
	if cfg.maxBatchSize > 0 {
		catalogSvc = catalogSvc.WithMaxBatchSize(cfg.maxBatchSize)
	}

	pages := session.NewManager(repo, session.Config{
		TTL:      cfg.sessionTTL,
		PageSize: cfg.pageSize,
	}, logger)

	c.completion = completionSvc
	c.catalog = catalogSvc
	c.pages = pages
	c.health = healthuc.New(pinger, completionSvc)
	return c, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.pages != nil {
		c.pages.Close()
	}
	for _, fn := range c.closers {
		fn()
	}
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity. Always nil for the in-memory catalog.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if c.store == nil {
		return nil
	}
	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Complete sends prompt to the chat completion API and returns the first reply.
// Failures are reported in the Completion, never as a panic.
func (c *Client) Complete(ctx context.Context, prompt string) Completion {
	start := time.Now()
	res := c.completion.GetCompletion(ctx, prompt)

	var err error
	if !res.OK() {
		err = &domcompletion.Error{Kind: res.Kind(), Err: errors.New(res.Message())}
	}
	c.obs.observe("complete", start, err)

	return completionFromDomain(res)
}

// Import stores items. Items without an ID get a random one.
// The error is non-nil only when the whole batch is rejected; per-item failures are in the results.
func (c *Client) Import(ctx context.Context, items []Item) ([]BatchResult, error) {
	start := time.Now()

	in := make([]catalogsvc.ItemInput, len(items))
	for i, it := range items {
		in[i] = catalogsvc.ItemInput(it)
	}

	res, err := c.catalog.Import(ctx, in)
	if err != nil {
		err = fmt.Errorf("import: %w", err)
		c.obs.observe("import", start, err)
		return nil, err
	}

	status := statusOK
	if _, failed := dombatch.Count(res); failed > 0 {
		status = statusPartial
	}
	c.obs.record("import", start, status, nil)

	results := make([]BatchResult, len(res))
	for i, r := range res {
		results[i] = BatchResult{
			ID:  r.ID(),
			OK:  r.Status() == dombatch.StatusOK,
			Err: r.Err(),
		}
	}
	return results, nil
}

// GetItem returns one catalog item.
func (c *Client) GetItem(ctx context.Context, id string) (_ Item, err error) {
	start := time.Now()
	defer func() { c.obs.observe("get_item", start, err) }()

	it, err := c.catalog.Get(ctx, id)
	if err != nil {
		return Item{}, fmt.Errorf("get item: %w", err)
	}
	return itemFromDomain(it), nil
}

// DeleteItem removes one catalog item.
func (c *Client) DeleteItem(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("delete_item", start, err) }()

	if err = c.catalog.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// Categories returns the search categories in dropdown order.
func (c *Client) Categories() []string {
	all := category.All()
	out := make([]string, len(all))
	for i, cat := range all {
		out[i] = string(cat)
	}
	return out
}

// Search runs a single search on a throwaway page.
func (c *Client) Search(ctx context.Context, cat, text string) (Results, error) {
	p, err := c.NewPage(ctx)
	if err != nil {
		return Results{}, err
	}
	defer c.pages.Delete(p.ID())
	return p.Search(ctx, cat, text)
}

func completionFromDomain(r domcompletion.Result) Completion {
	return Completion{
		OK:      r.OK(),
		Content: r.Text(),
		Kind:    string(r.Kind()),
		Message: r.Message(),
		legacy:  r.String(),
	}
}

func itemFromDomain(it domcat.Item) Item {
	return Item{
		ID:          it.ID(),
		Title:       it.Title(),
		SKUs:        it.SKUs(),
		Description: it.Description(),
		MfgPartNos:  it.MfgPartNos(),
	}
}
