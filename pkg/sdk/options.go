package sitekit

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

const (
	driverMemory = "memory"
	driverRedis  = "redis"
	driverValkey = "valkey"
)

type clientConfig struct {
	driver     string // "memory", "redis" or "valkey"
	addrs      []string
	username   string
	password   string
	db         int
	standalone bool
	keyPrefix  string

	baseURL    string
	model      string
	httpClient *http.Client
	secretName string
	secrets    map[string]string
	secretTTL  time.Duration

	pageSize     int
	maxBatchSize int
	sessionTTL   time.Duration

	logger     *slog.Logger
	zapLogger  *zap.Logger
	metricsReg prometheus.Registerer
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		driver:     driverMemory,
		keyPrefix:  "sitekit:",
		model:      "gpt-4",
		secrets:    map[string]string{},
		pageSize:   50,
		sessionTTL: 30 * time.Minute,
	}
}

// WithMemory keeps the catalog in process memory. This is the default.
func WithMemory() Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverMemory
		c.addrs = nil
	})
}

// WithRedis configures the client to connect to a Redis instance with the search module.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverRedis
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithValkey configures the client to connect to a Valkey instance with the search module.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverValkey
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithAddrs replaces the seed addresses of a Redis or Valkey deployment.
func WithAddrs(addrs ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = append([]string(nil), addrs...)
	})
}

// WithUsername sets the ACL user.
func WithUsername(username string) Option {
	return optionFunc(func(c *clientConfig) {
		c.username = username
	})
}

// WithDB selects the logical database. Ignored by clusters.
func WithDB(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.db = n
	})
}

// WithStandalone disables cluster topology discovery.
func WithStandalone() Option {
	return optionFunc(func(c *clientConfig) {
		c.standalone = true
	})
}

// WithKeyPrefix sets the prefix of every key the client writes. Default: "sitekit:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithOpenAI sets the chat completion API root and model.
// Empty values keep the defaults (https://api.openai.com/v1, gpt-4).
func WithOpenAI(baseURL, model string) Option {
	return optionFunc(func(c *clientConfig) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
		if model != "" {
			c.model = model
		}
	})
}

// WithHTTPClient sets the HTTP client used for completion requests.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithSecret stores a secret value in memory. It wins over secrets kept in the database.
func WithSecret(name, value string) Option {
	return optionFunc(func(c *clientConfig) {
		c.secrets[name] = value
	})
}

// WithSecretName sets the name of the completion API key secret. Default: "openai_api_key".
func WithSecretName(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.secretName = name
	})
}

// WithSecretCache caches resolved secrets for ttl. Zero disables caching (default).
func WithSecretCache(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.secretTTL = ttl
	})
}

// WithPageSize sets how many items a search result holds. Default: 50.
func WithPageSize(n int) Option {
	return optionFunc(func(c *clientConfig) {
		if n > 0 {
			c.pageSize = n
		}
	})
}

// WithMaxBatchSize sets the maximum number of items per import. Default: 1000.
func WithMaxBatchSize(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxBatchSize = size
	})
}

// WithSessionTTL sets how long an idle search page is kept. Default: 30m.
func WithSessionTTL(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		if ttl > 0 {
			c.sessionTTL = ttl
		}
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithZapLogger sets the logger handed to the internal components.
func WithZapLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.zapLogger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
