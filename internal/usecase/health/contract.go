package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// CompletionChecker checks chat completion provider availability.
type CompletionChecker interface {
	HealthCheck(ctx context.Context) error
}
