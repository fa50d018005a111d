package completion

import "context"

// SecretStore resolves the provider credential.
type SecretStore interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// Provider sends a prompt to a chat completion API and returns every choice's reply.
type Provider interface {
	Complete(ctx context.Context, apiKey, prompt string) ([]string, error)
	HealthCheck(ctx context.Context, apiKey string) error
	Model() string
}
