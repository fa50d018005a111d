package completion

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	domcompletion "github.com/kailas-cloud/sitekit/internal/domain/completion"
	"github.com/kailas-cloud/sitekit/internal/metrics"
)

// DefaultSecretName is the secret holding the provider API key.
const DefaultSecretName = "openai_api_key"

// Service proxies prompts to the chat completion provider.
type Service struct {
	secrets    SecretStore
	provider   Provider
	secretName string
	logger     *zap.Logger
}

// New creates a Service. An empty secretName falls back to DefaultSecretName.
func New(secrets SecretStore, provider Provider, secretName string, logger *zap.Logger) *Service {
	if secretName == "" {
		secretName = DefaultSecretName
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		secrets:    secrets,
		provider:   provider,
		secretName: secretName,
		logger:     logger,
	}
}

// GetCompletion sends the prompt and returns the first reply or a classified failure.
// It never returns an error: every failure is folded into the Result.
func (s *Service) GetCompletion(ctx context.Context, prompt string) (res domcompletion.Result) {
	defer func() {
		if p := recover(); p != nil {
			res = s.fail(domcompletion.KindTransport, fmt.Sprintf("panic: %v", p))
		}
		metrics.CompletionRequestsTotal.WithLabelValues(s.provider.Model(), outcome(res)).Inc()
	}()

	apiKey, err := s.secrets.GetSecret(ctx, s.secretName)
	if err != nil {
		return s.fail(domcompletion.KindSecret, err.Error())
	}

	replies, err := s.provider.Complete(ctx, apiKey, prompt)
	if err != nil {
		return s.fail(domcompletion.KindOf(err), err.Error())
	}

	if len(replies) == 0 {
		s.logger.Warn("chat completion returned no choices", zap.String("model", s.provider.Model()))
		return domcompletion.NoChoices()
	}

	return domcompletion.Success(replies[0])
}

// HealthCheck resolves the credential and probes the provider.
func (s *Service) HealthCheck(ctx context.Context) error {
	apiKey, err := s.secrets.GetSecret(ctx, s.secretName)
	if err != nil {
		return fmt.Errorf("resolve api key: %w", err)
	}
	return s.provider.HealthCheck(ctx, apiKey) //nolint:wrapcheck // provider already wraps
}

func (s *Service) fail(kind domcompletion.Kind, msg string) domcompletion.Result {
	s.logger.Warn("chat completion failed",
		zap.String("kind", string(kind)),
		zap.String("model", s.provider.Model()),
		zap.String("error", msg),
	)
	return domcompletion.Failure(kind, msg)
}

func outcome(r domcompletion.Result) string {
	if r.OK() {
		return "ok"
	}
	return string(r.Kind())
}
