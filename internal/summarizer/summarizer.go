// Package summarizer wraps the generative-model providers used for post summaries.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/observability"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Generation settings shared by every provider.
const (
	Temperature     float32 = 0.3
	MaxOutputTokens int32   = 100
)

var (
	// ErrConfiguration means the provider rejected our credentials or setup.
	ErrConfiguration = errors.New("ai provider configuration error")
	// ErrQuota means the provider is rate limiting or out of quota.
	ErrQuota = errors.New("ai provider quota exceeded")
	// ErrGeneration covers every other provider failure.
	ErrGeneration = errors.New("ai provider generation failed")
)

// Generator produces a completion for a single prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Provider() string
}

// New builds the generator selected by cfg.AIProvider.
func New(ctx context.Context, cfg *config.Config) (Generator, error) {
	var (
		g   Generator
		err error
	)
	switch cfg.AIProvider {
	case ProviderOpenAI:
		g = NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
	case ProviderGemini, "":
		g, err = NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	default:
		return nil, fmt.Errorf("unsupported AI_PROVIDER %q", cfg.AIProvider)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(g), nil
}

// Classify maps a raw provider error onto ErrConfiguration, ErrQuota or
// ErrGeneration, keeping the original in the chain.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrConfiguration) || errors.Is(err, ErrQuota) || errors.Is(err, ErrGeneration) {
		return err
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "api_key") || strings.Contains(msg, "api key") ||
		strings.Contains(msg, "401") || strings.Contains(msg, "permission denied"):
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	case strings.Contains(msg, "quota") || strings.Contains(msg, "rate") ||
		strings.Contains(msg, "429") || strings.Contains(msg, "exhausted"):
		return fmt.Errorf("%w: %v", ErrQuota, err)
	default:
		return fmt.Errorf("%w: %v", ErrGeneration, err)
	}
}

type instrumented struct {
	next Generator
}

// Instrument records latency, outcome and a client span around every call.
func Instrument(g Generator) Generator {
	return &instrumented{next: g}
}

func (i *instrumented) Provider() string { return i.next.Provider() }

func (i *instrumented) Generate(ctx context.Context, prompt string) (string, error) {
	provider := i.next.Provider()
	ctx, span := observability.StartClientSpan(ctx, provider, "generate")
	defer span.End()

	start := time.Now()
	out, err := i.next.Generate(ctx, prompt)
	observability.AISummaryLatency.WithLabelValues(provider).Observe(time.Since(start).Seconds())

	if err != nil {
		err = Classify(err)
		span.RecordError(err)
		outcome := "error"
		switch {
		case errors.Is(err, ErrConfiguration):
			outcome = "config_error"
		case errors.Is(err, ErrQuota):
			outcome = "quota"
		}
		observability.AISummaryRequests.WithLabelValues(provider, outcome).Inc()
		return "", err
	}
	observability.AISummaryRequests.WithLabelValues(provider, "ok").Inc()
	return strings.TrimSpace(out), nil
}
