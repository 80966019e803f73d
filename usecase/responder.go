package usecase

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/Divya4879/Sassy-AI-Debate-Coach/domain"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/utils/log"
	"go.uber.org/zap"
)

const DefaultProviderTimeout = 30 * time.Second

// Generator produces persona replies. The Responder is the production one.
type Generator interface {
	Generate(ctx context.Context, prompt string, persona domain.Persona, preferPrimary bool) domain.ProviderResult
}

// Plan returns the stages the fallback chain will attempt, in order. It
// always ends with the mock stage.
func Plan(primaryConfigured, secondaryConfigured, preferPrimary bool) []domain.Source {
	plan := make([]domain.Source, 0, 3)
	if primaryConfigured && preferPrimary {
		plan = append(plan, domain.SourcePrimary)
	}
	if secondaryConfigured {
		plan = append(plan, domain.SourceSecondary)
	}
	return append(plan, domain.SourceMock)
}

// StatusCoder is implemented by provider errors that carry an HTTP status.
type StatusCoder interface {
	StatusCode() int
}

// Responder walks primary → secondary → mock and never returns an error.
type Responder struct {
	primary   domain.Llm
	secondary domain.Llm
	mock      *MockResponder
	timeout   time.Duration
}

// NewResponder accepts nil providers for unconfigured stages.
func NewResponder(primary, secondary domain.Llm, mock *MockResponder) *Responder {
	if mock == nil {
		mock = NewMockResponder()
	}
	return &Responder{
		primary:   primary,
		secondary: secondary,
		mock:      mock,
		timeout:   DefaultProviderTimeout,
	}
}

func (r *Responder) WithTimeout(d time.Duration) *Responder {
	if d > 0 {
		r.timeout = d
	}
	return r
}

func (r *Responder) Generate(ctx context.Context, prompt string, persona domain.Persona, preferPrimary bool) domain.ProviderResult {
	for _, stage := range Plan(r.primary != nil, r.secondary != nil, preferPrimary) {
		var provider domain.Llm
		switch stage {
		case domain.SourcePrimary:
			provider = r.primary
		case domain.SourceSecondary:
			provider = r.secondary
		default:
			return domain.ProviderResult{
				Text:   r.mock.Respond(persona),
				Source: domain.SourceMock,
			}
		}

		text, err := r.call(ctx, provider, prompt)
		if err == nil {
			return domain.ProviderResult{Text: text, Source: stage, Provider: provider.Name()}
		}
		log.WithCtx(ctx).Warn("LLM provider failed, falling through",
			zap.String("stage", string(stage)),
			zap.String("provider", provider.Name()),
			zap.String("reason", classifyFailure(err)),
			zap.Error(err))
	}

	// Plan always ends with the mock stage.
	return domain.ProviderResult{Text: r.mock.Respond(persona), Source: domain.SourceMock}
}

func (r *Responder) call(ctx context.Context, provider domain.Llm, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	text, err := provider.Generate(callCtx, prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", domain.ErrEmptyCompletion
	}
	return text, nil
}

func classifyFailure(err error) string {
	var sc StatusCoder
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, domain.ErrEmptyCompletion):
		return "empty"
	case errors.As(err, &sc):
		switch code := sc.StatusCode(); {
		case code == 401 || code == 403:
			return "unauthorized"
		case code == 429:
			return "rate_limited"
		case code >= 500:
			return "server_error"
		default:
			return "bad_status"
		}
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			return "timeout"
		}
		return "transport"
	default:
		return "provider_error"
	}
}
