package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Divya4879/Sassy-AI-Debate-Coach/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLlm struct {
	name  string
	reply string
	err   error
	delay time.Duration

	mu      sync.Mutex
	prompts []string
}

func (f *fakeLlm) Name() string { return f.name }

func (f *fakeLlm) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func (f *fakeLlm) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type statusErr int

func (e statusErr) Error() string   { return fmt.Sprintf("status %d", int(e)) }
func (e statusErr) StatusCode() int { return int(e) }

func TestPlan(t *testing.T) {
	tests := []struct {
		name               string
		primary, secondary bool
		preferPrimary      bool
		expected           []domain.Source
	}{
		{"everything configured", true, true, true, []domain.Source{domain.SourcePrimary, domain.SourceSecondary, domain.SourceMock}},
		{"primary not preferred", true, true, false, []domain.Source{domain.SourceSecondary, domain.SourceMock}},
		{"only primary", true, false, true, []domain.Source{domain.SourcePrimary, domain.SourceMock}},
		{"only secondary", false, true, true, []domain.Source{domain.SourceSecondary, domain.SourceMock}},
		{"nothing configured", false, false, true, []domain.Source{domain.SourceMock}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Plan(tt.primary, tt.secondary, tt.preferPrimary))
		})
	}
}

func TestResponder_Generate(t *testing.T) {
	ctx := context.Background()
	persona := domain.DefaultPersonaRegistry().Lookup("sassy")
	first := func(int) int { return 0 }

	t.Run("primary answers", func(t *testing.T) {
		primary := &fakeLlm{name: "groq", reply: "primary says hi"}
		secondary := &fakeLlm{name: "gemini", reply: "secondary says hi"}
		r := NewResponder(primary, secondary, nil)

		res := r.Generate(ctx, "prompt", persona, true)

		assert.Equal(t, domain.ProviderResult{Text: "primary says hi", Source: domain.SourcePrimary, Provider: "groq"}, res)
		assert.Equal(t, 0, secondary.calls())
	})

	t.Run("primary status error falls to secondary", func(t *testing.T) {
		primary := &fakeLlm{name: "groq", err: statusErr(503)}
		secondary := &fakeLlm{name: "gemini", reply: "secondary says hi"}
		r := NewResponder(primary, secondary, nil)

		res := r.Generate(ctx, "prompt", persona, true)

		assert.Equal(t, domain.SourceSecondary, res.Source)
		assert.Equal(t, "secondary says hi", res.Text)
		assert.Equal(t, 1, primary.calls())
	})

	t.Run("empty completion falls through", func(t *testing.T) {
		primary := &fakeLlm{name: "groq", reply: "   "}
		r := NewResponder(primary, nil, NewMockResponder().WithPicker(first))

		res := r.Generate(ctx, "prompt", persona, true)

		assert.Equal(t, domain.SourceMock, res.Source)
		assert.Equal(t, cannedLines["sassy"][0], res.Text)
	})

	t.Run("both providers fail", func(t *testing.T) {
		primary := &fakeLlm{name: "groq", err: errors.New("dial tcp: connection refused")}
		secondary := &fakeLlm{name: "gemini", err: errors.New("boom")}
		r := NewResponder(primary, secondary, NewMockResponder().WithPicker(first))

		res := r.Generate(ctx, "prompt", persona, true)

		assert.Equal(t, domain.SourceMock, res.Source)
		assert.Equal(t, cannedLines["sassy"][0], res.Text)
		assert.Empty(t, res.Provider)
	})

	t.Run("nothing configured", func(t *testing.T) {
		r := NewResponder(nil, nil, nil)

		for _, p := range domain.DefaultPersonaRegistry().List() {
			res := r.Generate(ctx, "prompt", p, true)
			assert.Equal(t, domain.SourceMock, res.Source)
			assert.Contains(t, cannedLines[p.ID], res.Text)
		}
	})

	t.Run("primary skipped when not preferred", func(t *testing.T) {
		primary := &fakeLlm{name: "groq", reply: "primary"}
		secondary := &fakeLlm{name: "gemini", reply: "secondary"}
		r := NewResponder(primary, secondary, nil)

		res := r.Generate(ctx, "prompt", persona, false)

		assert.Equal(t, domain.SourceSecondary, res.Source)
		assert.Equal(t, 0, primary.calls())
	})

	t.Run("slow provider times out", func(t *testing.T) {
		primary := &fakeLlm{name: "groq", reply: "late", delay: time.Second}
		r := NewResponder(primary, nil, nil).WithTimeout(10 * time.Millisecond)

		res := r.Generate(ctx, "prompt", persona, true)

		assert.Equal(t, domain.SourceMock, res.Source)
		assert.NotEmpty(t, res.Text)
	})

	t.Run("canceled caller still gets text", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		primary := &fakeLlm{name: "groq", reply: "never"}
		r := NewResponder(primary, nil, nil)

		res := r.Generate(canceled, "prompt", persona, true)

		assert.Equal(t, domain.SourceMock, res.Source)
		assert.NotEmpty(t, res.Text)
		assert.Equal(t, 0, primary.calls())
	})
}

func TestMockResponder_Respond(t *testing.T) {
	m := NewMockResponder().WithPicker(func(n int) int { return n - 1 })

	for _, p := range domain.DefaultPersonaRegistry().List() {
		require.Len(t, cannedLines[p.ID], 3, p.ID)
		assert.Equal(t, cannedLines[p.ID][2], m.Respond(p))
	}

	unknown := domain.Persona{ID: "pirate"}
	assert.Equal(t, cannedLines[domain.DefaultPersonaID][2], m.Respond(unknown))
}

func TestClassifyFailure(t *testing.T) {
	assert.Equal(t, "timeout", classifyFailure(context.DeadlineExceeded))
	assert.Equal(t, "canceled", classifyFailure(fmt.Errorf("wrapped: %w", context.Canceled)))
	assert.Equal(t, "empty", classifyFailure(domain.ErrEmptyCompletion))
	assert.Equal(t, "unauthorized", classifyFailure(statusErr(401)))
	assert.Equal(t, "rate_limited", classifyFailure(statusErr(429)))
	assert.Equal(t, "server_error", classifyFailure(statusErr(502)))
	assert.Equal(t, "bad_status", classifyFailure(statusErr(400)))
	assert.Equal(t, "provider_error", classifyFailure(errors.New("other")))
}

func TestMockResponder_NoCannedLines(t *testing.T) {
	m := &MockResponder{lines: map[string][]string{}, defaultID: "missing", pick: func(int) int { panic("pick called") }}
	persona := domain.Persona{ID: "custom"}

	assert.Equal(t, FallbackLine, m.Respond(persona))

	res := NewResponder(nil, nil, m).Generate(context.Background(), "prompt", persona, true)
	assert.Equal(t, domain.SourceMock, res.Source)
	assert.Equal(t, FallbackLine, res.Text)
}
