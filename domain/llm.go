package domain

import (
	"context"
	"errors"
)

// ErrEmptyCompletion is returned by providers that answered without text.
var ErrEmptyCompletion = errors.New("empty completion")

// Llm abstracts any chat/LLM provider.
type Llm interface {
	Name() string
	// Generate takes a rendered prompt and returns the model's reply.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Source tags which stage of the fallback chain produced a reply.
type Source string

const (
	SourcePrimary   Source = "primary"
	SourceSecondary Source = "secondary"
	SourceMock      Source = "mock"
)

type ProviderResult struct {
	Text     string `json:"text"`
	Source   Source `json:"source"`
	Provider string `json:"provider,omitempty"`
}

// Feedback is the structured critique of a single argument.
type Feedback struct {
	Strengths   []string `json:"strengths"`
	Weaknesses  []string `json:"weaknesses"`
	Fallacies   []string `json:"fallacies"`
	Suggestions []string `json:"suggestions"`
	Grade       string   `json:"grade"`
	Feedback    string   `json:"feedback"`
}

// GenericFeedback is served whenever a provider reply cannot be parsed.
func GenericFeedback() Feedback {
	return Feedback{
		Strengths:   []string{"Clear communication"},
		Weaknesses:  []string{"Could use more evidence"},
		Fallacies:   []string{},
		Suggestions: []string{"Add more supporting facts"},
		Grade:       "B",
		Feedback:    "Good effort! Keep practicing.",
	}
}
