package usecase

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Divya4879/Sassy-AI-Debate-Coach/domain"
)

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*\n?(.*?)\n?```")

// ParseFeedback reads a model reply into Feedback. The reply may be wrapped
// in markdown fences or surrounded by prose; grade and feedback are required.
func ParseFeedback(text string) (domain.Feedback, error) {
	text = stripMarkdownFences(text)
	text = strings.TrimSpace(extractJSON(text))
	if text == "" {
		return domain.Feedback{}, errors.New("no JSON content found in reply")
	}

	var fb domain.Feedback
	if err := json.Unmarshal([]byte(text), &fb); err != nil {
		return domain.Feedback{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if strings.TrimSpace(fb.Grade) == "" {
		return domain.Feedback{}, errors.New("reply has no grade")
	}
	if strings.TrimSpace(fb.Feedback) == "" {
		return domain.Feedback{}, errors.New("reply has no feedback")
	}

	fb.Strengths = nonNil(fb.Strengths)
	fb.Weaknesses = nonNil(fb.Weaknesses)
	fb.Fallacies = nonNil(fb.Fallacies)
	fb.Suggestions = nonNil(fb.Suggestions)
	return fb, nil
}

func stripMarkdownFences(text string) string {
	if m := fenceRe.FindStringSubmatch(text); len(m) > 1 {
		return m[1]
	}
	return text
}

func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return ""
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
