package domain

import (
	"context"
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

type Speaker string

const (
	UserSpeaker Speaker = "user"
	AISpeaker   Speaker = "ai"
)

// Turn is one message in a debate. Turns are appended, never edited.
type Turn struct {
	Speaker   Speaker   `json:"speaker" bson:"speaker"`
	Message   string    `json:"message" bson:"message"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// Session is the debate state owned by one browser session.
type Session struct {
	ID        string    `json:"session_id" bson:"_id"`
	DebateID  string    `json:"debate_id" bson:"debate_id"`
	Topic     string    `json:"topic" bson:"topic"`
	UserSide  string    `json:"user_side" bson:"user_side"`
	PersonaID string    `json:"theme" bson:"persona_id"`
	Turns     []Turn    `json:"history" bson:"turns"`
	UpdatedAt time.Time `json:"-" bson:"updated_at"`
}

func (s *Session) Append(speaker Speaker, message string, at time.Time) {
	s.Turns = append(s.Turns, Turn{Speaker: speaker, Message: message, Timestamp: at})
}

// Clone returns a copy whose turn slice does not alias the original.
func (s Session) Clone() Session {
	turns := make([]Turn, len(s.Turns))
	copy(turns, s.Turns)
	s.Turns = turns
	return s
}

// SessionStore persists debate sessions by session id.
type SessionStore interface {
	// Get returns ErrSessionNotFound when nothing is stored under id.
	Get(ctx context.Context, id string) (Session, error)
	Put(ctx context.Context, session Session) error
	Delete(ctx context.Context, id string) error
}
