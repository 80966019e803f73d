package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Divya4879/Sassy-AI-Debate-Coach/domain"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/prompts"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/utils/log"
	"go.uber.org/zap"
)

var (
	// ErrInvalidInput wraps every request validation failure.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoActiveDebate is returned when arguing before a debate was started.
	ErrNoActiveDebate = errors.New("no active debate")
)

const analysisPersonaID = "teacher"

type StartRequest struct {
	Topic     string
	UserSide  string
	PersonaID string
}

type Opening struct {
	Text      string
	DebateID  string
	PersonaID string
	Source    domain.Source
}

type Reply struct {
	Text      string
	PersonaID string
	Source    domain.Source
}

type DebateService struct {
	store     domain.SessionStore
	personas  *domain.PersonaRegistry
	generator Generator
	locks     *sessionLocks
	now       func() time.Time
}

func NewDebateService(store domain.SessionStore, personas *domain.PersonaRegistry, generator Generator) *DebateService {
	return &DebateService{
		store:     store,
		personas:  personas,
		generator: generator,
		locks:     newSessionLocks(),
		now:       time.Now,
	}
}

// WithClock overrides time.Now for turn timestamps and debate ids.
func (s *DebateService) WithClock(now func() time.Time) *DebateService {
	s.now = now
	return s
}

// StartDebate replaces whatever debate the session had with a new one and
// records the AI's opening statement as its first turn.
func (s *DebateService) StartDebate(ctx context.Context, sessionID string, req StartRequest) (*Opening, error) {
	topic := strings.TrimSpace(req.Topic)
	side := strings.TrimSpace(req.UserSide)
	if topic == "" {
		return nil, fmt.Errorf("%w: no topic provided", ErrInvalidInput)
	}
	if side == "" {
		return nil, fmt.Errorf("%w: no side provided", ErrInvalidInput)
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	persona := s.personas.Lookup(req.PersonaID)
	prompt, err := prompts.BuildOpening(topic, side, persona)
	if err != nil {
		return nil, fmt.Errorf("building opening prompt: %w", err)
	}

	result := s.generator.Generate(ctx, prompt, persona, true)

	now := s.now()
	session := domain.Session{
		ID:        sessionID,
		DebateID:  now.Format("20060102_150405"),
		Topic:     topic,
		UserSide:  side,
		PersonaID: persona.ID,
		Turns:     []domain.Turn{},
		UpdatedAt: now,
	}
	session.Append(domain.AISpeaker, result.Text, now)

	if err := s.store.Put(ctx, session); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	log.WithCtx(ctx).Info("Debate started",
		zap.String("debate_id", session.DebateID),
		zap.String("persona", persona.ID),
		zap.String("source", string(result.Source)))

	return &Opening{
		Text:      result.Text,
		DebateID:  session.DebateID,
		PersonaID: persona.ID,
		Source:    result.Source,
	}, nil
}

// SubmitArgument appends the user's argument and the AI's rebuttal. Calls
// for the same session are applied one at a time.
func (s *DebateService) SubmitArgument(ctx context.Context, sessionID string, argument string) (*Reply, error) {
	argument = strings.TrimSpace(argument)
	if argument == "" {
		return nil, fmt.Errorf("%w: no argument provided", ErrInvalidInput)
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	session, err := s.store.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil, ErrNoActiveDebate
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	session.Append(domain.UserSpeaker, argument, s.now())

	persona := s.personas.Lookup(session.PersonaID)
	prompt, err := prompts.BuildRebuttal(argument, session.Topic, session.UserSide, persona, session.Turns)
	if err != nil {
		return nil, fmt.Errorf("building rebuttal prompt: %w", err)
	}

	result := s.generator.Generate(ctx, prompt, persona, true)

	now := s.now()
	session.Append(domain.AISpeaker, result.Text, now)
	session.UpdatedAt = now

	if err := s.store.Put(ctx, session); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	log.WithCtx(ctx).Debug("Argument answered",
		zap.Int("turns", len(session.Turns)),
		zap.String("source", string(result.Source)))

	return &Reply{Text: result.Text, PersonaID: persona.ID, Source: result.Source}, nil
}

// History returns the session's debate, or an empty session when there is
// none.
func (s *DebateService) History(ctx context.Context, sessionID string) (domain.Session, error) {
	session, err := s.store.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.Session{ID: sessionID, Turns: []domain.Turn{}}, nil
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("loading session: %w", err)
	}
	if session.Turns == nil {
		session.Turns = []domain.Turn{}
	}
	return session, nil
}

func (s *DebateService) Reset(ctx context.Context, sessionID string) error {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	if err := s.store.Delete(ctx, sessionID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// Analyze grades a single argument. It always returns a complete Feedback.
func (s *DebateService) Analyze(ctx context.Context, argument string, personaID string) (domain.Feedback, error) {
	argument = strings.TrimSpace(argument)
	if argument == "" {
		return domain.Feedback{}, fmt.Errorf("%w: no argument provided", ErrInvalidInput)
	}

	persona := s.personas.LookupOr(personaID, analysisPersonaID)
	prompt, err := prompts.BuildAnalysis(argument, persona)
	if err != nil {
		return domain.Feedback{}, fmt.Errorf("building analysis prompt: %w", err)
	}

	result := s.generator.Generate(ctx, prompt, persona, true)

	feedback, err := ParseFeedback(result.Text)
	if err != nil {
		log.WithCtx(ctx).Info("Analysis reply was not usable, serving generic feedback",
			zap.String("source", string(result.Source)),
			zap.Error(err))
		return domain.GenericFeedback(), nil
	}
	return feedback, nil
}
