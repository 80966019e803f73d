package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Divya4879/Sassy-AI-Debate-Coach/domain"
)

// Runs against a real server only when MONGO_TEST_URI is set.
func TestMongoSessionStore(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := NewMongoSessionStore(ctx, uri, "debate_coach_test", time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close(context.Background()) })

	id := uuid.NewString()
	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	at := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	session := domain.Session{ID: id, DebateID: "20240309_140507", Topic: "school uniforms", UserSide: "for", PersonaID: "sassy"}
	session.Append(domain.AISpeaker, "opening", at)
	require.NoError(t, s.Put(ctx, session))

	session.Append(domain.UserSpeaker, "rebuttal", at.Add(time.Minute))
	require.NoError(t, s.Put(ctx, session))

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "school uniforms", got.Topic)
	assert.Equal(t, "sassy", got.PersonaID)
	require.Len(t, got.Turns, 2)
	assert.Equal(t, domain.UserSpeaker, got.Turns[1].Speaker)
	assert.True(t, at.Add(time.Minute).Equal(got.Turns[1].Timestamp))
	assert.False(t, got.UpdatedAt.IsZero())

	require.NoError(t, s.Delete(ctx, id))
	assert.ErrorIs(t, s.Delete(ctx, id), domain.ErrSessionNotFound)
}
