package moderation

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupwarden/internal/database"
)

type stubClassifier struct {
	toxic bool
	err   error
	calls int
}

func (s *stubClassifier) Classify(ctx context.Context, text string) (bool, error) {
	s.calls++
	return s.toxic, s.err
}

func newTestStore(t *testing.T) *database.Store {
	t.Helper()
	store, err := database.Open(filepath.Join(t.TempDir(), "test.db"), "", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestToxicMessagesEscalateToBan(t *testing.T) {
	assert := assert.New(t)
	store := newTestStore(t)
	m := NewModerator(store, NewFloodDetector(), &stubClassifier{toxic: true}, zerolog.Nop())
	ctx := context.Background()
	now := time.Now()

	v, err := m.ProcessMessage(ctx, -100, 1, "bad", now)
	require.NoError(t, err)
	assert.Equal(ActionDeleteAndWarn, v.Action)
	assert.Equal(1, v.WarningCount)

	v, err = m.ProcessMessage(ctx, -100, 1, "bad again", now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(ActionDeleteAndWarn, v.Action)
	assert.Equal(2, v.WarningCount)

	v, err = m.ProcessMessage(ctx, -100, 1, "bad once more", now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(ActionBan, v.Action)
	assert.Equal(database.WarnThreshold, v.WarningCount)

	_, banned := store.WarningInfo(-100, 1)
	assert.True(banned)
}

func TestVerifiedUsersSkipClassification(t *testing.T) {
	assert := assert.New(t)
	store := newTestStore(t)
	classifier := &stubClassifier{toxic: true}
	m := NewModerator(store, NewFloodDetector(), classifier, zerolog.Nop())

	require.NoError(t, store.AddVerified(-100, 1))

	v, err := m.ProcessMessage(context.Background(), -100, 1, "anything", time.Now())
	require.NoError(t, err)
	assert.Equal(ActionNone, v.Action)
	assert.Zero(classifier.calls)
	assert.Equal(1, store.MessageCount(-100, 1))
}

func TestClassifierFailureIsFailOpen(t *testing.T) {
	assert := assert.New(t)
	store := newTestStore(t)
	m := NewModerator(store, NewFloodDetector(),
		&stubClassifier{err: errors.New("upstream down")}, zerolog.Nop())

	v, err := m.ProcessMessage(context.Background(), -100, 1, "anything", time.Now())
	require.NoError(t, err)
	assert.Equal(ActionNone, v.Action)

	count, _ := store.WarningInfo(-100, 1)
	assert.Zero(count)
}

func TestFloodShortCircuitsClassification(t *testing.T) {
	assert := assert.New(t)
	store := newTestStore(t)
	classifier := &stubClassifier{toxic: true}
	m := NewModerator(store, NewFloodDetector(), classifier, zerolog.Nop())
	ctx := context.Background()
	now := time.Now()

	for i := 0; i <= FloodLimit; i++ {
		m.ProcessMessage(ctx, -100, 1, "spam", now)
	}
	classifierCalls := classifier.calls

	v, err := m.ProcessMessage(ctx, -100, 1, "spam", now)
	require.NoError(t, err)
	assert.Equal(ActionFloodWarn, v.Action)
	assert.Equal(classifierCalls, classifier.calls)
}

func TestAutoReplyLongestTriggerWins(t *testing.T) {
	assert := assert.New(t)
	store := newTestStore(t)
	m := NewModerator(store, NewFloodDetector(), &stubClassifier{}, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, store.AddAutoReply(-100, "go", "short"))
	require.NoError(t, store.AddAutoReply(-100, "golang", "long"))

	v, err := m.ProcessMessage(ctx, -100, 1, "I love GOLANG a lot", time.Now())
	require.NoError(t, err)
	assert.Equal("long", v.AutoReply)

	v, err = m.ProcessMessage(ctx, -100, 1, "go home", time.Now())
	require.NoError(t, err)
	assert.Equal("short", v.AutoReply)

	v, err = m.ProcessMessage(ctx, -100, 1, "nothing matches", time.Now())
	require.NoError(t, err)
	assert.Empty(v.AutoReply)
}
