package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupwarden/internal/polls"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"), "https://example.com/default.jpg", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSettingsDefaults(t *testing.T) {
	assert := assert.New(t)
	store := openTestStore(t)

	s := store.Settings(-100)
	assert.True(s.WelcomeEnabled)
	assert.True(s.GoodbyeEnabled)
	assert.True(s.AutoManagement)
	assert.Equal("https://example.com/default.jpg", s.WelcomeImage)
}

func TestUpdateSettingsPersists(t *testing.T) {
	assert := assert.New(t)
	store := openTestStore(t)

	err := store.UpdateSettings(-100, func(s *ChatSettings) {
		s.WelcomeEnabled = false
		s.WelcomeText = "Hi {name}"
	})
	require.NoError(t, err)

	s := store.Settings(-100)
	assert.False(s.WelcomeEnabled)
	assert.Equal("Hi {name}", s.WelcomeText)

	// Other chats are untouched.
	assert.True(store.Settings(-200).WelcomeEnabled)
}

func TestAddWarningEscalates(t *testing.T) {
	assert := assert.New(t)
	store := openTestStore(t)
	now := time.Now()

	count, banned, err := store.AddWarning(-100, 1, now)
	require.NoError(t, err)
	assert.Equal(1, count)
	assert.False(banned)

	count, banned, err = store.AddWarning(-100, 1, now)
	require.NoError(t, err)
	assert.Equal(2, count)
	assert.False(banned)

	count, banned, err = store.AddWarning(-100, 1, now)
	require.NoError(t, err)
	assert.Equal(WarnThreshold, count)
	assert.True(banned)

	// Warnings are scoped per chat.
	count, banned, err = store.AddWarning(-200, 1, now)
	require.NoError(t, err)
	assert.Equal(1, count)
	assert.False(banned)
}

func TestSetBannedClearsFlag(t *testing.T) {
	assert := assert.New(t)
	store := openTestStore(t)
	now := time.Now()

	for i := 0; i < WarnThreshold; i++ {
		_, _, err := store.AddWarning(-100, 1, now)
		require.NoError(t, err)
	}
	_, banned := store.WarningInfo(-100, 1)
	require.True(t, banned)

	require.NoError(t, store.SetBanned(-100, 1, false))
	_, banned = store.WarningInfo(-100, 1)
	assert.False(banned)
}

func TestMessageCounts(t *testing.T) {
	assert := assert.New(t)
	store := openTestStore(t)

	assert.Zero(store.MessageCount(-100, 1))
	require.NoError(t, store.IncrementMessageCount(-100, 1))
	require.NoError(t, store.IncrementMessageCount(-100, 1))
	assert.Equal(2, store.MessageCount(-100, 1))
	assert.Zero(store.MessageCount(-100, 2))
}

func TestVerifiedUsers(t *testing.T) {
	assert := assert.New(t)
	store := openTestStore(t)

	assert.False(store.IsVerified(-100, 1))
	require.NoError(t, store.AddVerified(-100, 1))
	assert.True(store.IsVerified(-100, 1))
	assert.False(store.IsVerified(-200, 1))

	// Re-verifying is a no-op, not an error.
	assert.NoError(store.AddVerified(-100, 1))

	require.NoError(t, store.RemoveVerified(-100, 1))
	assert.False(store.IsVerified(-100, 1))
	assert.ErrorIs(store.RemoveVerified(-100, 1), ErrNotFound)
}

func TestAutoReplies(t *testing.T) {
	assert := assert.New(t)
	store := openTestStore(t)

	require.NoError(t, store.AddAutoReply(-100, "go", "short"))
	require.NoError(t, store.AddAutoReply(-100, "golang", "long"))
	require.NoError(t, store.AddAutoReply(-100, "go", "updated"))

	rules, err := store.AutoReplies(-100)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal("golang", rules[0].Trigger)
	assert.Equal("go", rules[1].Trigger)
	assert.Equal("updated", rules[1].Response)

	require.NoError(t, store.RemoveAutoReply(-100, "go"))
	assert.ErrorIs(store.RemoveAutoReply(-100, "go"), ErrNotFound)

	rules, err = store.AutoReplies(-100)
	require.NoError(t, err)
	assert.Len(rules, 1)
}

func TestPollPersistenceRoundTrip(t *testing.T) {
	assert := assert.New(t)
	store := openTestStore(t)

	p := &polls.Poll{
		MsgID:     7,
		ChatID:    -100,
		Question:  "Lunch?",
		Options:   []string{"pizza", "sushi"},
		Votes:     map[int]int{1: 2},
		Voters:    map[int64]struct{}{42: {}, 43: {}},
		CreatedAt: time.Now().Truncate(time.Second),
		Timeout:   5 * time.Minute,
	}
	require.NoError(t, store.SavePoll(p))

	loaded, err := store.LoadPolls()
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	got := loaded[0]
	assert.Equal(7, got.MsgID)
	assert.Equal(int64(-100), got.ChatID)
	assert.Equal("Lunch?", got.Question)
	assert.Equal([]string{"pizza", "sushi"}, got.Options)
	assert.Equal(2, got.Votes[1])
	assert.Contains(got.Voters, int64(42))
	assert.Contains(got.Voters, int64(43))
	assert.Equal(5*time.Minute, got.Timeout)

	// Saving again overwrites in place.
	p.Votes[1] = 3
	require.NoError(t, store.SavePoll(p))
	loaded, err = store.LoadPolls()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(3, loaded[0].Votes[1])

	require.NoError(t, store.DeletePoll(7))
	loaded, err = store.LoadPolls()
	require.NoError(t, err)
	assert.Empty(loaded)
}
