package moderation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmRoundTrip(t *testing.T) {
	assert := assert.New(t)
	g := NewConfirmGateway()

	confirm, cancel := g.Propose("ban", 123, -456)
	assert.Equal("confirm_ban_123_-456", confirm)
	assert.Equal("cancel_ban_123_-456", cancel)

	pending, err := g.Resolve(confirm)
	require.NoError(t, err)
	assert.Equal("ban", pending.Action)
	assert.Equal(int64(123), pending.UserID)
	assert.Equal(int64(-456), pending.ChatID)
	assert.True(pending.Confirmed)
}

func TestCancelResolvesUnconfirmed(t *testing.T) {
	g := NewConfirmGateway()
	_, cancel := g.Propose("kick", 1, -2)

	pending, err := g.Resolve(cancel)
	require.NoError(t, err)
	assert.False(t, pending.Confirmed)
	assert.Equal(t, "kick", pending.Action)
}

func TestResolveConsumesPair(t *testing.T) {
	assert := assert.New(t)
	g := NewConfirmGateway()

	confirm, cancel := g.Propose("mute", 1, -2)
	_, err := g.Resolve(confirm)
	assert.NoError(err)

	// Both tokens of the pair are gone after either resolves.
	_, err = g.Resolve(cancel)
	assert.ErrorIs(err, ErrTokenExpired)
	_, err = g.Resolve(confirm)
	assert.ErrorIs(err, ErrTokenExpired)
}

func TestResolveExpiredToken(t *testing.T) {
	g := NewConfirmGateway()
	now := time.Now()
	g.now = func() time.Time { return now }

	confirm, _ := g.Propose("warn", 1, -2)

	g.now = func() time.Time { return now.Add(ConfirmTTL + time.Second) }
	_, err := g.Resolve(confirm)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestResolveMalformedTokens(t *testing.T) {
	g := NewConfirmGateway()

	for _, token := range []string{
		"",
		"confirm_ban_123",
		"confirm_ban_123_456_extra",
		"approve_ban_123_456",
		"confirm_ban_abc_456",
		"confirm_ban_123_xyz",
	} {
		_, err := g.Resolve(token)
		assert.ErrorIs(t, err, ErrMalformedToken, "token %q", token)
	}
}

func TestResolveUnknownToken(t *testing.T) {
	g := NewConfirmGateway()
	_, err := g.Resolve("confirm_ban_1_-2")
	assert.ErrorIs(t, err, ErrTokenExpired)
}
