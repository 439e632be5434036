package moderation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	confirmVerb = "confirm"
	cancelVerb  = "cancel"

	// ConfirmTTL bounds how long a proposed action stays valid. Stale
	// confirmations after membership changes are worse than asking again.
	ConfirmTTL = 5 * time.Minute
)

var (
	// ErrMalformedToken: the callback payload does not have the exact
	// verb_action_user_chat shape.
	ErrMalformedToken = errors.New("malformed confirmation token")
	// ErrTokenExpired: the token is unknown, past its TTL, or was already
	// consumed by its pair.
	ErrTokenExpired = errors.New("confirmation expired or already handled")
)

// Pending is a destructive action awaiting explicit approval.
type Pending struct {
	Action string
	UserID int64
	ChatID int64
	// Confirmed is false when the cancel token of the pair was resolved.
	Confirmed bool
}

type pendingPair struct {
	expires time.Time
	other   string
}

// ConfirmGateway maps proposed destructive actions to short-lived token
// pairs carried in callback buttons. Tokens are single-use: resolving either
// one of a pair consumes both.
type ConfirmGateway struct {
	mu      sync.Mutex
	ttl     time.Duration
	pending map[string]pendingPair
	now     func() time.Time
}

func NewConfirmGateway() *ConfirmGateway {
	return &ConfirmGateway{
		ttl:     ConfirmTTL,
		pending: make(map[string]pendingPair),
		now:     time.Now,
	}
}

// Propose registers an action and returns its confirm and cancel tokens.
func (g *ConfirmGateway) Propose(action string, userID, chatID int64) (confirm, cancel string) {
	confirm = encodeToken(confirmVerb, action, userID, chatID)
	cancel = encodeToken(cancelVerb, action, userID, chatID)

	g.mu.Lock()
	defer g.mu.Unlock()

	expires := g.now().Add(g.ttl)
	g.pending[confirm] = pendingPair{expires: expires, other: cancel}
	g.pending[cancel] = pendingPair{expires: expires, other: confirm}
	return confirm, cancel
}

// Resolve decodes a token back to its action and consumes the pair.
func (g *ConfirmGateway) Resolve(token string) (Pending, error) {
	pending, err := decodeToken(token)
	if err != nil {
		return Pending{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	pair, ok := g.pending[token]
	if !ok {
		return Pending{}, ErrTokenExpired
	}
	delete(g.pending, token)
	delete(g.pending, pair.other)

	if g.now().After(pair.expires) {
		return Pending{}, ErrTokenExpired
	}
	return pending, nil
}

func encodeToken(verb, action string, userID, chatID int64) string {
	return fmt.Sprintf("%s_%s_%d_%d", verb, action, userID, chatID)
}

func decodeToken(token string) (Pending, error) {
	parts := strings.Split(token, "_")
	if len(parts) != 4 {
		return Pending{}, ErrMalformedToken
	}
	if parts[0] != confirmVerb && parts[0] != cancelVerb {
		return Pending{}, ErrMalformedToken
	}
	userID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return Pending{}, ErrMalformedToken
	}
	chatID, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return Pending{}, ErrMalformedToken
	}

	return Pending{
		Action:    parts[1],
		UserID:    userID,
		ChatID:    chatID,
		Confirmed: parts[0] == confirmVerb,
	}, nil
}
