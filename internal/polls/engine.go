package polls

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Store is the durable side of the engine. Every committed vote is written
// through it before the caller sees the result.
type Store interface {
	SavePoll(p *Poll) error
	DeletePoll(msgID int) error
	LoadPolls() ([]*Poll, error)
}

// Notifier receives exactly one callback per poll when it closes.
type Notifier interface {
	PollClosed(chatID int64, msgID int, outcome Outcome)
}

type activePoll struct {
	poll  *Poll
	timer *time.Timer
}

// Engine owns all open polls: the in-memory index for timers and votes, and
// the persisted rows underneath it.
type Engine struct {
	mu       sync.Mutex
	store    Store
	notifier Notifier
	active   map[int]*activePoll
	log      zerolog.Logger
}

func NewEngine(store Store, notifier Notifier, log zerolog.Logger) *Engine {
	return &Engine{
		store:    store,
		notifier: notifier,
		active:   make(map[int]*activePoll),
		log:      log.With().Str("component", "polls").Logger(),
	}
}

// Create registers a poll keyed by the message that carries it, persists it,
// and arms the closure timer.
func (e *Engine) Create(chatID int64, msgID int, question string, options []string, timeout time.Duration) (*Poll, error) {
	if len(options) < MinOptions || len(options) > MaxOptions {
		return nil, ErrUsage
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	p := &Poll{
		MsgID:     msgID,
		ChatID:    chatID,
		Question:  question,
		Options:   append([]string(nil), options...),
		Votes:     make(map[int]int),
		Voters:    make(map[int64]struct{}),
		CreatedAt: time.Now(),
		Timeout:   timeout,
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.SavePoll(p); err != nil {
		return nil, fmt.Errorf("persist poll: %w", err)
	}
	e.active[msgID] = &activePoll{
		poll:  p,
		timer: e.scheduleClose(msgID, timeout),
	}

	e.log.Info().Int64("chat_id", chatID).Int("msg_id", msgID).
		Dur("timeout", timeout).Msg("poll created")
	return p.clone(), nil
}

// Vote records a user's vote. The first vote is final; the poll is persisted
// before the updated copy is returned, so a crash after Vote never loses a
// committed vote.
func (e *Engine) Vote(msgID int, userID int64, option int) (*Poll, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.active[msgID]
	if !ok {
		return nil, ErrPollNotFound
	}
	p := entry.poll

	if option < 0 || option >= len(p.Options) {
		return nil, ErrBadOption
	}
	if _, voted := p.Voters[userID]; voted {
		return nil, ErrAlreadyVoted
	}

	p.Votes[option]++
	p.Voters[userID] = struct{}{}

	if err := e.store.SavePoll(p); err != nil {
		// Roll back the in-memory change so memory and disk stay in step.
		p.Votes[option]--
		delete(p.Voters, userID)
		return nil, fmt.Errorf("persist vote: %w", err)
	}
	return p.clone(), nil
}

// Close finishes a poll: computes the outcome, announces it once, and removes
// the stored row. The transition is claimed atomically, so a timer firing
// concurrently with a manual close results in exactly one announcement.
// Returns false when the poll was already closed.
func (e *Engine) Close(msgID int) bool {
	e.mu.Lock()
	entry, ok := e.active[msgID]
	if !ok {
		e.mu.Unlock()
		return false
	}
	delete(e.active, msgID)
	if entry.timer != nil {
		entry.timer.Stop()
	}
	p := entry.poll
	e.mu.Unlock()

	outcome := p.outcome()
	e.notifier.PollClosed(p.ChatID, msgID, outcome)

	if err := e.store.DeletePoll(msgID); err != nil {
		e.log.Error().Err(err).Int("msg_id", msgID).Msg("failed to delete closed poll")
	}

	e.log.Info().Int64("chat_id", p.ChatID).Int("msg_id", msgID).
		Int("votes", outcome.TotalVotes).Strs("winners", outcome.Winners).
		Msg("poll closed")
	return true
}

// Restore reloads persisted polls after a restart. Polls past their deadline
// close immediately; the rest get a timer for their remaining time.
func (e *Engine) Restore() error {
	loaded, err := e.store.LoadPolls()
	if err != nil {
		return fmt.Errorf("load polls: %w", err)
	}

	now := time.Now()
	var expired []int

	e.mu.Lock()
	for _, p := range loaded {
		remaining := p.Deadline().Sub(now)
		if remaining <= 0 {
			// Register without a timer so Close can claim it below.
			e.active[p.MsgID] = &activePoll{poll: p}
			expired = append(expired, p.MsgID)
			continue
		}
		e.active[p.MsgID] = &activePoll{
			poll:  p,
			timer: e.scheduleClose(p.MsgID, remaining),
		}
	}
	e.mu.Unlock()

	for _, msgID := range expired {
		e.Close(msgID)
	}

	e.log.Info().Int("restored", len(loaded)-len(expired)).
		Int("expired", len(expired)).Msg("polls restored")
	return nil
}

// Shutdown stops all timers without closing the polls; they are picked up
// again by Restore on the next start.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, entry := range e.active {
		if entry.timer != nil {
			entry.timer.Stop()
		}
	}
}

// Get returns a snapshot of an open poll.
func (e *Engine) Get(msgID int) (*Poll, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.active[msgID]
	if !ok {
		return nil, false
	}
	return entry.poll.clone(), true
}

func (e *Engine) scheduleClose(msgID int, after time.Duration) *time.Timer {
	return time.AfterFunc(after, func() {
		e.Close(msgID)
	})
}
