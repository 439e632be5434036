package moderation

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"groupwarden/internal/database"
)

// Action is what the transport layer must do with a processed message.
type Action int

const (
	// ActionNone: the message is clean; nothing beyond stats/auto-reply.
	ActionNone Action = iota
	// ActionFloodWarn: tell the sender to slow down; no other effect.
	ActionFloodWarn
	// ActionDeleteAndWarn: delete the message and show the warning count.
	ActionDeleteAndWarn
	// ActionBan: as DeleteAndWarn, and the user reached the ban threshold.
	// The ban flag is already persisted; the caller invokes the membership
	// ban.
	ActionBan
)

// Verdict is the outcome of processing one inbound message.
type Verdict struct {
	Action       Action
	WarningCount int
	// AutoReply is the response of the first matching rule, empty when no
	// rule matched or the message was flagged.
	AutoReply string
}

// Classifier is the external toxicity judgment.
type Classifier interface {
	Classify(ctx context.Context, text string) (bool, error)
}

// Moderator runs the per-(user, chat) warning state machine over inbound
// group messages.
type Moderator struct {
	store      *database.Store
	flood      *FloodDetector
	classifier Classifier
	log        zerolog.Logger
}

func NewModerator(store *database.Store, flood *FloodDetector, classifier Classifier, log zerolog.Logger) *Moderator {
	return &Moderator{
		store:      store,
		flood:      flood,
		classifier: classifier,
		log:        log.With().Str("component", "moderation").Logger(),
	}
}

// ProcessMessage classifies one text message and advances the warning state
// machine. Flood flags short-circuit everything, including the warning
// counter; verified users skip classification but still pass flood control
// and still count toward stats and auto-replies.
func (m *Moderator) ProcessMessage(ctx context.Context, chatID, userID int64, text string, now time.Time) (Verdict, error) {
	if m.flood.RecordAndCheck(userID, chatID, now) {
		return Verdict{Action: ActionFloodWarn}, nil
	}

	if !m.store.IsVerified(chatID, userID) {
		toxic, err := m.classifier.Classify(ctx, text)
		if err != nil {
			// Fail-open: a broken classifier must not silence the chat.
			m.log.Warn().Err(err).Int64("chat_id", chatID).Int64("user_id", userID).
				Msg("classifier unavailable, treating message as clean")
			toxic = false
		}

		if toxic {
			count, banned, err := m.store.AddWarning(chatID, userID, now)
			if err != nil {
				return Verdict{}, err
			}
			m.log.Info().Int64("chat_id", chatID).Int64("user_id", userID).
				Int("count", count).Bool("banned", banned).Msg("toxic message")
			if banned {
				return Verdict{Action: ActionBan, WarningCount: count}, nil
			}
			return Verdict{Action: ActionDeleteAndWarn, WarningCount: count}, nil
		}
	}

	if err := m.store.IncrementMessageCount(chatID, userID); err != nil {
		m.log.Error().Err(err).Int64("chat_id", chatID).Int64("user_id", userID).
			Msg("failed to count message")
	}

	reply, err := m.matchAutoReply(chatID, text)
	if err != nil {
		m.log.Error().Err(err).Int64("chat_id", chatID).Msg("auto-reply lookup failed")
		return Verdict{Action: ActionNone}, nil
	}
	return Verdict{Action: ActionNone, AutoReply: reply}, nil
}

// matchAutoReply returns the response of the first rule whose trigger is a
// case-insensitive substring of the text. Rules arrive longest trigger first,
// so the most specific rule wins.
func (m *Moderator) matchAutoReply(chatID int64, text string) (string, error) {
	rules, err := m.store.AutoReplies(chatID)
	if err != nil {
		return "", err
	}

	lower := strings.ToLower(text)
	for _, rule := range rules {
		if strings.Contains(lower, strings.ToLower(rule.Trigger)) {
			return rule.Response, nil
		}
	}
	return "", nil
}
