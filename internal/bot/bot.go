package bot

import (
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/telebot.v3"

	"groupwarden/internal/config"
	"groupwarden/internal/database"
	"groupwarden/internal/moderation"
	"groupwarden/internal/polls"
	"groupwarden/internal/services"
)

// trackedPerChat caps how many of the bot's own message IDs are remembered
// per chat for /clean.
const trackedPerChat = 100

type Bot struct {
	config    *config.Config
	telebot   *telebot.Bot
	store     *database.Store
	aiSvc     *services.AIService
	moderator *moderation.Moderator
	confirm   *moderation.ConfirmGateway
	polls     *polls.Engine
	log       zerolog.Logger

	sentMu sync.Mutex
	sent   map[int64][]int

	muteMu    sync.Mutex
	muteUntil map[string]time.Duration
}

func New(
	cfg *config.Config,
	tgBot *telebot.Bot,
	store *database.Store,
	aiSvc *services.AIService,
	moderator *moderation.Moderator,
	confirm *moderation.ConfirmGateway,
	log zerolog.Logger,
) *Bot {
	return &Bot{
		config:    cfg,
		telebot:   tgBot,
		store:     store,
		aiSvc:     aiSvc,
		moderator: moderator,
		confirm:   confirm,
		log:       log.With().Str("component", "bot").Logger(),
		sent:      make(map[int64][]int),
		muteUntil: make(map[string]time.Duration),
	}
}

// SetPollEngine wires the poll engine after construction; the engine needs
// the bot as its notifier, so the two are tied together in main.
func (b *Bot) SetPollEngine(engine *polls.Engine) {
	b.polls = engine
}

var htmlOpts = &telebot.SendOptions{ParseMode: telebot.ModeHTML}

// reply answers the context message and remembers the sent message for
// /clean.
func (b *Bot) reply(c telebot.Context, what interface{}, opts ...interface{}) error {
	msg, err := b.telebot.Reply(c.Message(), what, opts...)
	if err != nil {
		b.log.Error().Err(err).Int64("chat_id", c.Chat().ID).Msg("failed to send reply")
		return nil // handler errors must not escape the loop
	}
	b.track(msg.Chat.ID, msg.ID)
	return nil
}

// send delivers a message to a chat the bot is not currently replying in.
func (b *Bot) send(chatID int64, what interface{}, opts ...interface{}) {
	msg, err := b.telebot.Send(&telebot.Chat{ID: chatID}, what, opts...)
	if err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send message")
		return
	}
	b.track(msg.Chat.ID, msg.ID)
}

func (b *Bot) track(chatID int64, msgID int) {
	b.sentMu.Lock()
	defer b.sentMu.Unlock()

	ids := append(b.sent[chatID], msgID)
	if len(ids) > trackedPerChat {
		ids = ids[len(ids)-trackedPerChat:]
	}
	b.sent[chatID] = ids
}

// takeTracked drains the remembered message IDs for a chat.
func (b *Bot) takeTracked(chatID int64) []int {
	b.sentMu.Lock()
	defer b.sentMu.Unlock()

	ids := b.sent[chatID]
	delete(b.sent, chatID)
	return ids
}

// isChatAdmin reports whether the sender administers the current chat.
// Private chats always pass.
func (b *Bot) isChatAdmin(c telebot.Context) bool {
	if c.Chat().ID > 0 {
		return true
	}
	member, err := b.telebot.ChatMemberOf(c.Chat(), c.Sender())
	if err != nil {
		b.log.Error().Err(err).Int64("chat_id", c.Chat().ID).
			Int64("user_id", c.Sender().ID).Msg("admin check failed")
		return false
	}
	return member.Role == telebot.Creator || member.Role == telebot.Administrator
}

// requireGroupAdmin gates admin commands; it replies with the rejection
// itself and reports whether the caller may proceed.
func (b *Bot) requireGroupAdmin(c telebot.Context) bool {
	if c.Chat().ID > 0 {
		b.reply(c, "❌ This command only works in group chats.")
		return false
	}
	if !b.isChatAdmin(c) {
		b.reply(c, "❌ This command is for admins only!")
		return false
	}
	return true
}

// targetUser resolves the subject of an admin command: the replied-to user,
// or a numeric user ID argument.
func (b *Bot) targetUser(c telebot.Context) (*telebot.User, bool) {
	if replyTo := c.Message().ReplyTo; replyTo != nil && replyTo.Sender != nil {
		return replyTo.Sender, true
	}
	args := c.Args()
	if len(args) > 0 {
		if id, err := strconv.ParseInt(args[0], 10, 64); err == nil {
			return &telebot.User{ID: id}, true
		}
	}
	return nil, false
}

// confirmKeyboard builds the confirm/cancel button pair for a proposed
// destructive action.
func confirmKeyboard(confirmToken, cancelToken string) *telebot.ReplyMarkup {
	return &telebot.ReplyMarkup{
		InlineKeyboard: [][]telebot.InlineButton{{
			{Text: "✅ Confirm", Data: confirmToken},
			{Text: "❌ Cancel", Data: cancelToken},
		}},
	}
}

// proposeAction presents the confirmation prompt for a destructive action.
func (b *Bot) proposeAction(c telebot.Context, action, prompt string, user *telebot.User) error {
	confirmToken, cancelToken := b.confirm.Propose(action, user.ID, c.Chat().ID)
	return b.reply(c, prompt, &telebot.SendOptions{
		ParseMode:   telebot.ModeHTML,
		ReplyMarkup: confirmKeyboard(confirmToken, cancelToken),
	})
}
