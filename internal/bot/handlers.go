package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/telebot.v3"

	"groupwarden/internal/database"
	"groupwarden/internal/moderation"
	"groupwarden/internal/polls"
	"groupwarden/internal/services"
	"groupwarden/internal/utils"
)

// HandleStart handles /start in private and group chats.
func (b *Bot) HandleStart(c telebot.Context) error {
	if c.Chat().ID > 0 {
		markup := &telebot.ReplyMarkup{
			InlineKeyboard: [][]telebot.InlineButton{
				{{Text: "➕ Add to Group", URL: fmt.Sprintf("https://t.me/%s?startgroup=true", b.config.BotUsername)}},
				{{Text: "🤖 AI Chat", Data: "ai_chat"}},
			},
		}
		photo := &telebot.Photo{
			File:    telebot.FromURL(b.config.WelcomeImage),
			Caption: getPrivateStartText(),
		}
		return b.reply(c, photo, &telebot.SendOptions{
			ParseMode:   telebot.ModeHTML,
			ReplyMarkup: markup,
		})
	}

	return b.reply(c, "Hello! I'm ready to assist in this group.\n\n"+
		"Use /start in a private chat to see all features.", htmlOpts)
}

// HandleHelp handles /help.
func (b *Bot) HandleHelp(c telebot.Context) error {
	return b.reply(c, "<b>📖 Commands</b>\n\n"+
		"<b>Everyone</b>\n"+
		"/ask &lt;question&gt; - ask the AI\n"+
		"/humanize &lt;text&gt; - make text sound casual\n"+
		"/id - show chat and user IDs\n\n"+
		"<b>Admins</b>\n"+
		"/ban /unban /kick /mute /unmute - member management\n"+
		"/ro /unro - read-only mode\n"+
		"/warn /verify /unverify - warnings and exemptions\n"+
		"/promote /demote - admin rights\n"+
		"/pin /unpin /del /purge /clean - message management\n"+
		"/setwelcome /setgoodbye /welcome /goodbye - greetings\n"+
		"/filter /stop /filters - auto-replies\n"+
		"/toggleauto - moderation on/off\n"+
		"/poll \"question\" options... [30s|5m|1h] - timed poll\n"+
		"/userinfo /chatinfo /admins /stats - information", htmlOpts)
}

// HandleUserJoined greets new members, or introduces the bot when it is the
// one being added.
func (b *Bot) HandleUserJoined(c telebot.Context) error {
	if c.Chat().ID > 0 {
		return nil
	}

	settings := b.store.Settings(c.Chat().ID)
	if !settings.AutoManagement || !settings.WelcomeEnabled {
		return nil
	}

	for i := range c.Message().UsersJoined {
		user := &c.Message().UsersJoined[i]

		if user.ID == b.telebot.Me.ID {
			photo := &telebot.Photo{
				File: telebot.FromURL(settings.WelcomeImage),
				Caption: "🙏 Thank you for adding me to this group!\n\n" +
					"I can help with:\n" +
					"- Answering questions\n" +
					"- Managing the group\n" +
					"- Humanizing text\n" +
					"Use /start to see all options.",
			}
			b.reply(c, photo, htmlOpts)
			continue
		}
		if user.IsBot {
			continue
		}

		displayName := utils.GetUserDisplayName(user)
		var greeting string
		if settings.WelcomeText != "" {
			greeting = utils.RenderTemplate(settings.WelcomeText, utils.EscapeHTML(displayName))
		} else {
			generated, err := b.aiSvc.GenerateWelcome(context.Background(), displayName)
			if err != nil {
				greeting = fmt.Sprintf("👋 Welcome, %s!", utils.CreateUserMention(user))
			} else {
				greeting = generated
			}
		}

		photo := &telebot.Photo{
			File:    telebot.FromURL(settings.WelcomeImage),
			Caption: greeting,
		}
		b.reply(c, photo, htmlOpts)

		b.log.Info().Int64("chat_id", c.Chat().ID).Int64("user_id", user.ID).
			Msg("welcomed new member")
	}

	return nil
}

// HandleUserLeft says goodbye to departing members.
func (b *Bot) HandleUserLeft(c telebot.Context) error {
	if c.Chat().ID > 0 {
		return nil
	}

	settings := b.store.Settings(c.Chat().ID)
	if !settings.AutoManagement || !settings.GoodbyeEnabled {
		return nil
	}

	user := c.Message().UserLeft
	if user == nil || user.IsBot {
		return nil
	}

	var farewell string
	if settings.GoodbyeText != "" {
		farewell = utils.RenderTemplate(settings.GoodbyeText, utils.EscapeHTML(utils.GetUserDisplayName(user)))
	} else {
		farewell = fmt.Sprintf("👋 %s has left the group.", utils.CreateUserMention(user))
	}

	return b.reply(c, farewell, htmlOpts)
}

// HandleText is the moderation pipeline for every group text message.
func (b *Bot) HandleText(c telebot.Context) error {
	m := c.Message()
	if m.Chat.ID > 0 || m.Sender == nil || m.Sender.IsBot {
		return nil
	}

	settings := b.store.Settings(m.Chat.ID)
	if !settings.AutoManagement {
		return nil
	}

	verdict, err := b.moderator.ProcessMessage(context.Background(), m.Chat.ID, m.Sender.ID, m.Text, time.Now())
	if err != nil {
		b.log.Error().Err(err).Int64("chat_id", m.Chat.ID).Msg("moderation failed")
		return nil
	}

	switch verdict.Action {
	case moderation.ActionFloodWarn:
		return b.reply(c, "⚠️ Slow down! You're sending messages too fast.")

	case moderation.ActionDeleteAndWarn:
		b.deleteMessage(c)
		markup := &telebot.ReplyMarkup{
			InlineKeyboard: [][]telebot.InlineButton{{
				{Text: "📩 Appeal", Data: "appeal_warning"},
			}},
		}
		return b.reply(c, fmt.Sprintf(
			"⚠️ %s, your message was removed for being inappropriate. Warning %d/%d.",
			utils.CreateUserMention(m.Sender), verdict.WarningCount, database.WarnThreshold),
			&telebot.SendOptions{ParseMode: telebot.ModeHTML, ReplyMarkup: markup})

	case moderation.ActionBan:
		b.deleteMessage(c)
		// The ban flag is already persisted; enforce it on the transport.
		member := &telebot.ChatMember{User: m.Sender, RestrictedUntil: telebot.Forever()}
		if err := b.telebot.Ban(m.Chat, member); err != nil {
			// Store and chat now disagree; shout about it.
			b.log.Error().Err(err).Int64("chat_id", m.Chat.ID).Int64("user_id", m.Sender.ID).
				Msg("ban recorded in store but transport ban failed")
			return b.reply(c, "❌ Failed to ban user.", htmlOpts)
		}
		return b.reply(c, fmt.Sprintf(
			"🚫 %s has been banned for reaching %d warnings.",
			utils.CreateUserMention(m.Sender), database.WarnThreshold), htmlOpts)
	}

	if verdict.AutoReply != "" {
		return b.reply(c, verdict.AutoReply, htmlOpts)
	}
	return nil
}

// deleteMessage removes the context message, tolerating messages that are
// already gone.
func (b *Bot) deleteMessage(c telebot.Context) {
	if err := b.telebot.Delete(c.Message()); err != nil {
		b.log.Debug().Err(err).Int64("chat_id", c.Chat().ID).
			Int("msg_id", c.Message().ID).Msg("delete failed, likely already deleted")
	}
}

// HandleAsk handles /ask: forwards the question to the LLM.
func (b *Bot) HandleAsk(c telebot.Context) error {
	question := services.SanitizeInput(c.Message().Payload)
	if question == "" {
		return b.reply(c, "Please ask a question.\nExample: <code>/ask What is a solar eclipse?</code>", htmlOpts)
	}

	statusMsg, err := b.telebot.Reply(c.Message(), "🧠 Thinking...")
	if err != nil {
		b.log.Error().Err(err).Msg("failed to send status message")
	}

	answer, err := b.aiSvc.Ask(context.Background(), question)
	if statusMsg != nil {
		b.telebot.Delete(statusMsg)
	}
	if err != nil {
		return b.reply(c, "❌ Sorry, I couldn't process your question.")
	}

	return b.reply(c, fmt.Sprintf("🧠 %s", utils.EscapeHTML(answer)), htmlOpts)
}

// HandleHumanize handles /humanize: rewrites stiff text conversationally.
func (b *Bot) HandleHumanize(c telebot.Context) error {
	text := services.SanitizeInput(c.Message().Payload)
	if text == "" {
		return b.reply(c, "Please provide text to humanize.\nExample: <code>/humanize I am commencing the utilization of this bot.</code>", htmlOpts)
	}
	return b.reply(c, utils.EscapeHTML(services.Humanize(text)))
}

// HandlePoll handles /poll: creates a timed poll with vote buttons.
func (b *Bot) HandlePoll(c telebot.Context) error {
	if !b.requireGroupAdmin(c) {
		return nil
	}

	question, options, timeout, err := polls.ParseCommand(c.Message().Payload)
	if err != nil {
		return b.reply(c, "❌ Invalid poll format: <code>/poll \"Question?\" option1 option2 [timeout]</code>", htmlOpts)
	}

	photo := &telebot.Photo{
		File:    telebot.FromURL(b.config.WelcomeImage),
		Caption: fmt.Sprintf("<b>📊 Poll</b>: %s\n\nTap to vote:", utils.EscapeHTML(question)),
	}
	sent, err := b.telebot.Reply(c.Message(), photo, htmlOpts)
	if err != nil {
		b.log.Error().Err(err).Int64("chat_id", c.Chat().ID).Msg("failed to send poll card")
		return b.reply(c, "❌ Failed to create poll.")
	}
	b.track(sent.Chat.ID, sent.ID)

	poll, err := b.polls.Create(c.Chat().ID, sent.ID, question, options, timeout)
	if err != nil {
		b.telebot.Delete(sent)
		return b.reply(c, "❌ Failed to create poll.")
	}

	if _, err = b.telebot.EditReplyMarkup(sent, voteKeyboard(poll)); err != nil {
		b.log.Error().Err(err).Int("msg_id", sent.ID).Msg("failed to attach vote buttons")
	}
	return nil
}

// voteKeyboard renders one button per option with its current tally.
func voteKeyboard(p *polls.Poll) *telebot.ReplyMarkup {
	rows := make([][]telebot.InlineButton, 0, len(p.Options))
	for i, opt := range p.Options {
		rows = append(rows, []telebot.InlineButton{{
			Text: fmt.Sprintf("%s (%d)", opt, p.Votes[i]),
			Data: fmt.Sprintf("vote_%d_%d", i, p.MsgID),
		}})
	}
	return &telebot.ReplyMarkup{InlineKeyboard: rows}
}

// PollClosed implements polls.Notifier: announces the outcome in the chat.
func (b *Bot) PollClosed(chatID int64, msgID int, outcome polls.Outcome) {
	var results strings.Builder
	for _, r := range outcome.Results {
		fmt.Fprintf(&results, "• %s: %d vote(s)\n", utils.EscapeHTML(r.Label), r.Count)
	}

	winnerText := "No votes"
	if len(outcome.Winners) > 0 {
		escaped := make([]string, 0, len(outcome.Winners))
		for _, w := range outcome.Winners {
			escaped = append(escaped, utils.EscapeHTML(w))
		}
		winnerText = strings.Join(escaped, ", ")
	}

	b.send(chatID, fmt.Sprintf("🏁 Poll ended! Winner(s): <b>%s</b>\n\nResults:\n%s",
		winnerText, results.String()), htmlOpts)

	// Best effort: the poll message keeps its buttons otherwise.
	stored := telebot.StoredMessage{MessageID: strconv.Itoa(msgID), ChatID: chatID}
	if _, err := b.telebot.EditReplyMarkup(stored, &telebot.ReplyMarkup{}); err != nil {
		b.log.Debug().Err(err).Int("msg_id", msgID).Msg("could not clear poll buttons")
	}
}

// HandleCallback dispatches button presses: poll votes, confirmation tokens,
// and warning appeals.
func (b *Bot) HandleCallback(c telebot.Context) error {
	data := strings.TrimPrefix(strings.TrimSpace(c.Callback().Data), "\f")

	switch {
	case strings.HasPrefix(data, "vote_"):
		return b.handleVote(c, data)
	case strings.HasPrefix(data, "confirm_"), strings.HasPrefix(data, "cancel_"):
		return b.handleConfirmation(c, data)
	case data == "appeal_warning":
		c.Respond(&telebot.CallbackResponse{})
		return b.reply(c, "📩 Please contact an admin to appeal this warning.")
	case data == "ai_chat":
		c.Respond(&telebot.CallbackResponse{})
		return b.reply(c, "Type your question with <code>/ask [question]</code>\nExample: <code>/ask What is a solar eclipse?</code>", htmlOpts)
	}

	return c.Respond(&telebot.CallbackResponse{})
}

func (b *Bot) handleVote(c telebot.Context, data string) error {
	parts := strings.Split(data, "_")
	if len(parts) != 3 {
		return c.Respond(&telebot.CallbackResponse{Text: "❌ Bad vote data."})
	}
	option, err1 := strconv.Atoi(parts[1])
	msgID, err2 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil {
		return c.Respond(&telebot.CallbackResponse{Text: "❌ Bad vote data."})
	}

	poll, err := b.polls.Vote(msgID, c.Sender().ID, option)
	switch {
	case errors.Is(err, polls.ErrPollNotFound):
		return c.Respond(&telebot.CallbackResponse{Text: "❌ This poll has ended."})
	case errors.Is(err, polls.ErrAlreadyVoted):
		return c.Respond(&telebot.CallbackResponse{Text: "⚠️ You've already voted!"})
	case err != nil:
		b.log.Error().Err(err).Int("msg_id", msgID).Msg("vote failed")
		return c.Respond(&telebot.CallbackResponse{Text: "❌ Vote failed, try again."})
	}

	// The vote is durable at this point; the button refresh is cosmetic.
	if _, err := b.telebot.EditReplyMarkup(c.Callback().Message, voteKeyboard(poll)); err != nil {
		b.log.Debug().Err(err).Int("msg_id", msgID).Msg("could not refresh vote buttons")
	}
	return c.Respond(&telebot.CallbackResponse{Text: "✅ Voted successfully!"})
}

func getPrivateStartText() string {
	return `🌟 Hello! I'm your group management assistant.

I can help you with:
- Answering questions (/ask)
- Managing groups: moderation, warnings, polls
- Humanizing text (/humanize)

Add me to a group and I'll keep it tidy.`
}
