package bot

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/telebot.v3"

	"groupwarden/internal/database"
	"groupwarden/internal/moderation"
	"groupwarden/internal/utils"
)

const (
	defaultMuteDuration = 24 * time.Hour
	defaultROduration   = time.Hour
	purgeLimit          = 100
)

var urlRe = regexp.MustCompile(`^https?://\S+$`)

// adminRights is the permission set granted by /promote.
var adminRights = telebot.Rights{
	CanManageChat:      true,
	CanDeleteMessages:  true,
	CanRestrictMembers: true,
	CanPinMessages:     true,
	CanInviteUsers:     true,
}

// HandlePromote handles /promote: grants admin rights to the target.
func (b *Bot) HandlePromote(c telebot.Context) error {
	if !b.requireGroupAdmin(c) {
		return nil
	}
	user, ok := b.targetUser(c)
	if !ok {
		return b.reply(c, "Please reply to a user or pass their ID: <code>/promote 123456</code>", htmlOpts)
	}

	err := b.telebot.Promote(c.Chat(), &telebot.ChatMember{User: user, Rights: adminRights})
	if err != nil {
		b.log.Error().Err(err).Int64("user_id", user.ID).Msg("promote failed")
		return b.reply(c, "❌ Failed to promote user.")
	}
	return b.reply(c, fmt.Sprintf("✅ %s has been promoted to admin.", utils.CreateUserMention(user)), htmlOpts)
}

// HandleDemote handles /demote: strips admin rights from the target.
func (b *Bot) HandleDemote(c telebot.Context) error {
	if !b.requireGroupAdmin(c) {
		return nil
	}
	user, ok := b.targetUser(c)
	if !ok {
		return b.reply(c, "Please reply to a user or pass their ID: <code>/demote 123456</code>", htmlOpts)
	}

	err := b.telebot.Promote(c.Chat(), &telebot.ChatMember{User: user, Rights: telebot.NoRights()})
	if err != nil {
		b.log.Error().Err(err).Int64("user_id", user.ID).Msg("demote failed")
		return b.reply(c, "❌ Failed to demote user.")
	}
	return b.reply(c, fmt.Sprintf("✅ %s has been demoted.", utils.CreateUserMention(user)), htmlOpts)
}

// HandleBan handles /ban: proposes a confirmation-gated ban.
func (b *Bot) HandleBan(c telebot.Context) error {
	if !b.requireGroupAdmin(c) {
		return nil
	}
	user, ok := b.targetUser(c)
	if !ok {
		return b.reply(c, "Please reply to a user or pass their ID: <code>/ban 123456</code>", htmlOpts)
	}
	return b.proposeAction(c, "ban",
		fmt.Sprintf("Are you sure you want to ban %s?", utils.CreateUserMention(user)), user)
}

// HandleUnban handles /unban: lifts a ban immediately (not destructive, no
// confirmation).
func (b *Bot) HandleUnban(c telebot.Context) error {
	if !b.requireGroupAdmin(c) {
		return nil
	}
	user, ok := b.targetUser(c)
	if !ok {
		return b.reply(c, "Please reply to a user or pass their ID: <code>/unban 123456</code>", htmlOpts)
	}

	if err := b.telebot.Unban(c.Chat(), user); err != nil {
		b.log.Error().Err(err).Int64("user_id", user.ID).Msg("unban failed")
		return b.reply(c, "❌ Failed to unban user.")
	}
	if err := b.store.SetBanned(c.Chat().ID, user.ID, false); err != nil {
		b.log.Error().Err(err).Int64("user_id", user.ID).
			Msg("unban enforced but store update failed")
	}
	return b.reply(c, fmt.Sprintf("✅ %s has been unbanned.", utils.CreateUserMention(user)), htmlOpts)
}

// HandleKick handles /kick: proposes a confirmation-gated one-time removal.
func (b *Bot) HandleKick(c telebot.Context) error {
	if !b.requireGroupAdmin(c) {
		return nil
	}
	user, ok := b.targetUser(c)
	if !ok {
		return b.reply(c, "Please reply to a user or pass their ID: <code>/kick 123456</code>", htmlOpts)
	}
	return b.proposeAction(c, "kick",
		fmt.Sprintf("Are you sure you want to kick %s?", utils.CreateUserMention(user)), user)
}

// HandleMute handles /mute [duration]: proposes a confirmation-gated mute.
func (b *Bot) HandleMute(c telebot.Context) error {
	if !b.requireGroupAdmin(c) {
		return nil
	}
	user, ok := b.targetUser(c)
	if !ok {
		return b.reply(c, "Please reply to a user or pass their ID: <code>/mute 123456 [duration]</code>", htmlOpts)
	}

	duration := defaultMuteDuration
	args := c.Args()
	if len(args) > 0 {
		duration = utils.ParseDurationArg(args[len(args)-1], defaultMuteDuration)
	}

	confirmToken, cancelToken := b.confirm.Propose("mute", user.ID, c.Chat().ID)
	b.muteMu.Lock()
	b.muteUntil[confirmToken] = duration
	b.muteMu.Unlock()

	return b.reply(c,
		fmt.Sprintf("Are you sure you want to mute %s for %s?",
			utils.CreateUserMention(user), utils.FormatDuration(duration)),
		&telebot.SendOptions{ParseMode: telebot.ModeHTML, ReplyMarkup: confirmKeyboard(confirmToken, cancelToken)})
}

// HandleUnmute handles /unmute: restores default member permissions.
func (b *Bot) HandleUnmute(c telebot.Context) error {
	return b.liftRestriction(c, "/unmute", "unmuted")
}

// HandleReadOnly handles /ro [duration]: a time-boxed full restriction,
// applied immediately.
func (b *Bot) HandleReadOnly(c telebot.Context) error {
	if !b.requireGroupAdmin(c) {
		return nil
	}
	user, ok := b.targetUser(c)
	if !ok {
		return b.reply(c, "Please reply to a user or pass their ID: <code>/ro 123456 [duration]</code>", htmlOpts)
	}

	duration := defaultROduration
	args := c.Args()
	if len(args) > 0 {
		duration = utils.ParseDurationArg(args[len(args)-1], defaultROduration)
	}

	member := &telebot.ChatMember{
		User:            user,
		Rights:          telebot.NoRights(),
		RestrictedUntil: time.Now().Add(duration).Unix(),
	}
	if err := b.telebot.Restrict(c.Chat(), member); err != nil {
		b.log.Error().Err(err).Int64("user_id", user.ID).Msg("read-only failed")
		return b.reply(c, "❌ Failed to set read-only mode.")
	}
	return b.reply(c, fmt.Sprintf("✅ %s is in read-only mode for %s.",
		utils.CreateUserMention(user), utils.FormatDuration(duration)), htmlOpts)
}

// HandleUnReadOnly handles /unro.
func (b *Bot) HandleUnReadOnly(c telebot.Context) error {
	return b.liftRestriction(c, "/unro", "removed from read-only mode")
}

func (b *Bot) liftRestriction(c telebot.Context, command, done string) error {
	if !b.requireGroupAdmin(c) {
		return nil
	}
	user, ok := b.targetUser(c)
	if !ok {
		return b.reply(c, fmt.Sprintf("Please reply to a user or pass their ID: <code>%s 123456</code>", command), htmlOpts)
	}

	member := &telebot.ChatMember{User: user, Rights: telebot.NoRestrictions()}
	if err := b.telebot.Restrict(c.Chat(), member); err != nil {
		b.log.Error().Err(err).Int64("user_id", user.ID).Str("command", command).
			Msg("lift restriction failed")
		return b.reply(c, "❌ Failed to lift restriction.")
	}
	return b.reply(c, fmt.Sprintf("✅ %s has been %s.", utils.CreateUserMention(user), done), htmlOpts)
}

// HandleWarn handles /warn [reason]: proposes a confirmation-gated warning.
func (b *Bot) HandleWarn(c telebot.Context) error {
	if !b.requireGroupAdmin(c) {
		return nil
	}
	user, ok := b.targetUser(c)
	if !ok {
		return b.reply(c, "Please reply to a user or pass their ID: <code>/warn 123456 [reason]</code>", htmlOpts)
	}

	// With a reply target the whole payload is the reason; with a numeric
	// target the reason starts after the ID.
	reason := "No reason provided"
	if c.Message().ReplyTo != nil {
		if payload := strings.TrimSpace(c.Message().Payload); payload != "" {
			reason = payload
		}
	} else if args := c.Args(); len(args) > 1 {
		reason = strings.Join(args[1:], " ")
	}

	return b.proposeAction(c, "warn",
		fmt.Sprintf("Are you sure you want to warn %s for: %s?",
			utils.CreateUserMention(user), utils.EscapeHTML(reason)), user)
}

// HandleVerify handles /verify: proposes exempting a user from moderation.
func (b *Bot) HandleVerify(c telebot.Context) error {
	if !b.requireGroupAdmin(c) {
		return nil
	}
	user, ok := b.targetUser(c)
	if !ok {
		return b.reply(c, "Please reply to a user or pass their ID: <code>/verify 123456</code>", htmlOpts)
	}
	return b.proposeAction(c, "verify",
		fmt.Sprintf("Are you sure you want to verify %s?", utils.CreateUserMention(user)), user)
}

// HandleUnverify handles /unverify: revokes a user's exemption immediately.
func (b *Bot) HandleUnverify(c telebot.Context) error {
	if !b.requireGroupAdmin(c) {
		return nil
	}
	user, ok := b.targetUser(c)
	if !ok {
		return b.reply(c, "Please reply to a user or pass their ID: <code>/unverify 123456</code>", htmlOpts)
	}

	err := b.store.RemoveVerified(c.Chat().ID, user.ID)
	if errors.Is(err, database.ErrNotFound) {
		return b.reply(c, fmt.Sprintf("%s is not verified.", utils.CreateUserMention(user)), htmlOpts)
	}
	if err != nil {
		return b.reply(c, "❌ Failed to unverify user.")
	}
	return b.reply(c, fmt.Sprintf("✅ %s is no longer verified.", utils.CreateUserMention(user)), htmlOpts)
}

// handleConfirmation resolves a confirm/cancel token and executes the
// pending action.
func (b *Bot) handleConfirmation(c telebot.Context, token string) error {
	pending, err := b.confirm.Resolve(token)
	switch {
	case errors.Is(err, moderation.ErrMalformedToken):
		b.log.Warn().Str("token", token).Msg("malformed confirmation token")
		return c.Respond(&telebot.CallbackResponse{Text: "❌ Bad confirmation data."})
	case errors.Is(err, moderation.ErrTokenExpired):
		c.Respond(&telebot.CallbackResponse{})
		return c.Edit("⌛ This confirmation has expired.")
	case err != nil:
		return c.Respond(&telebot.CallbackResponse{Text: "❌ An error occurred."})
	}

	if !b.isChatAdmin(c) {
		return c.Respond(&telebot.CallbackResponse{Text: "❌ Admins only."})
	}

	if !pending.Confirmed {
		c.Respond(&telebot.CallbackResponse{})
		return c.Edit("❌ Action cancelled.")
	}

	c.Respond(&telebot.CallbackResponse{})
	return b.executeConfirmed(c, token, pending)
}

func (b *Bot) executeConfirmed(c telebot.Context, token string, pending moderation.Pending) error {
	chat := &telebot.Chat{ID: pending.ChatID}
	user := b.lookupUser(chat, pending.UserID)
	mention := utils.CreateUserMention(user)

	switch pending.Action {
	case "ban":
		// Persist first; an unenforced recorded ban is loud but recoverable,
		// an enforced unrecorded one silently lies to /userinfo.
		if err := b.store.SetBanned(pending.ChatID, pending.UserID, true); err != nil {
			return c.Edit("❌ Failed to ban user.")
		}
		member := &telebot.ChatMember{User: user, RestrictedUntil: telebot.Forever()}
		if err := b.telebot.Ban(chat, member); err != nil {
			b.log.Error().Err(err).Int64("chat_id", pending.ChatID).Int64("user_id", pending.UserID).
				Msg("ban recorded in store but transport ban failed")
			return c.Edit("❌ Failed to ban user.")
		}
		return c.Edit(fmt.Sprintf("🚫 %s has been banned.", mention), htmlOpts)

	case "kick":
		member := &telebot.ChatMember{User: user}
		if err := b.telebot.Ban(chat, member); err != nil {
			b.log.Error().Err(err).Int64("user_id", pending.UserID).Msg("kick failed")
			return c.Edit("❌ Failed to kick user.")
		}
		// Immediate unban turns the ban into a one-time removal.
		if err := b.telebot.Unban(chat, user); err != nil {
			b.log.Error().Err(err).Int64("user_id", pending.UserID).Msg("unban after kick failed")
		}
		return c.Edit(fmt.Sprintf("👢 %s has been kicked.", mention), htmlOpts)

	case "mute":
		b.muteMu.Lock()
		duration, ok := b.muteUntil[token]
		delete(b.muteUntil, token)
		b.muteMu.Unlock()
		if !ok {
			duration = defaultMuteDuration
		}

		member := &telebot.ChatMember{
			User:            user,
			Rights:          telebot.NoRights(),
			RestrictedUntil: time.Now().Add(duration).Unix(),
		}
		if err := b.telebot.Restrict(chat, member); err != nil {
			b.log.Error().Err(err).Int64("user_id", pending.UserID).Msg("mute failed")
			return c.Edit("❌ Failed to mute user.")
		}
		return c.Edit(fmt.Sprintf("🔇 %s has been muted for %s.",
			mention, utils.FormatDuration(duration)), htmlOpts)

	case "warn":
		count, banned, err := b.store.AddWarning(pending.ChatID, pending.UserID, time.Now())
		if err != nil {
			return c.Edit("❌ Failed to warn user.")
		}
		if err := c.Edit(fmt.Sprintf("⚠️ %s has been warned (%d/%d).",
			mention, count, database.WarnThreshold), htmlOpts); err != nil {
			b.log.Error().Err(err).Msg("failed to edit confirmation message")
		}
		if banned {
			member := &telebot.ChatMember{User: user, RestrictedUntil: telebot.Forever()}
			if err := b.telebot.Ban(chat, member); err != nil {
				b.log.Error().Err(err).Int64("user_id", pending.UserID).
					Msg("ban recorded in store but transport ban failed")
				return nil
			}
			b.send(pending.ChatID, fmt.Sprintf(
				"🚫 %s has been banned for reaching %d warnings.",
				mention, database.WarnThreshold), htmlOpts)
		}
		return nil

	case "verify":
		if err := b.store.AddVerified(pending.ChatID, pending.UserID); err != nil {
			return c.Edit("❌ Failed to verify user.")
		}
		return c.Edit(fmt.Sprintf("✅ %s has been verified.", mention), htmlOpts)
	}

	b.log.Warn().Str("action", pending.Action).Msg("unknown confirmed action")
	return c.Edit("❌ Unknown action.")
}

// lookupUser fetches the member for a nicer mention; falls back to a bare ID
// when the transport cannot resolve them.
func (b *Bot) lookupUser(chat *telebot.Chat, userID int64) *telebot.User {
	member, err := b.telebot.ChatMemberOf(chat, &telebot.User{ID: userID})
	if err != nil || member.User == nil {
		return &telebot.User{ID: userID}
	}
	return member.User
}

// HandlePin handles /pin: pins the replied-to message.
func (b *Bot) HandlePin(c telebot.Context) error {
	if !b.requireGroupAdmin(c) {
		return nil
	}
	if c.Message().ReplyTo == nil {
		return b.reply(c, "Please reply to a message to pin.")
	}
	if err := b.telebot.Pin(c.Message().ReplyTo); err != nil {
		b.log.Error().Err(err).Msg("pin failed")
		return b.reply(c, "❌ Failed to pin message.")
	}
	return b.reply(c, "✅ Message pinned.")
}

// HandleUnpin handles /unpin: unpins the replied-to message.
func (b *Bot) HandleUnpin(c telebot.Context) error {
	if !b.requireGroupAdmin(c) {
		return nil
	}
	if c.Message().ReplyTo == nil {
		return b.reply(c, "Please reply to a message to unpin.")
	}
	if err := b.telebot.Unpin(c.Chat(), c.Message().ReplyTo.ID); err != nil {
		b.log.Error().Err(err).Msg("unpin failed")
		return b.reply(c, "❌ Failed to unpin message.")
	}
	return b.reply(c, "✅ Message unpinned.")
}

// HandleDelete handles /del: deletes the replied-to message.
func (b *Bot) HandleDelete(c telebot.Context) error {
	if !b.requireGroupAdmin(c) {
		return nil
	}
	if c.Message().ReplyTo == nil {
		return b.reply(c, "Please reply to a message to delete.")
	}
	if err := b.telebot.Delete(c.Message().ReplyTo); err != nil {
		b.log.Error().Err(err).Msg("delete failed")
		return b.reply(c, "❌ Failed to delete message.")
	}
	return b.reply(c, "✅ Message deleted.")
}

// HandlePurge handles /purge <n>: deletes the last n messages by walking
// message IDs down from the command. Already-deleted IDs are skipped.
func (b *Bot) HandlePurge(c telebot.Context) error {
	if !b.requireGroupAdmin(c) {
		return nil
	}

	args := c.Args()
	if len(args) < 1 {
		return b.reply(c, "Please specify a number: <code>/purge 10</code>", htmlOpts)
	}
	count, err := strconv.Atoi(args[0])
	if err != nil || count <= 0 {
		return b.reply(c, "Please specify a number: <code>/purge 10</code>", htmlOpts)
	}
	if count > purgeLimit {
		count = purgeLimit
	}

	deleted := 0
	for i := 0; i <= count; i++ { // includes the /purge command itself
		stored := telebot.StoredMessage{
			MessageID: strconv.Itoa(c.Message().ID - i),
			ChatID:    c.Chat().ID,
		}
		if err := b.telebot.Delete(stored); err == nil {
			deleted++
		}
	}

	b.send(c.Chat().ID, fmt.Sprintf("✅ %d messages deleted.", deleted), htmlOpts)
	return nil
}

// HandleClean handles /clean: removes the bot's own recent messages.
func (b *Bot) HandleClean(c telebot.Context) error {
	if !b.requireGroupAdmin(c) {
		return nil
	}

	deleted := 0
	for _, msgID := range b.takeTracked(c.Chat().ID) {
		stored := telebot.StoredMessage{
			MessageID: strconv.Itoa(msgID),
			ChatID:    c.Chat().ID,
		}
		if err := b.telebot.Delete(stored); err == nil {
			deleted++
		}
	}
	return b.reply(c, fmt.Sprintf("✅ Cleaned %d bot messages.", deleted))
}

// HandleSetWelcome handles /setwelcome <text>; {name} substitutes the new
// member's name.
func (b *Bot) HandleSetWelcome(c telebot.Context) error {
	if !b.requireGroupAdmin(c) {
		return nil
	}
	text := strings.TrimSpace(c.Message().Payload)
	if text == "" {
		return b.reply(c, "Please provide a welcome message: <code>/setwelcome Welcome {name}!</code>", htmlOpts)
	}
	if err := b.store.UpdateSettings(c.Chat().ID, func(s *database.ChatSettings) {
		s.WelcomeText = text
	}); err != nil {
		return b.reply(c, "❌ Failed to save welcome message.")
	}
	return b.reply(c, "✅ Welcome message set.")
}

// HandleDelWelcome handles /delwelcome.
func (b *Bot) HandleDelWelcome(c telebot.Context) error {
	if !b.requireGroupAdmin(c) {
		return nil
	}
	if err := b.store.UpdateSettings(c.Chat().ID, func(s *database.ChatSettings) {
		s.WelcomeText = ""
	}); err != nil {
		return b.reply(c, "❌ Failed to delete welcome message.")
	}
	return b.reply(c, "✅ Welcome message deleted.")
}

// HandleSetGoodbye handles /setgoodbye <text>.
func (b *Bot) HandleSetGoodbye(c telebot.Context) error {
	if !b.requireGroupAdmin(c) {
		return nil
	}
	text := strings.TrimSpace(c.Message().Payload)
	if text == "" {
		return b.reply(c, "Please provide a goodbye message: <code>/setgoodbye Goodbye {name}!</code>", htmlOpts)
	}
	if err := b.store.UpdateSettings(c.Chat().ID, func(s *database.ChatSettings) {
		s.GoodbyeText = text
	}); err != nil {
		return b.reply(c, "❌ Failed to save goodbye message.")
	}
	return b.reply(c, "✅ Goodbye message set.")
}

// HandleDelGoodbye handles /delgoodbye.
func (b *Bot) HandleDelGoodbye(c telebot.Context) error {
	if !b.requireGroupAdmin(c) {
		return nil
	}
	if err := b.store.UpdateSettings(c.Chat().ID, func(s *database.ChatSettings) {
		s.GoodbyeText = ""
	}); err != nil {
		return b.reply(c, "❌ Failed to delete goodbye message.")
	}
	return b.reply(c, "✅ Goodbye message deleted.")
}

// HandleToggleWelcome handles /welcome on|off.
func (b *Bot) HandleToggleWelcome(c telebot.Context) error {
	return b.handleToggle(c, "/welcome", func(s *database.ChatSettings, enabled bool) {
		s.WelcomeEnabled = enabled
	}, "Welcome messages")
}

// HandleToggleGoodbye handles /goodbye on|off.
func (b *Bot) HandleToggleGoodbye(c telebot.Context) error {
	return b.handleToggle(c, "/goodbye", func(s *database.ChatSettings, enabled bool) {
		s.GoodbyeEnabled = enabled
	}, "Goodbye messages")
}

// HandleToggleAuto handles /toggleauto on|off.
func (b *Bot) HandleToggleAuto(c telebot.Context) error {
	return b.handleToggle(c, "/toggleauto", func(s *database.ChatSettings, enabled bool) {
		s.AutoManagement = enabled
	}, "Auto-management")
}

func (b *Bot) handleToggle(c telebot.Context, command string, apply func(*database.ChatSettings, bool), what string) error {
	if !b.requireGroupAdmin(c) {
		return nil
	}
	args := c.Args()
	if len(args) < 1 || (args[0] != "on" && args[0] != "off") {
		return b.reply(c, fmt.Sprintf("Please specify: <code>%s on</code> or <code>%s off</code>", command, command), htmlOpts)
	}
	enabled := args[0] == "on"

	if err := b.store.UpdateSettings(c.Chat().ID, func(s *database.ChatSettings) {
		apply(s, enabled)
	}); err != nil {
		return b.reply(c, "❌ Failed to update settings.")
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	return b.reply(c, fmt.Sprintf("✅ %s %s.", what, state))
}

// HandleSetWelcomeImage handles /setwelcomeimage <url>.
func (b *Bot) HandleSetWelcomeImage(c telebot.Context) error {
	if !b.requireGroupAdmin(c) {
		return nil
	}
	args := c.Args()
	if len(args) < 1 || !urlRe.MatchString(args[0]) {
		return b.reply(c, "Please provide a valid image URL: <code>/setwelcomeimage https://example.com/image.jpg</code>", htmlOpts)
	}
	if err := b.store.UpdateSettings(c.Chat().ID, func(s *database.ChatSettings) {
		s.WelcomeImage = args[0]
	}); err != nil {
		return b.reply(c, "❌ Failed to save welcome image.")
	}
	return b.reply(c, "✅ Welcome image set.")
}

// HandleAddFilter handles /filter <word> <response>.
func (b *Bot) HandleAddFilter(c telebot.Context) error {
	if !b.requireGroupAdmin(c) {
		return nil
	}
	args := c.Args()
	if len(args) < 2 {
		return b.reply(c, "Usage: <code>/filter word response</code>", htmlOpts)
	}
	trigger := strings.ToLower(args[0])
	response := strings.Join(args[1:], " ")

	if err := b.store.AddAutoReply(c.Chat().ID, trigger, response); err != nil {
		return b.reply(c, "❌ Failed to save auto-reply.")
	}
	return b.reply(c, fmt.Sprintf("✅ Auto-reply set for '%s'", utils.EscapeHTML(trigger)), htmlOpts)
}

// HandleRemoveFilter handles /stop <word>.
func (b *Bot) HandleRemoveFilter(c telebot.Context) error {
	if !b.requireGroupAdmin(c) {
		return nil
	}
	args := c.Args()
	if len(args) < 1 {
		return b.reply(c, "Usage: <code>/stop word</code>", htmlOpts)
	}
	trigger := strings.ToLower(args[0])

	err := b.store.RemoveAutoReply(c.Chat().ID, trigger)
	if errors.Is(err, database.ErrNotFound) {
		return b.reply(c, fmt.Sprintf("No auto-reply set for '%s'.", utils.EscapeHTML(trigger)), htmlOpts)
	}
	if err != nil {
		return b.reply(c, "❌ Failed to remove auto-reply.")
	}
	return b.reply(c, fmt.Sprintf("✅ Auto-reply for '%s' removed.", utils.EscapeHTML(trigger)), htmlOpts)
}

// HandleListFilters handles /filters.
func (b *Bot) HandleListFilters(c telebot.Context) error {
	if !b.requireGroupAdmin(c) {
		return nil
	}

	rules, err := b.store.AutoReplies(c.Chat().ID)
	if err != nil {
		return b.reply(c, "❌ Failed to load auto-replies.")
	}
	if len(rules) == 0 {
		return b.reply(c, "No auto-replies set.")
	}

	var response strings.Builder
	response.WriteString("Active auto-replies:\n")
	for _, rule := range rules {
		fmt.Fprintf(&response, "• %s: %s\n", utils.EscapeHTML(rule.Trigger), utils.EscapeHTML(rule.Response))
	}
	return b.reply(c, response.String(), htmlOpts)
}

// HandleID handles /id: shows chat and (for replies) user IDs.
func (b *Bot) HandleID(c telebot.Context) error {
	if replyTo := c.Message().ReplyTo; replyTo != nil && replyTo.Sender != nil {
		return b.reply(c, fmt.Sprintf("User ID: %d\nChat ID: %d", replyTo.Sender.ID, c.Chat().ID))
	}
	return b.reply(c, fmt.Sprintf("Chat ID: %d", c.Chat().ID))
}

// HandleUserInfo handles /userinfo: membership record for a user.
func (b *Bot) HandleUserInfo(c telebot.Context) error {
	if c.Chat().ID > 0 {
		return b.reply(c, "❌ This command only works in group chats.")
	}
	user, ok := b.targetUser(c)
	if !ok {
		return b.reply(c, "Please reply to a user or pass their ID: <code>/userinfo 123456</code>", htmlOpts)
	}

	msgCount := b.store.MessageCount(c.Chat().ID, user.ID)
	warnCount, banned := b.store.WarningInfo(c.Chat().ID, user.ID)
	verified := b.store.IsVerified(c.Chat().ID, user.ID)

	return b.reply(c, fmt.Sprintf(
		"<b>👤 User Info</b>\n\n"+
			"Name: %s\n"+
			"ID: %d\n"+
			"Messages: %d\n"+
			"Warnings: %d/%d\n"+
			"Banned: %s\n"+
			"Verified: %s",
		utils.CreateUserMention(user), user.ID, msgCount,
		warnCount, database.WarnThreshold, yesNo(banned), yesNo(verified)), htmlOpts)
}

// HandleStats handles /stats: compact activity summary for a user.
func (b *Bot) HandleStats(c telebot.Context) error {
	if c.Chat().ID > 0 {
		return b.reply(c, "❌ This command only works in group chats.")
	}
	user, ok := b.targetUser(c)
	if !ok {
		return b.reply(c, "Please reply to a user or pass their ID: <code>/stats 123456</code>", htmlOpts)
	}

	msgCount := b.store.MessageCount(c.Chat().ID, user.ID)
	warnCount, banned := b.store.WarningInfo(c.Chat().ID, user.ID)

	return b.reply(c, fmt.Sprintf(
		"<b>📊 Stats for %s</b>\n\n"+
			"Messages: %d\n"+
			"Warnings: %d/%d\n"+
			"Banned: %s",
		utils.CreateUserMention(user), msgCount,
		warnCount, database.WarnThreshold, yesNo(banned)), htmlOpts)
}

// HandleChatInfo handles /chatinfo.
func (b *Bot) HandleChatInfo(c telebot.Context) error {
	if c.Chat().ID > 0 {
		return b.reply(c, "❌ This command only works in group chats.")
	}

	chat := c.Chat()
	members, err := b.telebot.Len(chat)
	if err != nil {
		b.log.Error().Err(err).Int64("chat_id", chat.ID).Msg("member count failed")
		members = 0
	}

	return b.reply(c, fmt.Sprintf(
		"<b>🏛 Chat Info</b>\n\n"+
			"Title: %s\n"+
			"ID: %d\n"+
			"Type: %s\n"+
			"Members: %d",
		utils.EscapeHTML(chat.Title), chat.ID, chat.Type, members), htmlOpts)
}

// HandleAdmins handles /admins: lists the chat's administrators.
func (b *Bot) HandleAdmins(c telebot.Context) error {
	if c.Chat().ID > 0 {
		return b.reply(c, "❌ This command only works in group chats.")
	}

	admins, err := b.telebot.AdminsOf(c.Chat())
	if err != nil {
		b.log.Error().Err(err).Int64("chat_id", c.Chat().ID).Msg("admin list failed")
		return b.reply(c, "❌ Failed to fetch admins.")
	}
	if len(admins) == 0 {
		return b.reply(c, "No admins found.")
	}

	var response strings.Builder
	response.WriteString("<b>👑 Admins</b>\n\n")
	for _, admin := range admins {
		if admin.User == nil {
			continue
		}
		fmt.Fprintf(&response, "• %s\n", utils.CreateUserMention(admin.User))
	}
	return b.reply(c, response.String(), htmlOpts)
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
