package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/telebot.v3"
)

// GetUserDisplayName returns FirstName if present, then Username.
func GetUserDisplayName(user *telebot.User) string {
	if user.FirstName != "" {
		return user.FirstName
	}
	if user.Username != "" {
		return user.Username
	}
	return "Anonymous"
}

// CreateUserMention creates a linked mention for HTML parse mode.
func CreateUserMention(user *telebot.User) string {
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, user.ID, EscapeHTML(GetUserDisplayName(user)))
}

// EscapeHTML escapes text for HTML parse mode.
func EscapeHTML(text string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&#39;",
	)
	return replacer.Replace(text)
}

// RenderTemplate substitutes {name} in a greeting template.
func RenderTemplate(template, name string) string {
	return strings.ReplaceAll(template, "{name}", name)
}

// ParseDurationArg parses an integer with an s/m/h suffix. Invalid input
// falls back to the command's documented default.
func ParseDurationArg(s string, fallback time.Duration) time.Duration {
	if len(s) < 2 {
		return fallback
	}
	value, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || value <= 0 {
		return fallback
	}
	switch s[len(s)-1] {
	case 's':
		return time.Duration(value) * time.Second
	case 'm':
		return time.Duration(value) * time.Minute
	case 'h':
		return time.Duration(value) * time.Hour
	}
	return fallback
}

// FormatDuration renders a duration the way users typed it: 90s, 15m, 24h.
func FormatDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return fmt.Sprintf("%dh", int(d/time.Hour))
	case d >= time.Minute && d%time.Minute == 0:
		return fmt.Sprintf("%dm", int(d/time.Minute))
	default:
		return fmt.Sprintf("%ds", int(d/time.Second))
	}
}
