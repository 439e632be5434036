package services

import (
	"regexp"
	"strings"
	"unicode"
)

type replacement struct {
	pattern *regexp.Regexp
	with    string
}

var humanizeReplacements = []replacement{
	{regexp.MustCompile(`(?i)\bI am\b`), "I'm"},
	{regexp.MustCompile(`(?i)\bwill not\b`), "won't"},
	{regexp.MustCompile(`(?i)\bcan not\b`), "can't"},
	{regexp.MustCompile(`(?i)\bplease\b`), "pretty please"},
	{regexp.MustCompile(`(?i)\btherefore\b`), "so"},
	{regexp.MustCompile(`(?i)\bhowever\b`), "but"},
	{regexp.MustCompile(`(?i)\bcommence\b`), "start"},
	{regexp.MustCompile(`(?i)\bterminate\b`), "end"},
	{regexp.MustCompile(`(?i)\butilize\b`), "use"},
	{regexp.MustCompile(`(?i)\bregarding\b`), "about"},
}

var sanitizeRe = regexp.MustCompile(`[^\w\s.,!?@]`)

// Humanize rewrites stiff, formal text into something conversational using a
// fixed substitution table. It is intentionally dumb: no network calls, no
// state.
func Humanize(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return "Hey, you didn't say anything! 😅"
	}

	for _, r := range humanizeReplacements {
		text = r.pattern.ReplaceAllString(text, r.with)
	}

	words := len(strings.Fields(text))
	runes := []rune(text)
	if words > 10 {
		text = "You know, " + string(unicode.ToLower(runes[0])) + string(runes[1:])
	} else if words > 5 {
		text = "Like, " + string(unicode.ToLower(runes[0])) + string(runes[1:])
	}

	if !strings.HasSuffix(text, "!") && !strings.HasSuffix(text, "?") {
		text = strings.TrimSuffix(text, ".") + ", alright?"
	}

	runes = []rune(text)
	return string(unicode.ToUpper(runes[0])) + string(runes[1:])
}

// SanitizeInput trims, caps, and strips characters that have no business in a
// prompt.
func SanitizeInput(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) > 500 {
		text = string(runes[:500])
	}
	return sanitizeRe.ReplaceAllString(text, "")
}
