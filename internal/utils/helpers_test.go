package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gopkg.in/telebot.v3"
)

func TestGetUserDisplayName(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("Alice", GetUserDisplayName(&telebot.User{FirstName: "Alice", Username: "alice99"}))
	assert.Equal("alice99", GetUserDisplayName(&telebot.User{Username: "alice99"}))
	assert.Equal("Anonymous", GetUserDisplayName(&telebot.User{}))
}

func TestCreateUserMention(t *testing.T) {
	mention := CreateUserMention(&telebot.User{ID: 42, FirstName: "A<b>"})
	assert.Equal(t, `<a href="tg://user?id=42">A&lt;b&gt;</a>`, mention)
}

func TestEscapeHTML(t *testing.T) {
	assert.Equal(t, "&lt;b&gt;&amp;&quot;&#39;", EscapeHTML(`<b>&"'`))
}

func TestRenderTemplate(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("Hi Alice, welcome Alice!", RenderTemplate("Hi {name}, welcome {name}!", "Alice"))
	assert.Equal("No placeholder", RenderTemplate("No placeholder", "Alice"))
}

func TestParseDurationArg(t *testing.T) {
	assert := assert.New(t)
	fallback := 24 * time.Hour

	assert.Equal(90*time.Second, ParseDurationArg("90s", fallback))
	assert.Equal(15*time.Minute, ParseDurationArg("15m", fallback))
	assert.Equal(2*time.Hour, ParseDurationArg("2h", fallback))

	assert.Equal(fallback, ParseDurationArg("", fallback))
	assert.Equal(fallback, ParseDurationArg("5", fallback))
	assert.Equal(fallback, ParseDurationArg("5d", fallback))
	assert.Equal(fallback, ParseDurationArg("-5m", fallback))
	assert.Equal(fallback, ParseDurationArg("abc", fallback))
}

func TestFormatDuration(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("90s", FormatDuration(90*time.Second))
	assert.Equal("15m", FormatDuration(15*time.Minute))
	assert.Equal("24h", FormatDuration(24*time.Hour))
	assert.Equal("90m", FormatDuration(90*time.Minute))
}
