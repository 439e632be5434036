package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHumanize(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("Hey, you didn't say anything! 😅", Humanize(""))
	assert.Equal("Hey, you didn't say anything! 😅", Humanize("   "))

	assert.Equal("I'm happy, alright?", Humanize("I am happy."))
	assert.Equal("Stop it!", Humanize("Stop it!"))
	assert.Equal("Really?", Humanize("Really?"))

	// Contractions and casual swaps.
	assert.Equal("I won't use that, alright?", Humanize("I will not utilize that."))
	assert.Equal("But, alright?", Humanize("However."))
}

func TestHumanizePrefixesLongerText(t *testing.T) {
	assert := assert.New(t)

	got := Humanize("The meeting starts at noon today ok")
	assert.True(strings.HasPrefix(got, "Like, the meeting"), got)

	got = Humanize("The quarterly meeting starts at noon today in the big conference room")
	assert.True(strings.HasPrefix(got, "You know, the quarterly"), got)
}

func TestSanitizeInput(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("Hello world 1!", SanitizeInput("  Hello <world> #1!  "))
	assert.Equal("whats up, @bot?", SanitizeInput("what's up, @bot?"))
	assert.Equal("", SanitizeInput("   "))

	long := SanitizeInput(strings.Repeat("a", 600))
	assert.Len(long, 500)
}
