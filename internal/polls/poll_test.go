package polls

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	assert := assert.New(t)

	question, options, timeout, err := ParseCommand(`"Lunch?" pizza sushi`)
	require.NoError(t, err)
	assert.Equal("Lunch?", question)
	assert.Equal([]string{"pizza", "sushi"}, options)
	assert.Equal(DefaultTimeout, timeout)

	question, options, timeout, err = ParseCommand(`"Best language?" go rust zig 5m`)
	require.NoError(t, err)
	assert.Equal("Best language?", question)
	assert.Equal([]string{"go", "rust", "zig"}, options)
	assert.Equal(5*time.Minute, timeout)

	_, options, timeout, err = ParseCommand(`"When?" now later 2h`)
	require.NoError(t, err)
	assert.Equal([]string{"now", "later"}, options)
	assert.Equal(2*time.Hour, timeout)

	// A bare number is an option, not a timeout.
	_, options, timeout, err = ParseCommand(`"Pick" 1 2 3`)
	require.NoError(t, err)
	assert.Equal([]string{"1", "2", "3"}, options)
	assert.Equal(DefaultTimeout, timeout)
}

func TestParseCommandRejectsBadInput(t *testing.T) {
	for _, payload := range []string{
		"",
		"no quoted question a b",
		`"Question?"`,
		`"Question?" onlyone`,
		`"Question?" onlyone 5m`,
	} {
		_, _, _, err := ParseCommand(payload)
		assert.ErrorIs(t, err, ErrUsage, "payload %q", payload)
	}
}

func TestParseCommandTruncatesOptions(t *testing.T) {
	_, options, _, err := ParseCommand(`"Pick one" a b c d e f g h i j k l`)
	require.NoError(t, err)
	assert.Len(t, options, MaxOptions)
	assert.Equal(t, "j", options[len(options)-1])
}

func TestOutcomeSingleWinner(t *testing.T) {
	assert := assert.New(t)
	p := &Poll{
		Question: "Lunch?",
		Options:  []string{"pizza", "sushi", "salad"},
		Votes:    map[int]int{0: 1, 1: 3},
	}

	o := p.outcome()
	assert.Equal([]string{"sushi"}, o.Winners)
	assert.Equal(4, o.TotalVotes)
	assert.Equal([]OptionCount{{"pizza", 1}, {"sushi", 3}, {"salad", 0}}, o.Results)
}

func TestOutcomeTieListsAllWinners(t *testing.T) {
	p := &Poll{
		Question: "Lunch?",
		Options:  []string{"sushi", "pizza"},
		Votes:    map[int]int{0: 2, 1: 2},
	}

	o := p.outcome()
	assert.Equal(t, []string{"pizza", "sushi"}, o.Winners)
}

func TestOutcomeNoVotes(t *testing.T) {
	p := &Poll{
		Question: "Lunch?",
		Options:  []string{"pizza", "sushi"},
		Votes:    map[int]int{},
	}

	o := p.outcome()
	assert.Empty(t, o.Winners)
	assert.Zero(t, o.TotalVotes)
}
