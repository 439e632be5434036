package polls

import (
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	MinOptions = 2
	MaxOptions = 10

	DefaultTimeout = 60 * time.Second
)

var (
	ErrUsage        = errors.New(`usage: /poll "Question?" option1 option2 [option3 ...] [timeout]`)
	ErrPollNotFound = errors.New("poll not found")
	ErrAlreadyVoted = errors.New("already voted")
	ErrBadOption    = errors.New("option index out of range")
)

// Poll is an open poll. MsgID is the identifier of the chat message carrying
// the vote buttons and doubles as the poll's key.
type Poll struct {
	MsgID     int
	ChatID    int64
	Question  string
	Options   []string
	Votes     map[int]int
	Voters    map[int64]struct{}
	CreatedAt time.Time
	Timeout   time.Duration
}

// Deadline is the instant the poll closes automatically.
func (p *Poll) Deadline() time.Time {
	return p.CreatedAt.Add(p.Timeout)
}

func (p *Poll) clone() *Poll {
	votes := make(map[int]int, len(p.Votes))
	for k, v := range p.Votes {
		votes[k] = v
	}
	voters := make(map[int64]struct{}, len(p.Voters))
	for k := range p.Voters {
		voters[k] = struct{}{}
	}
	return &Poll{
		MsgID:     p.MsgID,
		ChatID:    p.ChatID,
		Question:  p.Question,
		Options:   append([]string(nil), p.Options...),
		Votes:     votes,
		Voters:    voters,
		CreatedAt: p.CreatedAt,
		Timeout:   p.Timeout,
	}
}

// OptionCount pairs an option label with its final tally.
type OptionCount struct {
	Label string
	Count int
}

// Outcome is the result of a closed poll. Winners is empty when nobody voted.
type Outcome struct {
	Question   string
	Winners    []string
	Results    []OptionCount
	TotalVotes int
}

func (p *Poll) outcome() Outcome {
	o := Outcome{Question: p.Question}

	maxVotes := 0
	for i, opt := range p.Options {
		n := p.Votes[i]
		o.Results = append(o.Results, OptionCount{Label: opt, Count: n})
		o.TotalVotes += n
		if n > maxVotes {
			maxVotes = n
		}
	}

	if maxVotes == 0 {
		return o
	}
	for i, opt := range p.Options {
		if p.Votes[i] == maxVotes {
			o.Winners = append(o.Winners, opt)
		}
	}
	sort.Strings(o.Winners)
	return o
}

var questionRe = regexp.MustCompile(`^"([^"]+)"\s+(.+)$`)

// ParseCommand parses the payload of a /poll command: a quoted question,
// 2-10 whitespace-separated options, and an optional trailing timeout with an
// s/m/h suffix.
func ParseCommand(payload string) (question string, options []string, timeout time.Duration, err error) {
	matches := questionRe.FindStringSubmatch(strings.TrimSpace(payload))
	if matches == nil {
		return "", nil, 0, ErrUsage
	}
	question = matches[1]
	parts := strings.Fields(matches[2])

	timeout = DefaultTimeout
	if len(parts) > 0 {
		if d, ok := parseTimeout(parts[len(parts)-1]); ok {
			timeout = d
			parts = parts[:len(parts)-1]
		}
	}

	if len(parts) < MinOptions {
		return "", nil, 0, ErrUsage
	}
	if len(parts) > MaxOptions {
		parts = parts[:MaxOptions]
	}
	return question, parts, timeout, nil
}

func parseTimeout(s string) (time.Duration, bool) {
	if len(s) < 2 {
		return 0, false
	}
	value, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || value <= 0 {
		return 0, false
	}
	switch s[len(s)-1] {
	case 's':
		return time.Duration(value) * time.Second, true
	case 'm':
		return time.Duration(value) * time.Minute, true
	case 'h':
		return time.Duration(value) * time.Hour, true
	}
	return 0, false
}
