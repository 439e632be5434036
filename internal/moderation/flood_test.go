package moderation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFloodDetectorFlagsOverLimit(t *testing.T) {
	assert := assert.New(t)
	f := NewFloodDetector()
	now := time.Now()

	for i := 0; i < FloodLimit; i++ {
		assert.False(f.RecordAndCheck(1, 100, now.Add(time.Duration(i)*time.Second)))
	}
	assert.True(f.RecordAndCheck(1, 100, now.Add(5*time.Second)))
}

func TestFloodDetectorWindowRollsOff(t *testing.T) {
	assert := assert.New(t)
	f := NewFloodDetector()
	now := time.Now()

	for i := 0; i <= FloodLimit; i++ {
		f.RecordAndCheck(1, 100, now)
	}
	assert.True(f.RecordAndCheck(1, 100, now))

	// Everything before now has left the window; only this message counts.
	later := now.Add(FloodWindow + time.Second)
	assert.False(f.RecordAndCheck(1, 100, later))
}

func TestFloodDetectorIsolatesChatsAndUsers(t *testing.T) {
	assert := assert.New(t)
	f := NewFloodDetector()
	now := time.Now()

	for i := 0; i <= FloodLimit; i++ {
		f.RecordAndCheck(1, 100, now)
	}
	assert.True(f.RecordAndCheck(1, 100, now))

	assert.False(f.RecordAndCheck(2, 100, now))
	assert.False(f.RecordAndCheck(1, 200, now))
}
