package database

import (
	"time"
)

// ChatSettings carries the per-chat toggles and greeting templates. A chat
// without a row behaves as if everything is enabled with the default image.
type ChatSettings struct {
	ChatID         int64 `gorm:"primaryKey"`
	WelcomeEnabled bool
	WelcomeText    string `gorm:"type:text"`
	WelcomeImage   string
	GoodbyeEnabled bool
	GoodbyeText    string `gorm:"type:text"`
	AutoManagement bool
	UpdatedAt      time.Time
}

// Warning is the per-(chat, user) escalation counter. Count never decreases;
// unbanning only clears the flag.
type Warning struct {
	ID       uint  `gorm:"primaryKey"`
	ChatID   int64 `gorm:"uniqueIndex:idx_warn_chat_user"`
	UserID   int64 `gorm:"uniqueIndex:idx_warn_chat_user"`
	Count    int
	LastWarn time.Time
	Banned   bool
}

type UserStat struct {
	ID           uint  `gorm:"primaryKey"`
	ChatID       int64 `gorm:"uniqueIndex:idx_stat_chat_user"`
	UserID       int64 `gorm:"uniqueIndex:idx_stat_chat_user"`
	MessageCount int
}

type VerifiedUser struct {
	ID        uint  `gorm:"primaryKey"`
	ChatID    int64 `gorm:"uniqueIndex:idx_verified_chat_user"`
	UserID    int64 `gorm:"uniqueIndex:idx_verified_chat_user"`
	CreatedAt time.Time
}

type AutoReply struct {
	ID        uint   `gorm:"primaryKey"`
	ChatID    int64  `gorm:"uniqueIndex:idx_reply_chat_trigger"`
	Trigger   string `gorm:"uniqueIndex:idx_reply_chat_trigger"`
	Response  string `gorm:"type:text"`
	CreatedAt time.Time
}

// PollRecord is the durable form of an open poll. Options, votes and voters
// are JSON blobs; the poll engine is the only reader and writer.
type PollRecord struct {
	MsgID          int   `gorm:"primaryKey"`
	ChatID         int64 `gorm:"index"`
	Question       string
	Options        string `gorm:"type:text"`
	Votes          string `gorm:"type:text"`
	Voters         string `gorm:"type:text"`
	CreatedAt      time.Time
	TimeoutSeconds int
}
