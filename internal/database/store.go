package database

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// WarnThreshold is the warning count at which a user is banned.
const WarnThreshold = 3

var ErrNotFound = errors.New("record not found")

// Store owns all persistent entities. Handlers may interleave while waiting
// on the network, so every read-modify-write unit runs under the store mutex;
// callers never hold references into the store's rows.
type Store struct {
	mu  sync.Mutex
	db  *gorm.DB
	log zerolog.Logger

	defaultImage string
}

func Open(path, defaultImage string, log zerolog.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.AutoMigrate(
		&ChatSettings{},
		&Warning{},
		&UserStat{},
		&VerifiedUser{},
		&AutoReply{},
		&PollRecord{},
	)
	if err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &Store{
		db:           db,
		log:          log.With().Str("component", "store").Logger(),
		defaultImage: defaultImage,
	}, nil
}

// Close allows in-flight writes to finish before closing the underlying
// connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Settings returns the chat's settings, or the defaults when the chat has
// never been configured.
func (s *Store) Settings(chatID int64) ChatSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settingsLocked(chatID)
}

func (s *Store) settingsLocked(chatID int64) ChatSettings {
	var settings ChatSettings
	err := s.db.Where("chat_id = ?", chatID).First(&settings).Error
	if err != nil {
		return ChatSettings{
			ChatID:         chatID,
			WelcomeEnabled: true,
			WelcomeImage:   s.defaultImage,
			GoodbyeEnabled: true,
			AutoManagement: true,
		}
	}
	if settings.WelcomeImage == "" {
		settings.WelcomeImage = s.defaultImage
	}
	return settings
}

// UpdateSettings applies mutate to the chat's current settings and upserts the
// result as one unit.
func (s *Store) UpdateSettings(chatID int64, mutate func(*ChatSettings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := s.settingsLocked(chatID)
	mutate(&settings)
	settings.ChatID = chatID
	settings.UpdatedAt = time.Now()

	err := s.db.Save(&settings).Error
	if err != nil {
		s.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to save chat settings")
		return fmt.Errorf("save chat settings: %w", err)
	}
	return nil
}

// AddWarning increments the warning counter and flips banned once the count
// reaches the threshold. The whole transition is a single unit so interleaved
// handlers cannot lose an increment.
func (s *Store) AddWarning(chatID, userID int64, now time.Time) (count int, banned bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var w Warning
	res := s.db.Where("chat_id = ? AND user_id = ?", chatID, userID).First(&w)
	if res.Error != nil {
		w = Warning{ChatID: chatID, UserID: userID}
	}

	w.Count++
	w.LastWarn = now
	if w.Count >= WarnThreshold {
		w.Banned = true
	}

	if err := s.db.Save(&w).Error; err != nil {
		s.log.Error().Err(err).Int64("chat_id", chatID).Int64("user_id", userID).
			Msg("failed to save warning")
		return 0, false, fmt.Errorf("save warning: %w", err)
	}
	return w.Count, w.Banned, nil
}

// SetBanned records the ban flag without touching the counter.
func (s *Store) SetBanned(chatID, userID int64, banned bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var w Warning
	res := s.db.Where("chat_id = ? AND user_id = ?", chatID, userID).First(&w)
	if res.Error != nil {
		w = Warning{ChatID: chatID, UserID: userID}
	}
	w.Banned = banned

	if err := s.db.Save(&w).Error; err != nil {
		return fmt.Errorf("save ban status: %w", err)
	}
	return nil
}

// WarningInfo returns the current count and ban flag; a missing row means no
// warnings.
func (s *Store) WarningInfo(chatID, userID int64) (count int, banned bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var w Warning
	if s.db.Where("chat_id = ? AND user_id = ?", chatID, userID).First(&w).Error != nil {
		return 0, false
	}
	return w.Count, w.Banned
}

func (s *Store) IncrementMessageCount(chatID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stat UserStat
	res := s.db.Where("chat_id = ? AND user_id = ?", chatID, userID).First(&stat)
	if res.Error != nil {
		stat = UserStat{ChatID: chatID, UserID: userID}
	}
	stat.MessageCount++

	if err := s.db.Save(&stat).Error; err != nil {
		return fmt.Errorf("save user stat: %w", err)
	}
	return nil
}

func (s *Store) MessageCount(chatID, userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stat UserStat
	if s.db.Where("chat_id = ? AND user_id = ?", chatID, userID).First(&stat).Error != nil {
		return 0
	}
	return stat.MessageCount
}

func (s *Store) AddVerified(chatID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var existing VerifiedUser
	if s.db.Where("chat_id = ? AND user_id = ?", chatID, userID).First(&existing).Error == nil {
		return nil
	}

	v := VerifiedUser{ChatID: chatID, UserID: userID, CreatedAt: time.Now()}
	if err := s.db.Create(&v).Error; err != nil {
		return fmt.Errorf("add verified user: %w", err)
	}
	return nil
}

// RemoveVerified revokes a user's moderation exemption. Removing a user who
// was never verified reports ErrNotFound.
func (s *Store) RemoveVerified(chatID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.db.Where("chat_id = ? AND user_id = ?", chatID, userID).Delete(&VerifiedUser{})
	if res.Error != nil {
		return fmt.Errorf("remove verified user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) IsVerified(chatID, userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	s.db.Model(&VerifiedUser{}).Where("chat_id = ? AND user_id = ?", chatID, userID).Count(&count)
	return count > 0
}

func (s *Store) AddAutoReply(chatID int64, trigger, response string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var existing AutoReply
	res := s.db.Where("chat_id = ? AND trigger = ?", chatID, trigger).First(&existing)
	if res.Error == nil {
		existing.Response = response
		if err := s.db.Save(&existing).Error; err != nil {
			return fmt.Errorf("update auto-reply: %w", err)
		}
		return nil
	}

	rule := AutoReply{ChatID: chatID, Trigger: trigger, Response: response, CreatedAt: time.Now()}
	if err := s.db.Create(&rule).Error; err != nil {
		return fmt.Errorf("add auto-reply: %w", err)
	}
	return nil
}

func (s *Store) RemoveAutoReply(chatID int64, trigger string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.db.Where("chat_id = ? AND trigger = ?", chatID, trigger).Delete(&AutoReply{})
	if res.Error != nil {
		return fmt.Errorf("remove auto-reply: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AutoReplies returns the chat's rules with the longest trigger first so the
// most specific rule wins; equal lengths keep insertion order.
func (s *Store) AutoReplies(chatID int64) ([]AutoReply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rules []AutoReply
	err := s.db.Where("chat_id = ?", chatID).Order("created_at ASC").Find(&rules).Error
	if err != nil {
		return nil, fmt.Errorf("load auto-replies: %w", err)
	}

	sort.SliceStable(rules, func(i, j int) bool {
		return len(rules[i].Trigger) > len(rules[j].Trigger)
	})
	return rules, nil
}
