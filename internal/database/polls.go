package database

import (
	"encoding/json"
	"fmt"
	"time"

	"groupwarden/internal/polls"
)

// SavePoll upserts the durable form of an open poll. Option labels and the
// vote/voter sets round-trip through JSON blobs.
func (s *Store) SavePoll(p *polls.Poll) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	options, err := json.Marshal(p.Options)
	if err != nil {
		return fmt.Errorf("encode poll options: %w", err)
	}
	votes, err := json.Marshal(p.Votes)
	if err != nil {
		return fmt.Errorf("encode poll votes: %w", err)
	}
	voters := make([]int64, 0, len(p.Voters))
	for id := range p.Voters {
		voters = append(voters, id)
	}
	votersBlob, err := json.Marshal(voters)
	if err != nil {
		return fmt.Errorf("encode poll voters: %w", err)
	}

	record := PollRecord{
		MsgID:          p.MsgID,
		ChatID:         p.ChatID,
		Question:       p.Question,
		Options:        string(options),
		Votes:          string(votes),
		Voters:         string(votersBlob),
		CreatedAt:      p.CreatedAt,
		TimeoutSeconds: int(p.Timeout / time.Second),
	}

	if err := s.db.Save(&record).Error; err != nil {
		s.log.Error().Err(err).Int("msg_id", p.MsgID).Msg("failed to save poll")
		return fmt.Errorf("save poll: %w", err)
	}
	return nil
}

func (s *Store) DeletePoll(msgID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Delete(&PollRecord{}, "msg_id = ?", msgID).Error; err != nil {
		return fmt.Errorf("delete poll: %w", err)
	}
	return nil
}

// LoadPolls returns every persisted poll. Rows that no longer decode are
// dropped with a log line rather than failing the whole startup.
func (s *Store) LoadPolls() ([]*polls.Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []PollRecord
	if err := s.db.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("load polls: %w", err)
	}

	result := make([]*polls.Poll, 0, len(records))
	for _, r := range records {
		p, err := decodePoll(r)
		if err != nil {
			s.log.Error().Err(err).Int("msg_id", r.MsgID).Msg("dropping undecodable poll row")
			s.db.Delete(&PollRecord{}, "msg_id = ?", r.MsgID)
			continue
		}
		result = append(result, p)
	}
	return result, nil
}

func decodePoll(r PollRecord) (*polls.Poll, error) {
	var options []string
	if err := json.Unmarshal([]byte(r.Options), &options); err != nil {
		return nil, fmt.Errorf("decode poll options: %w", err)
	}
	votes := make(map[int]int)
	if r.Votes != "" {
		if err := json.Unmarshal([]byte(r.Votes), &votes); err != nil {
			return nil, fmt.Errorf("decode poll votes: %w", err)
		}
	}
	var voterList []int64
	if r.Voters != "" {
		if err := json.Unmarshal([]byte(r.Voters), &voterList); err != nil {
			return nil, fmt.Errorf("decode poll voters: %w", err)
		}
	}
	voters := make(map[int64]struct{}, len(voterList))
	for _, id := range voterList {
		voters[id] = struct{}{}
	}

	return &polls.Poll{
		MsgID:     r.MsgID,
		ChatID:    r.ChatID,
		Question:  r.Question,
		Options:   options,
		Votes:     votes,
		Voters:    voters,
		CreatedAt: r.CreatedAt,
		Timeout:   time.Duration(r.TimeoutSeconds) * time.Second,
	}, nil
}
