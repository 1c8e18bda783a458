package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Dialogue steps. Each chat is on at most one step at a time.
const (
	StepRegisterName       = "register_name"
	StepRegisterDepartment = "register_department"
	StepLeaveKind          = "leave_kind"
	StepLeaveStart         = "leave_start"
	StepLeaveEnd           = "leave_end"
	StepLeaveStartTime     = "leave_start_time"
	StepLeaveEndTime       = "leave_end_time"
	StepLeaveReason        = "leave_reason"
	StepLeaveReplacement   = "leave_replacement"
)

// Draft accumulates the fields collected so far.
type Draft struct {
	FullName      string `json:"full_name,omitempty"`
	Department    string `json:"department,omitempty"`
	Kind          string `json:"kind,omitempty"`
	StartDate     string `json:"start_date,omitempty"`
	EndDate       string `json:"end_date,omitempty"`
	StartTime     string `json:"start_time,omitempty"`
	EndTime       string `json:"end_time,omitempty"`
	Reason        string `json:"reason,omitempty"`
	ReplacementID string `json:"replacement_id,omitempty"`
}

type Session struct {
	Step  string `json:"step"`
	Draft Draft  `json:"draft"`
}

// SessionStore holds the per-chat dialogue state between updates.
// Get returns (nil, nil) when the chat has no active session.
type SessionStore interface {
	Get(ctx context.Context, chatID int64) (*Session, error)
	Put(ctx context.Context, chatID int64, s *Session) error
	Delete(ctx context.Context, chatID int64) error
}

const sessionTTL = 30 * time.Minute

type redisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client) SessionStore {
	return &redisSessionStore{client: client, ttl: sessionTTL}
}

func sessionKey(chatID int64) string {
	return fmt.Sprintf("bot:session:%d", chatID)
}

func (s *redisSessionStore) Get(ctx context.Context, chatID int64) (*Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(chatID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		// A corrupt session is dropped rather than wedging the chat.
		_ = s.client.Del(ctx, sessionKey(chatID)).Err()
		return nil, nil
	}
	return &session, nil
}

func (s *redisSessionStore) Put(ctx context.Context, chatID int64, session *Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(chatID), raw, s.ttl).Err()
}

func (s *redisSessionStore) Delete(ctx context.Context, chatID int64) error {
	return s.client.Del(ctx, sessionKey(chatID)).Err()
}
