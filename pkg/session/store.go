package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session not found")

// Credentials 是访问上游 LMS API 的凭据：bearer token 或 cookie
type Credentials struct {
	Token   string            `json:"token,omitempty"`
	Cookies map[string]string `json:"cookies,omitempty"`
}

func (c Credentials) Empty() bool {
	return c.Token == "" && len(c.Cookies) == 0
}

// Session 门户会话。Role 只是布局缓存，权威来源是上游 /auth/check
type Session struct {
	ID          string          `json:"id"`
	Credentials Credentials     `json:"credentials"`
	Role        string          `json:"role,omitempty"`
	User        json.RawMessage `json:"user,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	ExpiresAt   time.Time       `json:"expiresAt"`

	dirty      bool
	previousID string
	ended      bool
}

func New(ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Clear 登出时清空凭据、用户与角色缓存，保留会话 ID
func (s *Session) Clear() {
	s.Credentials = Credentials{}
	s.Role = ""
	s.User = nil
	s.dirty = true
}

// Rotate 换发新的会话 ID 并续期，登录成功后调用以防会话固定。
// 旧 ID 由 PreviousID 返回，保存时应从存储中删除
func (s *Session) Rotate(ttl time.Duration) {
	if s.previousID == "" {
		s.previousID = s.ID
	}
	now := time.Now()
	s.ID = uuid.NewString()
	s.CreatedAt = now
	s.ExpiresAt = now.Add(ttl)
	s.dirty = true
}

func (s *Session) PreviousID() string { return s.previousID }

// End 登出时清空并标记会话作废，保存时应删除而不是写回
func (s *Session) End() {
	s.Clear()
	s.ended = true
}

func (s *Session) Ended() bool { return s.ended }

// SetRole 更新布局用的角色缓存
func (s *Session) SetRole(role string) {
	if s.Role != role {
		s.Role = role
		s.dirty = true
	}
}

func (s *Session) SetUser(user json.RawMessage) {
	s.User = user
	s.dirty = true
}

func (s *Session) SetCredentials(creds Credentials) {
	s.Credentials = creds
	s.dirty = true
}

// Dirty 报告本次请求中会话是否被修改
func (s *Session) Dirty() bool { return s.dirty }

type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}
