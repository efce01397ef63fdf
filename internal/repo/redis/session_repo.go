package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	authsvc "github.com/sickboy81/saphira/internal/services/auth"
)

// Key layout:
//
//	auth:session:<sid>        JSON storedSession
//	auth:refresh:<sha256>     sid owning the refresh token
//	auth:user:<id>:sessions   set of sids
//
// Refresh tokens are only kept as digests.
type SessionRepo struct {
	client *goredis.Client
}

type storedSession struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	ExpiresAt   time.Time `json:"expires_at"`
	RefreshHash string    `json:"refresh_hash"`
}

func NewSessionRepo(client *goredis.Client) *SessionRepo {
	return &SessionRepo{client: client}
}

func (r *SessionRepo) Create(ctx context.Context, session authsvc.SessionRecord, refreshToken string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(session.SID) == "" || strings.TrimSpace(session.UserID) == "" || strings.TrimSpace(refreshToken) == "" {
		return authsvc.ErrInvalidInput
	}

	if _, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		return r.writeSession(ctx, pipe, session, digest(refreshToken))
	}); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *SessionRepo) GetSession(ctx context.Context, sid string) (authsvc.SessionRecord, error) {
	if r.client == nil {
		return authsvc.SessionRecord{}, fmt.Errorf("redis client is nil")
	}

	stored, err := r.load(ctx, sid)
	if err != nil {
		return authsvc.SessionRecord{}, err
	}
	return stored.record(sid), nil
}

func (r *SessionRepo) GetByRefreshToken(ctx context.Context, refreshToken string) (authsvc.SessionRecord, error) {
	if r.client == nil {
		return authsvc.SessionRecord{}, fmt.Errorf("redis client is nil")
	}

	sid, stored, err := r.byRefresh(ctx, refreshToken)
	if err != nil {
		return authsvc.SessionRecord{}, err
	}
	return stored.record(sid), nil
}

// RotateRefresh swaps the refresh token of sid and moves the session expiry.
func (r *SessionRepo) RotateRefresh(ctx context.Context, sid, oldRefreshToken, newRefreshToken string, expiresAt time.Time) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(newRefreshToken) == "" {
		return authsvc.ErrInvalidInput
	}

	owner, stored, err := r.byRefresh(ctx, oldRefreshToken)
	if err != nil {
		return err
	}
	if sid != "" && sid != owner {
		return authsvc.ErrRefreshNotFound
	}

	next := stored.record(owner)
	next.ExpiresAt = expiresAt
	if _, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, refreshKey(stored.RefreshHash))
		return r.writeSession(ctx, pipe, next, digest(newRefreshToken))
	}); err != nil {
		return fmt.Errorf("rotate refresh token: %w", err)
	}
	return nil
}

func (r *SessionRepo) DeleteSession(ctx context.Context, sid string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(sid) == "" {
		return nil
	}

	stored, err := r.load(ctx, sid)
	if errors.Is(err, authsvc.ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if _, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(sid), refreshKey(stored.RefreshHash))
		pipe.SRem(ctx, userSessionsKey(stored.UserID), sid)
		return nil
	}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *SessionRepo) DeleteAllForUser(ctx context.Context, userID string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(userID) == "" {
		return authsvc.ErrInvalidInput
	}

	sids, err := r.client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("list user sessions: %w", err)
	}
	for _, sid := range sids {
		if err := r.DeleteSession(ctx, sid); err != nil {
			return err
		}
	}
	if err := r.client.Del(ctx, userSessionsKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

func (r *SessionRepo) writeSession(ctx context.Context, pipe goredis.Pipeliner, session authsvc.SessionRecord, refreshHash string) error {
	raw, err := json.Marshal(storedSession{
		UserID:      session.UserID,
		Email:       session.Email,
		ExpiresAt:   session.ExpiresAt.UTC(),
		RefreshHash: refreshHash,
	})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	ttl := ttlFor(session.ExpiresAt)
	pipe.Set(ctx, sessionKey(session.SID), raw, ttl)
	pipe.Set(ctx, refreshKey(refreshHash), session.SID, ttl)
	pipe.SAdd(ctx, userSessionsKey(session.UserID), session.SID)
	pipe.Expire(ctx, userSessionsKey(session.UserID), ttl)
	return nil
}

func (r *SessionRepo) load(ctx context.Context, sid string) (storedSession, error) {
	raw, err := r.client.Get(ctx, sessionKey(sid)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return storedSession{}, authsvc.ErrSessionNotFound
	}
	if err != nil {
		return storedSession{}, fmt.Errorf("get session: %w", err)
	}

	var stored storedSession
	if err := json.Unmarshal(raw, &stored); err != nil || stored.UserID == "" {
		return storedSession{}, authsvc.ErrUnauthorized
	}
	return stored, nil
}

func (r *SessionRepo) byRefresh(ctx context.Context, refreshToken string) (string, storedSession, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return "", storedSession{}, authsvc.ErrRefreshNotFound
	}

	hash := digest(refreshToken)
	sid, err := r.client.Get(ctx, refreshKey(hash)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", storedSession{}, authsvc.ErrRefreshNotFound
	}
	if err != nil {
		return "", storedSession{}, fmt.Errorf("get refresh token: %w", err)
	}

	stored, err := r.load(ctx, sid)
	if errors.Is(err, authsvc.ErrSessionNotFound) {
		return "", storedSession{}, authsvc.ErrRefreshNotFound
	}
	if err != nil {
		return "", storedSession{}, err
	}
	// stale pointer left by a concurrent rotation
	if stored.RefreshHash != hash {
		return "", storedSession{}, authsvc.ErrRefreshNotFound
	}
	return sid, stored, nil
}

func (s storedSession) record(sid string) authsvc.SessionRecord {
	return authsvc.SessionRecord{
		SID:       sid,
		UserID:    s.UserID,
		Email:     s.Email,
		ExpiresAt: s.ExpiresAt,
	}
}

func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func ttlFor(expiresAt time.Time) time.Duration {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return time.Second
	}
	return ttl
}

func sessionKey(sid string) string {
	return "auth:session:" + sid
}

func refreshKey(hash string) string {
	return "auth:refresh:" + hash
}

func userSessionsKey(userID string) string {
	return "auth:user:" + userID + ":sessions"
}
