package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sickboy81/saphira/internal/domain/enums"
	"github.com/sickboy81/saphira/internal/session"
)

const TokenStorageKey = "saphira_session"

// refreshLeeway refreshes access tokens shortly before they expire.
const refreshLeeway = 30 * time.Second

type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// AuthProvider is the client-side identity service. Tokens live in the
// device store; every change is pushed to subscribers.
type AuthProvider struct {
	client *Client
	store  KV
	log    *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	tokens    *Tokens
	loaded    bool
	listeners map[int]func(session.Event)
	nextID    int
}

var _ session.Provider = (*AuthProvider)(nil)

func NewAuthProvider(client *Client, store KV, log *zap.Logger) *AuthProvider {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthProvider{
		client:    client,
		store:     store,
		log:       log,
		now:       time.Now,
		listeners: make(map[int]func(session.Event)),
	}
}

// GetSession returns the stored session, refreshing an expired access token
// first. A refresh rejected by the server drops the stored tokens.
func (p *AuthProvider) GetSession(ctx context.Context) (*session.Session, error) {
	tokens, err := p.current(ctx)
	if err != nil {
		return nil, err
	}
	if tokens == nil {
		return nil, nil
	}

	if p.now().Add(refreshLeeway).After(tokens.ExpiresAt) {
		if _, err := p.Refresh(ctx); err != nil {
			if IsStatus(err, http.StatusUnauthorized) {
				return nil, nil
			}
			return nil, err
		}
		tokens, err = p.current(ctx)
		if err != nil || tokens == nil {
			return nil, err
		}
	}
	return sessionFrom(*tokens), nil
}

func (p *AuthProvider) Subscribe(fn func(session.Event)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

// SignOut forgets the local tokens, then ends the server session.
func (p *AuthProvider) SignOut(ctx context.Context) error {
	tokens, err := p.current(ctx)
	if err != nil {
		return err
	}
	if clearErr := p.clear(ctx); clearErr != nil {
		return clearErr
	}
	p.emit(session.Event{Kind: session.EventSignedOut})

	if tokens == nil {
		return nil
	}
	if err := p.client.Logout(ctx, tokens.AccessToken); err != nil && !IsStatus(err, http.StatusUnauthorized) {
		return fmt.Errorf("server sign out: %w", err)
	}
	return nil
}

func (p *AuthProvider) GetRole(ctx context.Context, userID string) (*enums.Role, error) {
	return p.client.Role(ctx, userID)
}

func (p *AuthProvider) Login(ctx context.Context, email, password, otp string) (*session.Session, error) {
	tokens, err := p.client.Login(ctx, email, password, otp)
	if err != nil {
		return nil, err
	}
	return p.adopt(ctx, tokens, session.EventSignedIn)
}

func (p *AuthProvider) Register(ctx context.Context, in RegisterInput) (*session.Session, error) {
	tokens, err := p.client.Register(ctx, in)
	if err != nil {
		return nil, err
	}
	return p.adopt(ctx, tokens, session.EventSignedIn)
}

func (p *AuthProvider) Refresh(ctx context.Context) (*session.Session, error) {
	tokens, err := p.current(ctx)
	if err != nil {
		return nil, err
	}
	if tokens == nil {
		return nil, fmt.Errorf("refresh: not signed in")
	}

	next, err := p.client.Refresh(ctx, tokens.RefreshToken)
	if err != nil {
		if IsStatus(err, http.StatusUnauthorized) {
			if clearErr := p.clear(ctx); clearErr != nil {
				p.log.Warn("drop rejected tokens failed", zap.Error(clearErr))
			}
			p.emit(session.Event{Kind: session.EventSignedOut})
		}
		return nil, err
	}
	return p.adopt(ctx, next, session.EventTokenRefreshed)
}

func (p *AuthProvider) adopt(ctx context.Context, tokens Tokens, kind session.EventKind) (*session.Session, error) {
	raw, err := json.Marshal(tokens)
	if err != nil {
		return nil, fmt.Errorf("encode tokens: %w", err)
	}
	if err := p.store.Set(ctx, TokenStorageKey, raw); err != nil {
		return nil, fmt.Errorf("store tokens: %w", err)
	}

	p.mu.Lock()
	p.tokens = &tokens
	p.loaded = true
	p.mu.Unlock()
	p.client.SetAccessToken(tokens.AccessToken)

	sess := sessionFrom(tokens)
	p.emit(session.Event{Kind: kind, Session: sess})
	return sess, nil
}

func (p *AuthProvider) current(ctx context.Context) (*Tokens, error) {
	p.mu.Lock()
	if p.loaded {
		tokens := p.tokens
		p.mu.Unlock()
		return tokens, nil
	}
	p.mu.Unlock()

	raw, ok, err := p.store.Get(ctx, TokenStorageKey)
	if err != nil {
		return nil, fmt.Errorf("read tokens: %w", err)
	}

	var tokens *Tokens
	if ok {
		var stored Tokens
		if err := json.Unmarshal(raw, &stored); err != nil || stored.AccessToken == "" || stored.UserID == "" {
			p.log.Warn("discarding unreadable stored session", zap.Error(errors.Join(err, ErrDecode)))
		} else {
			tokens = &stored
		}
	}

	p.mu.Lock()
	p.tokens = tokens
	p.loaded = true
	p.mu.Unlock()
	if tokens != nil {
		p.client.SetAccessToken(tokens.AccessToken)
	}
	return tokens, nil
}

func (p *AuthProvider) clear(ctx context.Context) error {
	p.mu.Lock()
	p.tokens = nil
	p.loaded = true
	p.mu.Unlock()
	p.client.SetAccessToken("")

	if err := p.store.Delete(ctx, TokenStorageKey); err != nil {
		return fmt.Errorf("delete tokens: %w", err)
	}
	return nil
}

func (p *AuthProvider) emit(ev session.Event) {
	p.mu.Lock()
	fns := make([]func(session.Event), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func sessionFrom(t Tokens) *session.Session {
	return &session.Session{
		UserID:      t.UserID,
		Email:       t.Email,
		AccessToken: t.AccessToken,
		ExpiresAt:   t.ExpiresAt,
	}
}
