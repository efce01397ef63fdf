package apiapp

import (
	"context"
	"errors"

	"github.com/sickboy81/saphira/internal/domain/enums"
	authsvc "github.com/sickboy81/saphira/internal/services/auth"
	"github.com/sickboy81/saphira/internal/session"
)

// requestProvider backs a request-scoped session.Context with the bearer
// token of one request. It never pushes events.
type requestProvider struct {
	auth   *authsvc.Service
	token  string
	claims authsvc.AccessClaims
}

func newRequestProvider(auth *authsvc.Service, token string) *requestProvider {
	return &requestProvider{auth: auth, token: token}
}

func (p *requestProvider) GetSession(ctx context.Context) (*session.Session, error) {
	if p.token == "" {
		return nil, nil
	}

	claims, err := p.auth.ValidateAccessToken(ctx, p.token)
	if err != nil {
		if errors.Is(err, authsvc.ErrUnauthorized) {
			return nil, nil
		}
		return nil, err
	}
	p.claims = claims

	return &session.Session{
		UserID:      claims.UserID,
		Email:       claims.Email,
		AccessToken: p.token,
		ExpiresAt:   claims.ExpiresAt,
	}, nil
}

func (p *requestProvider) Subscribe(func(session.Event)) func() {
	return func() {}
}

func (p *requestProvider) SignOut(ctx context.Context) error {
	if p.claims.SID == "" {
		return nil
	}
	return p.auth.Logout(ctx, p.claims.SID)
}

func (p *requestProvider) GetRole(ctx context.Context, userID string) (*enums.Role, error) {
	return p.auth.Role(ctx, userID)
}

func (p *requestProvider) identity() (authsvc.Identity, bool) {
	if p.claims.SID == "" {
		return authsvc.Identity{}, false
	}
	return authsvc.Identity{
		UserID:      p.claims.UserID,
		SID:         p.claims.SID,
		Email:       p.claims.Email,
		AccessToken: p.token,
	}, true
}
