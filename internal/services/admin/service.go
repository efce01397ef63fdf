package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sickboy81/saphira/internal/domain/model"
	pgrepo "github.com/sickboy81/saphira/internal/repo/postgres"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("user not found")
	ErrSelfTarget = errors.New("cannot change your own account")
)

const (
	defaultListLimit = 100
	maxSearchLength  = 64
)

type ProfileStore interface {
	ListUsers(ctx context.Context, search string, limit int) ([]model.Profile, error)
	SetBanned(ctx context.Context, id string, banned bool) error
}

type SessionRevoker interface {
	LogoutAll(ctx context.Context, userID string) error
}

type ListingInvalidator interface {
	Invalidate(ctx context.Context) error
}

type Service struct {
	profiles ProfileStore
	sessions SessionRevoker
	listings ListingInvalidator
	log      *zap.Logger
	limit    int
}

func NewService(profiles ProfileStore, sessions SessionRevoker, listings ListingInvalidator, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		profiles: profiles,
		sessions: sessions,
		listings: listings,
		log:      log,
		limit:    defaultListLimit,
	}
}

// ListUsers returns profiles newest first. search narrows by display name
// or role substring.
func (s *Service) ListUsers(ctx context.Context, search string) ([]model.Profile, error) {
	search = strings.TrimSpace(search)
	if len([]rune(search)) > maxSearchLength {
		return nil, ErrValidation
	}
	if s.profiles == nil {
		return nil, fmt.Errorf("admin dependencies are not configured")
	}

	items, err := s.profiles.ListUsers(ctx, search, s.limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return items, nil
}

// SetBanned flips the ban flag of targetID. Banning also revokes every
// session of the target.
func (s *Service) SetBanned(ctx context.Context, actorID, targetID string, banned bool) error {
	actorID = strings.TrimSpace(actorID)
	targetID = strings.TrimSpace(targetID)
	if actorID == "" || targetID == "" {
		return ErrValidation
	}
	if actorID == targetID {
		return ErrSelfTarget
	}
	if s.profiles == nil {
		return fmt.Errorf("admin dependencies are not configured")
	}

	if err := s.profiles.SetBanned(ctx, targetID, banned); err != nil {
		if errors.Is(err, pgrepo.ErrProfileNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("set banned: %w", err)
	}

	s.log.Info("user ban updated",
		zap.String("actor_id", actorID),
		zap.String("target_id", targetID),
		zap.Bool("banned", banned),
	)

	if banned && s.sessions != nil {
		if err := s.sessions.LogoutAll(ctx, targetID); err != nil {
			return fmt.Errorf("revoke sessions: %w", err)
		}
	}
	if s.listings != nil {
		if err := s.listings.Invalidate(ctx); err != nil {
			s.log.Warn("listing cache invalidation failed", zap.Error(err))
		}
	}
	return nil
}
