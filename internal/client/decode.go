package client

import (
	"fmt"
	"strings"
	"time"

	"github.com/sickboy81/saphira/internal/domain/enums"
	"github.com/sickboy81/saphira/internal/domain/model"
	"github.com/sickboy81/saphira/internal/session"
	"github.com/sickboy81/saphira/internal/transport/http/dto"
)

func decodeErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDecode, fmt.Sprintf(format, args...))
}

func decodeRole(raw *string) (*enums.Role, error) {
	if raw == nil {
		return nil, nil
	}
	role, err := enums.ParseRole(*raw)
	if err != nil {
		return nil, decodeErr("role: %v", err)
	}
	return &role, nil
}

func decodeMedia(in dto.MediaResponse) (model.Media, error) {
	if strings.TrimSpace(in.ID) == "" {
		return model.Media{}, decodeErr("media without id")
	}
	mediaType, err := enums.ParseMediaType(in.Type)
	if err != nil {
		return model.Media{}, decodeErr("media %s: %v", in.ID, err)
	}
	if strings.TrimSpace(in.URL) == "" {
		return model.Media{}, decodeErr("media %s without url", in.ID)
	}
	return model.Media{
		ID:        in.ID,
		ProfileID: in.ProfileID,
		URL:       in.URL,
		Type:      mediaType,
		CreatedAt: in.CreatedAt,
	}, nil
}

func decodeProfile(in dto.ProfileResponse) (model.Profile, error) {
	if strings.TrimSpace(in.ID) == "" {
		return model.Profile{}, decodeErr("profile without id")
	}
	role, err := enums.ParseRole(in.Role)
	if err != nil {
		return model.Profile{}, decodeErr("profile %s: %v", in.ID, err)
	}

	media := make([]model.Media, 0, len(in.Media))
	for _, m := range in.Media {
		item, err := decodeMedia(m)
		if err != nil {
			return model.Profile{}, err
		}
		media = append(media, item)
	}

	return model.Profile{
		ID:          in.ID,
		Role:        role,
		DisplayName: in.DisplayName,
		Rating:      in.Rating,
		IsOnline:    in.IsOnline,
		Attributes:  in.Attributes,
		Media:       media,
		CreatedAt:   in.CreatedAt,
	}, nil
}

func decodeProfiles(in []dto.ProfileResponse) ([]model.Profile, error) {
	out := make([]model.Profile, 0, len(in))
	for _, item := range in {
		p, err := decodeProfile(item)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func decodeTokens(in dto.AuthTokensResponse, now time.Time) (Tokens, error) {
	if in.AccessToken == "" || in.RefreshToken == "" {
		return Tokens{}, decodeErr("token response without tokens")
	}
	if in.Me.ID == "" {
		return Tokens{}, decodeErr("token response without user")
	}
	role, err := decodeRole(in.Me.Role)
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{
		AccessToken:  in.AccessToken,
		RefreshToken: in.RefreshToken,
		ExpiresAt:    now.Add(time.Duration(in.ExpiresInSec) * time.Second).UTC(),
		UserID:       in.Me.ID,
		Email:        in.Me.Email,
		Role:         role,
	}, nil
}

func decodeSession(in dto.SessionResponse) (*session.Session, *enums.Role, error) {
	role, err := decodeRole(in.Role)
	if err != nil {
		return nil, nil, err
	}
	if in.Session == nil {
		if role != nil {
			return nil, nil, decodeErr("role without session")
		}
		return nil, nil, nil
	}
	if in.Session.UserID == "" {
		return nil, nil, decodeErr("session without user id")
	}
	return &session.Session{
		UserID:    in.Session.UserID,
		Email:     in.Session.Email,
		ExpiresAt: in.Session.ExpiresAt,
	}, role, nil
}
