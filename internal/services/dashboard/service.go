package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/sickboy81/saphira/internal/domain/enums"
	"github.com/sickboy81/saphira/internal/domain/model"
	"github.com/sickboy81/saphira/internal/filters"
	pgrepo "github.com/sickboy81/saphira/internal/repo/postgres"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("profile not found")
)

const (
	maxDisplayName = 80
	maxBio         = 2000
)

type ProfileStore interface {
	GetByID(ctx context.Context, id string) (model.Profile, error)
	UpdateListing(ctx context.Context, id, displayName string, a model.ProfileAttributes) error
}

type MediaService interface {
	List(ctx context.Context, profileID string) ([]model.Media, error)
	Upload(ctx context.Context, profileID, fileName, contentType string, body io.Reader, size int64) (model.Media, error)
}

type ListingInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Overview summarizes the advertiser's own listing.
type Overview struct {
	Profile    model.Profile
	ImageCount int
	VideoCount int
	Missing    []string
	Complete   bool
}

type UpdateInput struct {
	DisplayName string
	Attributes  model.ProfileAttributes
}

type Service struct {
	profiles ProfileStore
	media    MediaService
	listings ListingInvalidator
	log      *zap.Logger
}

func NewService(profiles ProfileStore, media MediaService, listings ListingInvalidator, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		profiles: profiles,
		media:    media,
		listings: listings,
		log:      log,
	}
}

func (s *Service) Overview(ctx context.Context, userID string) (Overview, error) {
	if strings.TrimSpace(userID) == "" {
		return Overview{}, ErrValidation
	}
	if s.profiles == nil || s.media == nil {
		return Overview{}, fmt.Errorf("dashboard dependencies are not configured")
	}

	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrProfileNotFound) {
			return Overview{}, ErrNotFound
		}
		return Overview{}, fmt.Errorf("get profile: %w", err)
	}
	media, err := s.media.List(ctx, userID)
	if err != nil {
		return Overview{}, fmt.Errorf("list media: %w", err)
	}
	profile.Media = media

	out := Overview{Profile: profile}
	for _, m := range media {
		switch m.Type {
		case enums.MediaTypeImage:
			out.ImageCount++
		case enums.MediaTypeVideo:
			out.VideoCount++
		}
	}
	out.Missing = missingFields(profile, out.ImageCount)
	out.Complete = len(out.Missing) == 0
	return out, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, in UpdateInput) (model.Profile, error) {
	if strings.TrimSpace(userID) == "" {
		return model.Profile{}, ErrValidation
	}
	displayName := strings.TrimSpace(in.DisplayName)
	if displayName == "" || utf8.RuneCountInString(displayName) > maxDisplayName {
		return model.Profile{}, fmt.Errorf("%w: display_name must be 1-%d characters", ErrValidation, maxDisplayName)
	}
	attrs := normalizeAttributes(in.Attributes)
	if utf8.RuneCountInString(attrs.Bio) > maxBio {
		return model.Profile{}, fmt.Errorf("%w: bio is too long", ErrValidation)
	}
	if err := filters.ValidateListing(attrs); err != nil {
		return model.Profile{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if s.profiles == nil {
		return model.Profile{}, fmt.Errorf("dashboard dependencies are not configured")
	}

	if err := s.profiles.UpdateListing(ctx, userID, displayName, attrs); err != nil {
		if errors.Is(err, pgrepo.ErrProfileNotFound) {
			return model.Profile{}, ErrNotFound
		}
		return model.Profile{}, fmt.Errorf("update listing: %w", err)
	}
	s.invalidate(ctx)

	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return model.Profile{}, fmt.Errorf("reload profile: %w", err)
	}
	return profile, nil
}

func (s *Service) UploadMedia(ctx context.Context, userID, fileName, contentType string, body io.Reader, size int64) (model.Media, error) {
	if s.media == nil {
		return model.Media{}, fmt.Errorf("dashboard dependencies are not configured")
	}
	m, err := s.media.Upload(ctx, userID, fileName, contentType, body, size)
	if err != nil {
		return model.Media{}, err
	}
	s.invalidate(ctx)
	return m, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.listings == nil {
		return
	}
	if err := s.listings.Invalidate(ctx); err != nil {
		s.log.Warn("listing cache invalidation failed", zap.Error(err))
	}
}

func normalizeAttributes(a model.ProfileAttributes) model.ProfileAttributes {
	a.State = strings.ToUpper(strings.TrimSpace(a.State))
	a.City = strings.TrimSpace(a.City)
	a.Neighborhood = strings.TrimSpace(a.Neighborhood)
	a.Category = strings.TrimSpace(a.Category)
	a.Bio = strings.TrimSpace(a.Bio)
	if a.Services == nil {
		a.Services = []string{}
	}
	if a.PaymentMethods == nil {
		a.PaymentMethods = []string{}
	}
	// verification is granted by the back office, never self-declared
	a.Verified = false
	return a
}

func missingFields(p model.Profile, images int) []string {
	a := p.Attributes
	missing := make([]string, 0)
	check := func(name string, ok bool) {
		if !ok {
			missing = append(missing, name)
		}
	}
	check("state", a.State != "")
	check("city", a.City != "")
	check("gender", a.Gender != "")
	check("price", a.Price > 0)
	check("age", a.Age > 0)
	check("services", len(a.Services) > 0)
	check("payment_methods", len(a.PaymentMethods) > 0)
	check("bio", a.Bio != "")
	check("image", images > 0)
	return missing
}
