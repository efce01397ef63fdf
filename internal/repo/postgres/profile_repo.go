package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sickboy81/saphira/internal/domain/enums"
	"github.com/sickboy81/saphira/internal/domain/model"
	"github.com/sickboy81/saphira/internal/filters"
)

var ErrProfileNotFound = errors.New("profile not found")

const profileColumns = `
	p.id::text,
	p.role,
	p.is_banned,
	p.display_name,
	p.rating,
	p.is_online,
	COALESCE(p.state, ''),
	COALESCE(p.city, ''),
	COALESCE(p.neighborhood, ''),
	COALESCE(p.gender, ''),
	COALESCE(p.price, 0),
	COALESCE(p.age, 0),
	COALESCE(p.hair_color, ''),
	COALESCE(p.body_type, ''),
	COALESCE(p.ethnicity, ''),
	COALESCE(p.services, '{}'),
	COALESCE(p.payment_methods, '{}'),
	p.has_place,
	p.video_call,
	p.verified,
	COALESCE(p.category, ''),
	COALESCE(p.bio, ''),
	p.created_at`

type ProfileRepo struct {
	pool *pgxpool.Pool
}

// AccessRecord is the subset of a profile consulted for authorization.
type AccessRecord struct {
	Role     enums.Role
	IsBanned bool
}

// ListingQuery selects advertiser listings. The cursor fields are the
// (created_at, id) of the last row of the previous page. A zero Bounds means
// filters.DefaultBounds.
type ListingQuery struct {
	Filter          filters.State
	Bounds          filters.Bounds
	HasCursor       bool
	CursorCreatedAt time.Time
	CursorID        string
	Limit           int
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

func (r *ProfileRepo) GetByID(ctx context.Context, id string) (model.Profile, error) {
	if r.pool == nil {
		return model.Profile{}, fmt.Errorf("postgres pool is nil")
	}

	row := r.pool.QueryRow(ctx, `SELECT `+profileColumns+`
FROM profiles p
WHERE p.id = $1
`, id)
	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, ErrProfileNotFound
		}
		return model.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

func (r *ProfileRepo) GetAccess(ctx context.Context, id string) (AccessRecord, error) {
	if r.pool == nil {
		return AccessRecord{}, fmt.Errorf("postgres pool is nil")
	}

	var (
		rawRole string
		rec     AccessRecord
	)
	err := r.pool.QueryRow(ctx, `
SELECT role, is_banned
FROM profiles
WHERE id = $1
`, id).Scan(&rawRole, &rec.IsBanned)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccessRecord{}, ErrProfileNotFound
		}
		return AccessRecord{}, fmt.Errorf("get profile access: %w", err)
	}

	role, err := enums.ParseRole(rawRole)
	if err != nil {
		return AccessRecord{}, fmt.Errorf("decode profile role: %w", err)
	}
	rec.Role = role
	return rec, nil
}

func (r *ProfileRepo) SearchListings(ctx context.Context, q ListingQuery) ([]model.Profile, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if q.Limit <= 0 {
		q.Limit = 24
	}

	f := q.Filter
	bounds := q.Bounds
	if bounds == (filters.Bounds{}) {
		bounds = filters.DefaultBounds()
	}
	applyAge := f.AgeApplies(bounds)

	neighborhood := ""
	if f.Neighborhood != "" {
		neighborhood = likePattern(f.Neighborhood)
	}
	keyword := ""
	if f.Keyword != "" {
		keyword = likePattern(f.Keyword)
	}
	cursorCreatedAt := q.CursorCreatedAt.UTC()
	if cursorCreatedAt.IsZero() {
		cursorCreatedAt = time.Unix(0, 0).UTC()
	}

	rows, err := r.pool.Query(ctx, `SELECT `+profileColumns+`
FROM profiles p
WHERE
	p.role = 'advertiser'
	AND p.is_banned = FALSE
	AND ($1::text = '' OR p.state = $1)
	AND ($2::text = '' OR p.city = $2)
	AND ($3::text = '' OR p.neighborhood ILIKE $3)
	AND (cardinality($4::text[]) = 0 OR p.gender = ANY($4::text[]))
	AND (cardinality($5::text[]) = 0 OR p.hair_color = ANY($5::text[]))
	AND (cardinality($6::text[]) = 0 OR p.body_type = ANY($6::text[]))
	AND (cardinality($7::text[]) = 0 OR p.ethnicity = ANY($7::text[]))
	AND COALESCE(p.services, '{}') @> $8::text[]
	AND (cardinality($9::text[]) = 0 OR p.payment_methods && $9::text[])
	AND ($10::int IS NULL OR p.price <= $10::int)
	AND ($11::boolean = FALSE OR p.age BETWEEN $12 AND $13)
	AND ($14::boolean IS NULL OR p.has_place = $14::boolean)
	AND ($15::boolean IS NULL OR p.video_call = $15::boolean)
	AND ($16::boolean = FALSE OR p.verified = TRUE)
	AND ($17::text IS NULL OR p.category = $17::text)
	AND (
		$18::text = ''
		OR p.display_name ILIKE $18
		OR p.bio ILIKE $18
		OR p.city ILIKE $18
		OR p.neighborhood ILIKE $18
	)
	AND (
		$19::boolean = FALSE
		OR p.created_at < $20::timestamptz
		OR (p.created_at = $20::timestamptz AND p.id < $21::uuid)
	)
ORDER BY p.created_at DESC, p.id DESC
LIMIT $22::int
`,
		f.Location.State,           // $1
		f.Location.City,            // $2
		neighborhood,               // $3
		f.Gender,                   // $4
		f.HairColor,                // $5
		f.BodyType,                 // $6
		f.Ethnicity,                // $7
		f.Services,                 // $8
		f.PaymentMethods,           // $9
		f.PriceMax,                 // $10
		applyAge,                   // $11
		f.AgeRange.Min,             // $12
		f.AgeRange.Max,             // $13
		triStateParam(f.HasPlace),  // $14
		triStateParam(f.VideoCall), // $15
		f.VerifiedOnly,             // $16
		f.Category,                 // $17
		keyword,                    // $18
		q.HasCursor,                // $19
		cursorCreatedAt,            // $20
		cursorIDParam(q),           // $21
		q.Limit,                    // $22
	)
	if err != nil {
		return nil, fmt.Errorf("search listings: %w", err)
	}
	defer rows.Close()

	return collectProfiles(rows, q.Limit)
}

// ListByIDs returns the visible advertiser profiles among ids.
func (r *ProfileRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Profile, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if len(ids) == 0 {
		return []model.Profile{}, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT `+profileColumns+`
FROM profiles p
WHERE p.id = ANY($1::uuid[]) AND p.is_banned = FALSE
`, ids)
	if err != nil {
		return nil, fmt.Errorf("list profiles by ids: %w", err)
	}
	defer rows.Close()

	return collectProfiles(rows, len(ids))
}

// ListUsers returns every profile, newest first, optionally narrowed by a
// display name or role substring.
func (r *ProfileRepo) ListUsers(ctx context.Context, search string, limit int) ([]model.Profile, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 100
	}

	pattern := ""
	if s := strings.TrimSpace(search); s != "" {
		pattern = likePattern(s)
	}

	rows, err := r.pool.Query(ctx, `SELECT `+profileColumns+`
FROM profiles p
WHERE $1::text = '' OR p.display_name ILIKE $1 OR p.role ILIKE $1
ORDER BY p.created_at DESC, p.id DESC
LIMIT $2
`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	return collectProfiles(rows, limit)
}

func (r *ProfileRepo) SetBanned(ctx context.Context, id string, banned bool) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE profiles SET is_banned = $2, updated_at = NOW()
WHERE id = $1
`, id, banned)
	if err != nil {
		return fmt.Errorf("set profile banned: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *ProfileRepo) UpdateListing(ctx context.Context, id, displayName string, a model.ProfileAttributes) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE profiles SET
	display_name = $2,
	state = $3,
	city = $4,
	neighborhood = $5,
	gender = $6,
	price = $7,
	age = $8,
	hair_color = $9,
	body_type = $10,
	ethnicity = $11,
	services = $12,
	payment_methods = $13,
	has_place = $14,
	video_call = $15,
	category = $16,
	bio = $17,
	updated_at = NOW()
WHERE id = $1
`,
		id,
		displayName,
		a.State,
		a.City,
		a.Neighborhood,
		a.Gender,
		a.Price,
		a.Age,
		a.HairColor,
		a.BodyType,
		a.Ethnicity,
		nonNil(a.Services),
		nonNil(a.PaymentMethods),
		a.HasPlace,
		a.VideoCall,
		a.Category,
		a.Bio,
	)
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func collectProfiles(rows pgx.Rows, capacity int) ([]model.Profile, error) {
	items := make([]model.Profile, 0, capacity)
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		items = append(items, profile)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate profiles: %w", rows.Err())
	}
	return items, nil
}

func scanProfile(row pgx.Row) (model.Profile, error) {
	var (
		p       model.Profile
		rawRole string
	)
	a := &p.Attributes
	if err := row.Scan(
		&p.ID,
		&rawRole,
		&p.IsBanned,
		&p.DisplayName,
		&p.Rating,
		&p.IsOnline,
		&a.State,
		&a.City,
		&a.Neighborhood,
		&a.Gender,
		&a.Price,
		&a.Age,
		&a.HairColor,
		&a.BodyType,
		&a.Ethnicity,
		&a.Services,
		&a.PaymentMethods,
		&a.HasPlace,
		&a.VideoCall,
		&a.Verified,
		&a.Category,
		&a.Bio,
		&p.CreatedAt,
	); err != nil {
		return model.Profile{}, err
	}

	role, err := enums.ParseRole(rawRole)
	if err != nil {
		return model.Profile{}, err
	}
	p.Role = role
	return p, nil
}

func triStateParam(t filters.TriState) *bool {
	v, ok := t.Bool()
	if !ok {
		return nil
	}
	return &v
}

func cursorIDParam(q ListingQuery) any {
	if !q.HasCursor {
		return "00000000-0000-0000-0000-000000000000"
	}
	return q.CursorID
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
