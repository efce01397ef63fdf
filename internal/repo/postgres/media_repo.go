package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sickboy81/saphira/internal/domain/enums"
	"github.com/sickboy81/saphira/internal/domain/model"
)

type MediaRepo struct {
	pool *pgxpool.Pool
}

func NewMediaRepo(pool *pgxpool.Pool) *MediaRepo {
	return &MediaRepo{pool: pool}
}

func (r *MediaRepo) Create(ctx context.Context, m model.Media) (model.Media, error) {
	if r.pool == nil {
		return model.Media{}, fmt.Errorf("postgres pool is nil")
	}

	err := r.pool.QueryRow(ctx, `
INSERT INTO media (id, profile_id, url, type, created_at)
VALUES ($1, $2, $3, $4, NOW())
RETURNING created_at
`, m.ID, m.ProfileID, m.URL, string(m.Type)).Scan(&m.CreatedAt)
	if err != nil {
		return model.Media{}, fmt.Errorf("insert media: %w", err)
	}
	return m, nil
}

// ListByProfiles returns media grouped by profile id, oldest first.
func (r *MediaRepo) ListByProfiles(ctx context.Context, profileIDs []string) (map[string][]model.Media, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	out := make(map[string][]model.Media, len(profileIDs))
	if len(profileIDs) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT id::text, profile_id::text, url, type, created_at
FROM media
WHERE profile_id = ANY($1::uuid[])
ORDER BY created_at ASC, id ASC
`, profileIDs)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			m       model.Media
			rawType string
		)
		if err := rows.Scan(&m.ID, &m.ProfileID, &m.URL, &rawType, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		mediaType, err := enums.ParseMediaType(rawType)
		if err != nil {
			return nil, fmt.Errorf("decode media %s: %w", m.ID, err)
		}
		m.Type = mediaType
		out[m.ProfileID] = append(out[m.ProfileID], m)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate media: %w", rows.Err())
	}
	return out, nil
}

func (r *MediaRepo) ListByProfile(ctx context.Context, profileID string) ([]model.Media, error) {
	grouped, err := r.ListByProfiles(ctx, []string{profileID})
	if err != nil {
		return nil, err
	}
	items := grouped[profileID]
	if items == nil {
		items = []model.Media{}
	}
	return items, nil
}
