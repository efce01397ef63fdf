// Package catalog serves the built-in sample profiles shown when the listing
// backend cannot be reached.
package catalog

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sickboy81/saphira/internal/domain/enums"
	"github.com/sickboy81/saphira/internal/domain/model"
	"github.com/sickboy81/saphira/internal/filters"
)

const IDPrefix = "mock-"

//go:embed profiles.yaml
var profilesYAML []byte

type entry struct {
	ID          string                  `yaml:"id"`
	DisplayName string                  `yaml:"display_name"`
	Rating      float64                 `yaml:"rating"`
	IsOnline    bool                    `yaml:"is_online"`
	Images      []string                `yaml:"images"`
	Attributes  model.ProfileAttributes `yaml:"attributes"`
}

type Catalog struct {
	profiles []model.Profile
	byID     map[string]int
}

// Load parses the embedded dataset.
func Load() (*Catalog, error) {
	return Parse(profilesYAML)
}

func Parse(raw []byte) (*Catalog, error) {
	var entries []entry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	created := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	c := &Catalog{
		profiles: make([]model.Profile, 0, len(entries)),
		byID:     make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		if !IsMockID(e.ID) {
			return nil, fmt.Errorf("catalog entry %d: id %q lacks prefix %s", i, e.ID, IDPrefix)
		}
		if _, dup := c.byID[e.ID]; dup {
			return nil, fmt.Errorf("catalog entry %d: duplicate id %q", i, e.ID)
		}

		p := model.Profile{
			ID:          e.ID,
			Role:        enums.RoleAdvertiser,
			DisplayName: e.DisplayName,
			Rating:      e.Rating,
			IsOnline:    e.IsOnline,
			Attributes:  e.Attributes,
			CreatedAt:   created.Add(-time.Duration(i) * time.Hour),
		}
		for j, url := range e.Images {
			p.Media = append(p.Media, model.Media{
				ID:        fmt.Sprintf("%s-media-%d", e.ID, j+1),
				ProfileID: e.ID,
				URL:       url,
				Type:      enums.MediaTypeImage,
				CreatedAt: p.CreatedAt,
			})
		}
		c.byID[e.ID] = len(c.profiles)
		c.profiles = append(c.profiles, p)
	}
	return c, nil
}

func IsMockID(id string) bool {
	return strings.HasPrefix(id, IDPrefix)
}

// Search returns profiles matching s under bounds b in catalog order.
// limit <= 0 means no limit.
func (c *Catalog) Search(s filters.State, b filters.Bounds, limit int) []model.Profile {
	out := make([]model.Profile, 0)
	for _, p := range c.profiles {
		if !s.Matches(p, b) {
			continue
		}
		out = append(out, p)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// ByIDs returns the known profiles among ids, in the order requested.
func (c *Catalog) ByIDs(ids []string) []model.Profile {
	out := make([]model.Profile, 0, len(ids))
	for _, id := range ids {
		if idx, ok := c.byID[id]; ok {
			out = append(out, c.profiles[idx])
		}
	}
	return out
}

func (c *Catalog) Get(id string) (model.Profile, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return model.Profile{}, false
	}
	return c.profiles[idx], true
}

func (c *Catalog) Len() int {
	return len(c.profiles)
}
