// Package favorites keeps the device-local list of favorite profile ids.
package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/sickboy81/saphira/internal/domain/model"
)

const StorageKey = "saphira_favorites"

var ErrInvalidID = errors.New("invalid profile id")

type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Resolver turns ids into profiles. An error means the backend could not be
// asked; profiles returned alongside it were resolved without the backend. An
// empty slice with no error means none of the ids exist.
type Resolver interface {
	Lookup(ctx context.Context, ids []string) ([]model.Profile, error)
}

type List struct {
	kv       KV
	resolver Resolver
	log      *zap.Logger

	mu       sync.Mutex
	ids      []string
	profiles []model.Profile
	degraded bool
}

func NewList(kv KV, resolver Resolver, log *zap.Logger) *List {
	if log == nil {
		log = zap.NewNop()
	}
	return &List{kv: kv, resolver: resolver, log: log}
}

// Load reads the stored ids and resolves them.
func (l *List) Load(ctx context.Context) error {
	ids, err := l.read(ctx)
	if err != nil {
		return err
	}
	profiles, degraded := l.resolve(ctx, ids)

	l.mu.Lock()
	l.ids = ids
	l.profiles = profiles
	l.degraded = degraded
	l.mu.Unlock()
	return nil
}

// Toggle adds id when absent and removes it otherwise. It reports whether the
// id is a favorite afterwards.
func (l *List) Toggle(ctx context.Context, id string) (bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, ErrInvalidID
	}
	if l.Contains(id) {
		return false, l.Remove(ctx, id)
	}

	l.mu.Lock()
	next := append(append(make([]string, 0, len(l.ids)+1), l.ids...), id)
	l.mu.Unlock()
	if err := l.write(ctx, next); err != nil {
		return false, err
	}

	added, degraded := l.resolve(ctx, []string{id})

	l.mu.Lock()
	l.ids = next
	l.profiles = append(l.profiles, added...)
	l.degraded = l.degraded || degraded
	l.mu.Unlock()
	return true, nil
}

// Remove persists the list without id and drops it from the resolved view.
func (l *List) Remove(ctx context.Context, id string) error {
	l.mu.Lock()
	next := make([]string, 0, len(l.ids))
	for _, existing := range l.ids {
		if existing != id {
			next = append(next, existing)
		}
	}
	l.mu.Unlock()

	if err := l.write(ctx, next); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.ids = next
	kept := make([]model.Profile, 0, len(l.profiles))
	for _, p := range l.profiles {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	l.profiles = kept
	return nil
}

func (l *List) Contains(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, existing := range l.ids {
		if existing == id {
			return true
		}
	}
	return false
}

func (l *List) IDs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.ids...)
}

func (l *List) Profiles() []model.Profile {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.Profile(nil), l.profiles...)
}

// Degraded reports that the last resolution could not reach the backend.
func (l *List) Degraded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.degraded
}

func (l *List) read(ctx context.Context) ([]string, error) {
	raw, ok, err := l.kv.Get(ctx, StorageKey)
	if err != nil {
		return nil, fmt.Errorf("read favorites: %w", err)
	}
	if !ok || len(raw) == 0 {
		return []string{}, nil
	}

	var stored []string
	if err := json.Unmarshal(raw, &stored); err != nil {
		l.log.Warn("discarding unreadable favorites", zap.Error(err))
		return []string{}, nil
	}

	ids := make([]string, 0, len(stored))
	seen := make(map[string]struct{}, len(stored))
	for _, id := range stored {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

func (l *List) write(ctx context.Context, ids []string) error {
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode favorites: %w", err)
	}
	if err := l.kv.Set(ctx, StorageKey, raw); err != nil {
		return fmt.Errorf("write favorites: %w", err)
	}
	return nil
}

func (l *List) resolve(ctx context.Context, ids []string) ([]model.Profile, bool) {
	if len(ids) == 0 || l.resolver == nil {
		return []model.Profile{}, l.resolver == nil && len(ids) > 0
	}
	profiles, err := l.resolver.Lookup(ctx, ids)
	if err != nil {
		l.log.Warn("resolve favorites failed", zap.Int("ids", len(ids)), zap.Int("resolved", len(profiles)), zap.Error(err))
	}

	byID := make(map[string]model.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}
	out := make([]model.Profile, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, err != nil
}
