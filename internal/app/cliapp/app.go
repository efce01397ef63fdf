package cliapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/sickboy81/saphira/internal/client"
	"github.com/sickboy81/saphira/internal/config"
	"github.com/sickboy81/saphira/internal/devicestore"
	"github.com/sickboy81/saphira/internal/favorites"
	"github.com/sickboy81/saphira/internal/filters"
	"github.com/sickboy81/saphira/internal/guard"
	"github.com/sickboy81/saphira/internal/session"
)

const FiltersStorageKey = "saphira_filters"

var (
	ErrNotSignedIn    = errors.New("not signed in, run `saphira login` first")
	ErrForbidden      = errors.New("your role cannot use this area")
	ErrRoleUnresolved = errors.New("role could not be resolved, try again")
)

// App owns the client-side application root: device store, API client and
// the session context. It lives for one command invocation.
type App struct {
	cfg config.Config
	log *zap.Logger
	out io.Writer

	store     *devicestore.FileStore
	api       *client.Client
	auth      *client.AuthProvider
	session   *session.Context
	favorites *favorites.List
	prepared  bool
}

func New(cfg config.Config, log *zap.Logger, out io.Writer) *App {
	if log == nil {
		log = zap.NewNop()
	}
	return &App{cfg: cfg, log: log, out: out}
}

func (a *App) prepare(ctx context.Context) error {
	if a.prepared {
		return nil
	}

	path := a.cfg.Client.StorePath
	if path == "" {
		p, err := devicestore.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	a.store = devicestore.NewFileStore(path)

	api, err := client.New(client.Options{
		BaseURL:  a.cfg.Client.BaseURL,
		Timeout:  a.cfg.Client.Timeout,
		RetryMax: a.cfg.Client.RetryMax,
		Logger:   a.log,
		Bounds:   a.cfg.Filters.Bounds(),
	})
	if err != nil {
		return err
	}
	a.api = api
	a.auth = client.NewAuthProvider(api, a.store, a.log)
	a.session = session.New(a.auth, a.log)
	a.favorites = favorites.NewList(a.store, client.NewFavorites(api), a.log)

	initCtx, cancel := context.WithTimeout(ctx, a.initTimeout())
	defer cancel()
	a.session.Init(initCtx)

	a.prepared = true
	return nil
}

func (a *App) initTimeout() time.Duration {
	if a.cfg.Client.Timeout > 0 {
		return 2 * a.cfg.Client.Timeout
	}
	return 30 * time.Second
}

// Close releases the session context.
func (a *App) Close() {
	if a.session != nil {
		a.session.Close()
	}
}

// snapshot waits for any pending role lookup.
func (a *App) snapshot(ctx context.Context) (session.Snapshot, error) {
	waitCtx, cancel := context.WithTimeout(ctx, a.initTimeout())
	defer cancel()
	return a.session.Await(waitCtx)
}

// requireArea applies the guarded route table to a CLI area such as
// "/dashboard".
func (a *App) requireArea(ctx context.Context, area string) error {
	rule, ok := guard.Lookup(area)
	if !ok {
		return nil
	}
	snap, err := a.snapshot(ctx)
	if err != nil {
		return ErrRoleUnresolved
	}

	verdict := guard.Classify(snap.GuardInput(), rule.Allow)
	switch verdict.Decision {
	case guard.Authorized:
		return nil
	case guard.Loading:
		return ErrRoleUnresolved
	default:
		a.log.Debug("guard rejected command", zap.String("area", area), zap.String("redirect", verdict.Redirect))
		if verdict.Redirect == guard.LoginPath {
			return ErrNotSignedIn
		}
		return ErrForbidden
	}
}

func (a *App) loadFilters(ctx context.Context) (filters.State, error) {
	raw, ok, err := a.store.Get(ctx, FiltersStorageKey)
	if err != nil {
		return filters.State{}, fmt.Errorf("read filters: %w", err)
	}
	if !ok {
		return filters.DefaultFor(a.cfg.Filters.Bounds()), nil
	}

	var s filters.State
	if err := json.Unmarshal(raw, &s); err != nil {
		a.log.Warn("stored filters unreadable, using defaults", zap.Error(err))
		return filters.DefaultFor(a.cfg.Filters.Bounds()), nil
	}
	if err := s.Validate(a.cfg.Filters.Bounds()); err != nil {
		a.log.Warn("stored filters invalid, using defaults", zap.Error(err))
		return filters.DefaultFor(a.cfg.Filters.Bounds()), nil
	}
	return s, nil
}

func (a *App) saveFilters(ctx context.Context, s filters.State) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode filters: %w", err)
	}
	if err := a.store.Set(ctx, FiltersStorageKey, raw); err != nil {
		return fmt.Errorf("write filters: %w", err)
	}
	return nil
}

// openFilters returns a manager over the stored canonical filter. Every
// change is written back; the returned func reports the first write error.
func (a *App) openFilters(ctx context.Context) (*filters.Manager, func() error, error) {
	canonical, err := a.loadFilters(ctx)
	if err != nil {
		return nil, nil, err
	}

	var persistErr error
	m := filters.NewManager(canonical, func(s filters.State) {
		if err := a.saveFilters(ctx, s); err != nil && persistErr == nil {
			persistErr = err
		}
	})
	return m, func() error { return persistErr }, nil
}
