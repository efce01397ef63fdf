package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/sickboy81/saphira/internal/domain/enums"
)

// Context tracks the current session and role. Identity failures are logged
// and leave the role empty; Loading is always cleared once a lookup ends.
type Context struct {
	provider Provider
	log      *zap.Logger

	mu          sync.Mutex
	snap        Snapshot
	gen         uint64
	idle        chan struct{}
	started     bool
	closed      bool
	unsubscribe func()
	watchers    map[int]func(Snapshot)
	nextWatch   int
	dirty       bool
	delivering  bool

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func New(provider Provider, log *zap.Logger) *Context {
	if log == nil {
		log = zap.NewNop()
	}
	baseCtx, cancel := context.WithCancel(context.Background())
	return &Context{
		provider: provider,
		log:      log,
		snap:     Snapshot{Loading: true},
		idle:     make(chan struct{}),
		watchers: make(map[int]func(Snapshot)),
		baseCtx:  baseCtx,
		cancel:   cancel,
	}
}

// Init reads the current session, subscribes to identity events and
// resolves the role. Only the first call has an effect.
func (c *Context) Init(ctx context.Context) {
	c.mu.Lock()
	if c.started || c.closed {
		c.mu.Unlock()
		return
	}
	c.started = true
	gen := c.gen
	c.mu.Unlock()

	unsubscribe := c.provider.Subscribe(c.handle)
	c.mu.Lock()
	c.unsubscribe = unsubscribe
	c.mu.Unlock()

	sess, err := c.provider.GetSession(ctx)
	if err != nil {
		c.log.Warn("session check failed", zap.Error(err))
		c.settle(gen, nil, nil)
		return
	}
	if sess == nil {
		c.settle(gen, nil, nil)
		return
	}
	c.settle(gen, sess, c.lookupRole(ctx, sess.UserID))
}

func (c *Context) handle(ev Event) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.gen++
	gen := c.gen
	prev := c.snap

	if ev.Session == nil {
		c.setLocked(Snapshot{})
		c.mu.Unlock()
		c.notify()
		return
	}

	sess := *ev.Session
	next := Snapshot{Session: &sess, Loading: true}
	if prev.Session != nil && prev.Session.UserID == sess.UserID {
		next.Role = prev.Role
		next.Loading = prev.Loading
	}
	c.setLocked(next)
	c.wg.Add(1)
	c.mu.Unlock()
	c.notify()

	go func() {
		defer c.wg.Done()
		c.settle(gen, &sess, c.lookupRole(c.baseCtx, sess.UserID))
	}()
}

func (c *Context) lookupRole(ctx context.Context, userID string) *enums.Role {
	role, err := c.provider.GetRole(ctx, userID)
	if err != nil {
		c.log.Warn("role lookup failed", zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	if role == nil {
		c.log.Info("no profile row for user", zap.String("user_id", userID))
	}
	return role
}

// settle stores a resolved session unless a newer event superseded it.
func (c *Context) settle(gen uint64, sess *Session, role *enums.Role) {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	c.setLocked(Snapshot{Session: sess, Role: role})
	c.mu.Unlock()
	c.notify()
}

func (c *Context) setLocked(next Snapshot) {
	c.snap = next.clone()
	if next.Loading {
		if c.idle == nil {
			c.idle = make(chan struct{})
		}
		return
	}
	if c.idle != nil {
		close(c.idle)
		c.idle = nil
	}
}

// notify delivers the current snapshot to watchers, one delivery at a time
// and without holding any lock. A change made while a delivery runs, e.g. by
// a watcher calling SignOut, is picked up by that delivery once the running
// callbacks return; such changes are coalesced into the latest snapshot.
func (c *Context) notify() {
	c.mu.Lock()
	c.dirty = true
	if c.delivering {
		c.mu.Unlock()
		return
	}
	c.delivering = true

	for c.dirty {
		c.dirty = false
		snap := c.snap.clone()
		fns := make([]func(Snapshot), 0, len(c.watchers))
		for _, fn := range c.watchers {
			fns = append(fns, fn)
		}
		c.mu.Unlock()

		for _, fn := range fns {
			fn(snap.clone())
		}
		c.mu.Lock()
	}
	c.delivering = false
	c.mu.Unlock()
}

func (c *Context) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.clone()
}

// Await blocks until no role lookup is pending.
func (c *Context) Await(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	if !c.snap.Loading {
		snap := c.snap.clone()
		c.mu.Unlock()
		return snap, nil
	}
	idle := c.idle
	c.mu.Unlock()

	select {
	case <-idle:
		return c.Await(ctx)
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Watch registers fn for every snapshot change and returns a function that
// removes it.
func (c *Context) Watch(fn func(Snapshot)) func() {
	c.mu.Lock()
	id := c.nextWatch
	c.nextWatch++
	c.watchers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.watchers, id)
		c.mu.Unlock()
	}
}

// SignOut clears local state before calling the provider, so a failed remote
// sign-out still leaves the caller signed out locally.
func (c *Context) SignOut(ctx context.Context) error {
	c.mu.Lock()
	c.gen++
	c.setLocked(Snapshot{})
	c.mu.Unlock()
	c.notify()

	if err := c.provider.SignOut(ctx); err != nil {
		c.log.Warn("sign out failed", zap.Error(err))
		return err
	}
	return nil
}

// Close unsubscribes from the provider and waits for pending role lookups.
func (c *Context) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	c.cancel()
	c.wg.Wait()
}
