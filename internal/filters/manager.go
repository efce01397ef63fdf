package filters

import "sync"

// Manager owns the working copy of a filter and reports every change upward.
// The canonical filter lives with the owner of onChange.
type Manager struct {
	mu       sync.Mutex
	working  State
	onChange func(State)
}

func NewManager(canonical State, onChange func(State)) *Manager {
	if onChange == nil {
		onChange = func(State) {}
	}
	return &Manager{
		working:  canonical.Clone(),
		onChange: onChange,
	}
}

// ReplaceFields merges p into the working copy. onChange receives the
// merged value before ReplaceFields returns.
func (m *Manager) ReplaceFields(p Patch) State {
	return m.apply(func(State) Patch { return p })
}

func (m *Manager) ToggleMember(f SetField, v string) State {
	return m.apply(func(cur State) Patch {
		return f.patch(Toggle(f.members(cur), v))
	})
}

func (m *Manager) apply(build func(State) Patch) State {
	m.mu.Lock()
	next := Merge(m.working, build(m.working))
	m.working = next
	m.mu.Unlock()

	m.onChange(next.Clone())
	return next.Clone()
}

// Clear resets the working copy to the clear-all filter for bounds b.
func (m *Manager) Clear(b Bounds) State {
	return m.ReplaceFields(PatchFrom(DefaultFor(b)))
}

// Sync overwrites the working copy with a canonical value pushed down by
// the owner. No callback fires.
func (m *Manager) Sync(canonical State) {
	m.mu.Lock()
	m.working = canonical.Clone()
	m.mu.Unlock()
}

func (m *Manager) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.working.Clone()
}
