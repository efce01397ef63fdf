package favorites

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/sickboy81/saphira/internal/domain/model"
)

type memoryKV struct {
	values map[string][]byte
	setErr error
}

func newMemoryKV() *memoryKV {
	return &memoryKV{values: make(map[string][]byte)}
}

func (m *memoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memoryKV) Set(_ context.Context, key string, value []byte) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = append([]byte(nil), value...)
	return nil
}

type resolverStub struct {
	profiles map[string]model.Profile
	err      error
	calls    [][]string
}

func (r *resolverStub) Lookup(_ context.Context, ids []string) ([]model.Profile, error) {
	r.calls = append(r.calls, ids)
	out := make([]model.Profile, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.profiles[id]; ok {
			out = append(out, p)
		}
	}
	return out, r.err
}

func profileIDs(profiles []model.Profile) []string {
	out := make([]string, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, p.ID)
	}
	return out
}

func TestRemovePersistsShorterList(t *testing.T) {
	kv := newMemoryKV()
	kv.values[StorageKey] = []byte(`["a","b"]`)
	resolver := &resolverStub{profiles: map[string]model.Profile{
		"a": {ID: "a", DisplayName: "Ana"},
		"b": {ID: "b", DisplayName: "Bia"},
	}}

	list := NewList(kv, resolver, zap.NewNop())
	if err := list.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := list.Remove(context.Background(), "b"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if got := string(kv.values[StorageKey]); got != `["a"]` {
		t.Fatalf("unexpected stored list: got %s want %s", got, `["a"]`)
	}
	if diff := cmp.Diff([]string{"a"}, profileIDs(list.Profiles())); diff != "" {
		t.Fatalf("unexpected profiles (-want +got):\n%s", diff)
	}
}

func TestToggleAddsThenRemoves(t *testing.T) {
	kv := newMemoryKV()
	resolver := &resolverStub{profiles: map[string]model.Profile{"mock-1": {ID: "mock-1"}}}
	list := NewList(kv, resolver, zap.NewNop())
	if err := list.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	added, err := list.Toggle(context.Background(), "mock-1")
	if err != nil || !added {
		t.Fatalf("unexpected toggle result: added=%v err=%v", added, err)
	}
	if got := string(kv.values[StorageKey]); got != `["mock-1"]` {
		t.Fatalf("unexpected stored list after add: %s", got)
	}
	if len(list.Profiles()) != 1 {
		t.Fatalf("expected the added profile to be resolved")
	}

	added, err = list.Toggle(context.Background(), "mock-1")
	if err != nil || added {
		t.Fatalf("unexpected toggle result: added=%v err=%v", added, err)
	}
	if got := string(kv.values[StorageKey]); got != `[]` {
		t.Fatalf("unexpected stored list after remove: %s", got)
	}
}

func TestLoadDistinguishesEmptyFromUnavailable(t *testing.T) {
	kv := newMemoryKV()
	kv.values[StorageKey] = []byte(`["gone"]`)

	empty := NewList(kv, &resolverStub{}, zap.NewNop())
	if err := empty.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if empty.Degraded() || len(empty.Profiles()) != 0 {
		t.Fatalf("an empty result must not be degraded")
	}

	down := NewList(kv, &resolverStub{err: errors.New("503")}, zap.NewNop())
	if err := down.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !down.Degraded() {
		t.Fatalf("expected a backend failure to mark the list degraded")
	}
	if diff := cmp.Diff([]string{"gone"}, down.IDs()); diff != "" {
		t.Fatalf("ids must survive a failed lookup (-want +got):\n%s", diff)
	}
}

func TestLoadKeepsSampleProfilesWhileDegraded(t *testing.T) {
	kv := newMemoryKV()
	kv.values[StorageKey] = []byte(`["mock-1","9b2f6a0e-6c1d-4c3e-9a51-2f1d7c0e8b11"]`)

	resolver := &resolverStub{
		profiles: map[string]model.Profile{"mock-1": {ID: "mock-1", DisplayName: "Ana"}},
		err:      errors.New("backend unavailable"),
	}
	l := NewList(kv, resolver, zap.NewNop())
	if err := l.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	if !l.Degraded() {
		t.Fatalf("expected the list to be degraded")
	}
	if diff := cmp.Diff([]string{"mock-1"}, profileIDs(l.Profiles())); diff != "" {
		t.Fatalf("unexpected resolved profiles (-want +got):\n%s", diff)
	}
	if len(l.IDs()) != 2 {
		t.Fatalf("ids must survive a partial lookup: %v", l.IDs())
	}
}

func TestLoadDropsDuplicatesAndGarbage(t *testing.T) {
	kv := newMemoryKV()
	kv.values[StorageKey] = []byte(`["a"," a ","","b"]`)
	list := NewList(kv, &resolverStub{}, zap.NewNop())
	if err := list.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, list.IDs()); diff != "" {
		t.Fatalf("unexpected ids (-want +got):\n%s", diff)
	}

	kv.values[StorageKey] = []byte(`{not json`)
	if err := list.Load(context.Background()); err != nil {
		t.Fatalf("load corrupt value: %v", err)
	}
	if len(list.IDs()) != 0 {
		t.Fatalf("expected corrupt storage to load as empty")
	}
}

func TestWriteFailureKeepsMemoryState(t *testing.T) {
	kv := newMemoryKV()
	kv.values[StorageKey] = []byte(`["a"]`)
	list := NewList(kv, &resolverStub{}, zap.NewNop())
	if err := list.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	kv.setErr = errors.New("disk full")
	if err := list.Remove(context.Background(), "a"); err == nil {
		t.Fatalf("expected write error")
	}
	if !list.Contains("a") {
		t.Fatalf("failed write must not change the in-memory list")
	}
}
