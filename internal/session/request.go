package session

import "context"

type snapshotContextKey struct{}

// WithSnapshot attaches a resolved snapshot to a request context.
func WithSnapshot(ctx context.Context, snap Snapshot) context.Context {
	return context.WithValue(ctx, snapshotContextKey{}, snap.clone())
}

// SnapshotFromContext returns the snapshot attached by WithSnapshot. A
// context without one reports a settled, signed-out snapshot.
func SnapshotFromContext(ctx context.Context) Snapshot {
	snap, ok := ctx.Value(snapshotContextKey{}).(Snapshot)
	if !ok {
		return Snapshot{}
	}
	return snap.clone()
}
