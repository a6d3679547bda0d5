package inventory

import "context"

// Source lists the current cluster state. Implementations may fail with
// any error; Snapshot construction propagates it verbatim and the tick
// that requested it is aborted (spec.md §4.A).
type Source interface {
	// ListNodes returns every compute node whose agent reports enabled.
	ListNodes(ctx context.Context) ([]Node, error)
	// ListInstancesOn returns the instances currently placed on host.
	ListInstancesOn(ctx context.Context, host string) ([]Instance, error)
}
