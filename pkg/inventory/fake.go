package inventory

import (
	"context"
	"fmt"
)

// Fake is an in-memory Source for tests, in the spirit of the original
// project's nova.virt.fake test double and the
// nova.tests.unit.consolidator.base fixture: a fixed set of nodes, each
// pre-populated with a fixed set of instances.
type Fake struct {
	nodes     []Node
	instances map[string][]Instance

	// ListNodesErr, if set, is returned by ListNodes instead of the fixed
	// node list, simulating an unavailable inventory source.
	ListNodesErr error
}

// NewFake builds a Fake with no nodes or instances; use AddNode and
// AddInstance to populate it.
func NewFake() *Fake {
	return &Fake{instances: map[string][]Instance{}}
}

// AddNode registers a compute node.
func (f *Fake) AddNode(n Node) *Fake {
	f.nodes = append(f.nodes, n)
	return f
}

// AddInstance places an instance on a host already added via AddNode.
func (f *Fake) AddInstance(i Instance) *Fake {
	f.instances[i.Host] = append(f.instances[i.Host], i)
	return f
}

func (f *Fake) ListNodes(ctx context.Context) ([]Node, error) {
	if f.ListNodesErr != nil {
		return nil, f.ListNodesErr
	}
	out := make([]Node, 0, len(f.nodes))
	for _, n := range f.nodes {
		if n.ComputeEnabled {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *Fake) ListInstancesOn(ctx context.Context, host string) ([]Instance, error) {
	return f.instances[host], nil
}

// ErrInventoryUnavailable is a stand-in failure for tests that exercise
// the "inventory unavailable" path of spec.md §4.A.
var ErrInventoryUnavailable = fmt.Errorf("inventory source unavailable")
