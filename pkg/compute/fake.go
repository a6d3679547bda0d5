package compute

import (
	"context"
	"sync"
)

// Call records one LiveMigrate invocation observed by a Fake client.
type Call struct {
	InstanceID  int64
	Block       bool
	OverCommit  bool
	Destination string
}

// Fake is an in-memory Client for tests. Errs maps an instance ID to the
// error LiveMigrate returns for that instance on every call; entries are
// never consumed (callers compose distinct Fakes per test rather than
// relying on single-shot semantics).
type Fake struct {
	mu    sync.Mutex
	Calls []Call
	Errs  map[int64]error
}

// NewFake builds an empty Fake.
func NewFake() *Fake {
	return &Fake{Errs: map[int64]error{}}
}

func (f *Fake) LiveMigrate(ctx context.Context, instanceID int64, block, overCommit bool, destination string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, Call{InstanceID: instanceID, Block: block, OverCommit: overCommit, Destination: destination})
	return f.Errs[instanceID]
}
