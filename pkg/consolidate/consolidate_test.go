package consolidate

import (
	"context"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/openinfra/consolidator/pkg/engine"
	"github.com/openinfra/consolidator/pkg/inventory"
	"github.com/openinfra/consolidator/pkg/snapshot"
)

// TestTransitiveClosureDropsSupersededMigrations ports the boundary
// scenario from the original project's
// tests/unit/consolidator/test_base.py: a raw migration list containing
// three instances migrated more than once, where only the last migration
// for each should survive.
func TestTransitiveClosureDropsSupersededMigrations(t *testing.T) {
	raw := []Migration{
		{InstanceID: 0, Destination: "hostB"}, // superseded by index 4
		{InstanceID: 2, Destination: "hostC"},
		{InstanceID: 3, Destination: "hostA"}, // superseded by index 5
		{InstanceID: 5, Destination: "hostA"},
		{InstanceID: 0, Destination: "hostC"},
		{InstanceID: 3, Destination: "hostD"},
		{InstanceID: 1, Destination: "hostD"}, // superseded by index 7
		{InstanceID: 1, Destination: "hostC"},
	}

	want := []Migration{
		{InstanceID: 2, Destination: "hostC"},
		{InstanceID: 5, Destination: "hostA"},
		{InstanceID: 0, Destination: "hostC"},
		{InstanceID: 3, Destination: "hostD"},
		{InstanceID: 1, Destination: "hostC"},
	}

	got := TransitiveClosure(raw)
	sortMigs(got)
	sortMigs(want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("TransitiveClosure() mismatch (-want +got):\n%s", diff)
	}
}

func TestTransitiveClosureAlreadyClosedIsUnchanged(t *testing.T) {
	migs := []Migration{
		{InstanceID: 1, Destination: "hostA"},
		{InstanceID: 2, Destination: "hostB"},
	}
	first := TransitiveClosure(migs)
	second := TransitiveClosure(first)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("TransitiveClosure(TransitiveClosure(x)) != TransitiveClosure(x):\n%s", diff)
	}
}

func TestTransitiveClosureEmptyInput(t *testing.T) {
	if got := TransitiveClosure(nil); len(got) != 0 {
		t.Errorf("TransitiveClosure(nil) = %v, want empty", got)
	}
}

func sortMigs(migs []Migration) {
	sort.Slice(migs, func(i, j int) bool { return migs[i].InstanceID < migs[j].InstanceID })
}

func twoHostFixture(t *testing.T) *snapshot.Snapshot {
	t.Helper()
	f := inventory.NewFake()
	f.AddNode(inventory.Node{Hostname: "hostA", VCPUs: 8, MemoryMB: 8192, LocalGB: 80, ComputeEnabled: true})
	f.AddNode(inventory.Node{Hostname: "hostB", VCPUs: 8, MemoryMB: 8192, LocalGB: 80, ComputeEnabled: true})
	f.AddInstance(inventory.Instance{ID: 1, Host: "hostA", VCPUs: 1, MemoryMB: 1024, RootGB: 10, VMState: inventory.VMStateActive, PowerState: inventory.PowerStateRunning})
	f.AddInstance(inventory.Instance{ID: 2, Host: "hostB", VCPUs: 1, MemoryMB: 1024, RootGB: 10, VMState: inventory.VMStateActive, PowerState: inventory.PowerStateRunning})

	s, err := snapshot.Build(context.Background(), f)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return s
}

type stubEngine struct {
	placement engine.Placement
	err       error
}

func (s stubEngine) GetMigrations(*snapshot.Snapshot) (engine.Placement, error) {
	return s.placement, s.err
}

func TestDiffSkipsInstancesThatDidNotMove(t *testing.T) {
	s := twoHostFixture(t)
	placement := engine.Placement{1: "hostA", 2: "hostA"}

	migs := Diff(s, placement)
	if len(migs) != 1 || migs[0].InstanceID != 2 || migs[0].Destination != "hostA" {
		t.Fatalf("Diff() = %v, want exactly one migration moving instance 2 to hostA", migs)
	}
}

func TestConsolidatorPropagatesEngineError(t *testing.T) {
	s := twoHostFixture(t)
	wantErr := errSentinel{}
	c := Consolidator{Engine: stubEngine{err: wantErr}}

	_, err := c.Consolidate(s)
	if err == nil {
		t.Fatal("Consolidate() error = nil, want non-nil when the engine fails")
	}
}

type errSentinel struct{}

func (errSentinel) Error() string { return "engine failed" }

func TestConsolidatorClosesEngineOutput(t *testing.T) {
	s := twoHostFixture(t)
	c := Consolidator{Engine: stubEngine{placement: engine.Placement{1: "hostB", 2: "hostA"}}}

	migs, err := c.Consolidate(s)
	if err != nil {
		t.Fatalf("Consolidate() error = %v", err)
	}

	want := []Migration{
		{InstanceID: 1, Destination: "hostB"},
		{InstanceID: 2, Destination: "hostA"},
	}
	sortMigs(migs)
	if diff := cmp.Diff(want, migs); diff != "" {
		t.Errorf("Consolidate() mismatch (-want +got):\n%s", diff)
	}
}
