package random

import (
	"context"
	"testing"

	"github.com/openinfra/consolidator/pkg/inventory"
	"github.com/openinfra/consolidator/pkg/snapshot"
)

func buildSnapshot(t *testing.T, nodes int, instancesPerNode int) *snapshot.Snapshot {
	t.Helper()
	f := inventory.NewFake()
	for n := 0; n < nodes; n++ {
		host := hostName(n)
		f.AddNode(inventory.Node{Hostname: host, VCPUs: 16, MemoryMB: 32768, LocalGB: 500, ComputeEnabled: true})
		for i := 0; i < instancesPerNode; i++ {
			f.AddInstance(inventory.Instance{
				ID: int64(n*1000 + i), Host: host,
				VCPUs: 1, MemoryMB: 512, RootGB: 5,
				VMState: inventory.VMStateActive, PowerState: inventory.PowerStateRunning,
			})
		}
	}
	s, err := snapshot.Build(context.Background(), f)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return s
}

func hostName(n int) string {
	return string(rune('A' + n))
}

func TestBaseAlwaysIdentity(t *testing.T) {
	s := buildSnapshot(t, 3, 2)
	p, err := Base{}.GetMigrations(s)
	if err != nil {
		t.Fatalf("GetMigrations() error = %v", err)
	}
	for _, inst := range s.InstancesMigrable() {
		if p[inst.ID] != inst.Host {
			t.Errorf("Base placement moved instance %d: %q != %q", inst.ID, p[inst.ID], inst.Host)
		}
	}
}

func TestRandomOneNodeIsEmpty(t *testing.T) {
	s := buildSnapshot(t, 1, 10)
	p, err := Random{MigrationPercentage: 50}.GetMigrations(s)
	if err != nil {
		t.Fatalf("GetMigrations() error = %v", err)
	}
	for _, inst := range s.InstancesMigrable() {
		if p[inst.ID] != inst.Host {
			t.Errorf("single-node Random moved instance %d, want no migrations", inst.ID)
		}
	}
}

func TestRandomProducesAtLeastOneMigration(t *testing.T) {
	s := buildSnapshot(t, 3, 5)
	p, err := Random{MigrationPercentage: 50}.GetMigrations(s)
	if err != nil {
		t.Fatalf("GetMigrations() error = %v", err)
	}

	moved := 0
	for _, inst := range s.InstancesMigrable() {
		if p[inst.ID] != inst.Host {
			moved++
		}
	}
	if moved == 0 {
		t.Fatal("Random produced zero migrations with n_nodes=3, n_migrable=15, migration_percentage=50")
	}
}

func TestRandomDestinationNeverSourceHost(t *testing.T) {
	s := buildSnapshot(t, 4, 5)
	p, err := Random{MigrationPercentage: 80}.GetMigrations(s)
	if err != nil {
		t.Fatalf("GetMigrations() error = %v", err)
	}
	for _, inst := range s.InstancesMigrable() {
		if dest, moved := p[inst.ID], p[inst.ID] != inst.Host; moved && dest == inst.Host {
			t.Errorf("instance %d destination equals its current host %q", inst.ID, inst.Host)
		}
	}
}
