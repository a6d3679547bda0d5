/*
Copyright 2024 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package snapshot builds the immutable, per-tick view of cluster state
// that every engine operates on. A Snapshot is built once at the start of
// a tick, consumed, and discarded; it is never mutated afterwards
// (spec.md §3, §4.A).
//
// The original project lazily memoizes each field of its Snapshot/
// ComputeNodeWrapper objects on first access and forwards unknown
// attribute reads to the wrapped nova object via __getattr__. Neither
// behavior is externally visible here: this Snapshot is built eagerly in
// one shot at construction (spec.md §9 design note), and Host copies the
// fields it needs out of inventory.Node instead of forwarding reads.
package snapshot

import (
	"context"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/openinfra/consolidator/pkg/inventory"
	"github.com/openinfra/consolidator/pkg/metrics"
)

// Instance is the consolidator's view of one VM instance, copied out of
// the raw inventory.Instance the Snapshot observed.
type Instance struct {
	ID     int64
	Host   string
	Flavor metrics.ResourceVec
	inventory.VMState
	inventory.PowerState
}

// Migrable reports whether this instance is eligible for live migration.
func (i Instance) Migrable() bool {
	return i.VMState == inventory.VMStateActive && i.PowerState == inventory.PowerStateRunning
}

// Host is the consolidator's adapter over one compute node: the raw
// capacity/base figures plus the memoized migrable/not-migrable instance
// subsets computed once at Snapshot construction.
type Host struct {
	Hostname string
	Capacity metrics.ResourceVec
	Base     metrics.ResourceVec

	migrable    []Instance
	notMigrable []Instance
}

// InstancesMigrable returns the instances on this host eligible for
// migration, in inventory order.
func (h *Host) InstancesMigrable() []Instance { return h.migrable }

// InstancesNotMigrable returns the instances pinned to this host.
func (h *Host) InstancesNotMigrable() []Instance { return h.notMigrable }

// Used returns the host's current resource consumption: base load plus
// the flavors of every instance currently placed (migrable or not).
func (h *Host) Used() metrics.ResourceVec {
	used := h.Base
	for _, i := range h.migrable {
		used = used.Add(i.Flavor)
	}
	return used
}

// Snapshot is the immutable, single-tick observation of cluster state.
type Snapshot struct {
	hosts     []*Host
	byHost    map[string]*Host
	instances []Instance
}

// Hosts returns every enabled compute host observed this tick, in the
// order the inventory source returned them.
func (s *Snapshot) Hosts() []*Host { return s.hosts }

// Host looks up a host by name, or returns nil if absent.
func (s *Snapshot) Host(hostname string) *Host { return s.byHost[hostname] }

// Instances returns every instance observed this tick, migrable or not.
func (s *Snapshot) Instances() []Instance { return s.instances }

// InstancesMigrable returns every migrable instance across all hosts, in
// the canonical order used to index GA chromosomes (spec.md §3): hosts in
// inventory order, instances within a host in inventory order.
func (s *Snapshot) InstancesMigrable() []Instance {
	var out []Instance
	for _, h := range s.hosts {
		out = append(out, h.migrable...)
	}
	return out
}

// Build constructs a Snapshot by querying source once for the node list
// and once per node for its instances, then eagerly computing every
// derived view. It fails if the node list cannot be retrieved; a failure
// to list instances on one node is likewise propagated and aborts the
// tick (spec.md §4.A: "inventory unavailable -> propagated up, current
// tick aborted").
func Build(ctx context.Context, source inventory.Source) (*Snapshot, error) {
	logger := klog.FromContext(ctx)

	rawNodes, err := source.ListNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing compute nodes: %w", err)
	}

	s := &Snapshot{byHost: map[string]*Host{}}

	for _, n := range rawNodes {
		if !n.ComputeEnabled {
			continue
		}

		rawInstances, err := source.ListInstancesOn(ctx, n.Hostname)
		if err != nil {
			return nil, fmt.Errorf("listing instances on %q: %w", n.Hostname, err)
		}

		host := &Host{
			Hostname: n.Hostname,
			Capacity: metrics.ResourceVec{VCPUs: n.VCPUs, RAMMB: n.MemoryMB, DiskGB: n.LocalGB},
		}

		var notMigrableBase metrics.ResourceVec
		for _, ri := range rawInstances {
			inst := Instance{
				ID:         ri.ID,
				Host:       ri.Host,
				Flavor:     metrics.ResourceVec{VCPUs: ri.VCPUs, RAMMB: ri.MemoryMB, DiskGB: ri.RootGB},
				VMState:    ri.VMState,
				PowerState: ri.PowerState,
			}
			s.instances = append(s.instances, inst)

			if inst.Migrable() {
				host.migrable = append(host.migrable, inst)
			} else {
				host.notMigrable = append(host.notMigrable, inst)
				notMigrableBase = notMigrableBase.Add(inst.Flavor)
			}
		}
		host.Base = notMigrableBase

		s.hosts = append(s.hosts, host)
		s.byHost[host.Hostname] = host
	}

	logger.V(4).Info("snapshot built", "hosts", len(s.hosts), "instances", len(s.instances))
	return s, nil
}
