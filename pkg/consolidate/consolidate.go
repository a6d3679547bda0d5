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

// Package consolidate turns an Engine's Placement into the ordered
// migration list a tick dispatches, ported from the original project's
// BaseConsolidator: diffing a Placement against the Snapshot it was
// computed from, then collapsing the result with a transitive closure
// (nova/consolidator/base.py's _transitive_closure).
package consolidate

import (
	"fmt"

	"github.com/openinfra/consolidator/pkg/engine"
	"github.com/openinfra/consolidator/pkg/snapshot"
)

// Migration is one planned move: relocate InstanceID to Destination.
type Migration struct {
	InstanceID  int64
	Destination string
}

// Diff produces the raw migration list for placement against snap: one
// entry per migrable instance whose placed host differs from its current
// host, in the Snapshot's canonical order (spec.md §4.E).
func Diff(snap *snapshot.Snapshot, placement engine.Placement) []Migration {
	var migs []Migration
	for _, inst := range snap.InstancesMigrable() {
		dest, ok := placement[inst.ID]
		if !ok || dest == inst.Host {
			continue
		}
		migs = append(migs, Migration{InstanceID: inst.ID, Destination: dest})
	}
	return migs
}

// TransitiveClosure collapses migs so that each instance ID appears at
// most once, keeping only the last migration (by original position) for
// that ID. The result is returned in ascending original-position order.
// TransitiveClosure is idempotent: closing an already-closed list returns
// it unchanged.
func TransitiveClosure(migs []Migration) []Migration {
	lastIndex := make(map[int64]int, len(migs))
	for i, m := range migs {
		lastIndex[m.InstanceID] = i
	}

	closed := make([]Migration, 0, len(lastIndex))
	for i, m := range migs {
		if lastIndex[m.InstanceID] == i {
			closed = append(closed, m)
		}
	}
	return closed
}

// Consolidator wraps a placement Engine with the Diff + TransitiveClosure
// pipeline a tick needs. Unlike the original's BaseConsolidator subclass
// hierarchy, this is a free function composition over an Engine value
// (spec.md §9 design note), not a base class the engines extend.
type Consolidator struct {
	Engine engine.Engine
}

// Consolidate runs Engine against snap and returns the closed migration
// list ready for dispatch.
func (c Consolidator) Consolidate(snap *snapshot.Snapshot) ([]Migration, error) {
	placement, err := c.Engine.GetMigrations(snap)
	if err != nil {
		return nil, fmt.Errorf("computing placement: %w", err)
	}
	return TransitiveClosure(Diff(snap, placement)), nil
}
