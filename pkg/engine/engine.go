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

// Package engine defines the placement-engine interface shared by the GA
// and Holistic engines (and the Base/Random reference engines), plus the
// Placement type they all produce.
//
// The original models engines as BaseConsolidator subclasses that
// override get_migrations(); this repo uses a plain interface instead
// (spec.md §9 design note: "base-class + override pattern ... model as
// an interface").
package engine

import (
	"fmt"

	"github.com/openinfra/consolidator/pkg/snapshot"
)

// Placement is a total function from migrable-instance-id to destination
// hostname (spec.md §3).
type Placement map[int64]string

// Engine computes a new Placement for a Snapshot. Implementations are
// pure and CPU-only: no I/O, no suspension (spec.md §5).
type Engine interface {
	// GetMigrations returns the placement this engine computes for
	// snapshot. Implementations are expected to short-circuit to an
	// empty Placement when there are fewer than 1 node or 0 migrable
	// instances, per spec.md §4.D.5 and §7.
	GetMigrations(snapshot *snapshot.Snapshot) (Placement, error)
}

// Kind enumerates the engine classes selectable via configuration
// (spec.md §6 consolidator_class).
type Kind string

const (
	KindBase     Kind = "Base"
	KindRandom   Kind = "Random"
	KindGA       Kind = "GA"
	KindHolistic Kind = "Holistic"
)

// ErrUnknownKind is returned by a Kind-keyed factory when asked to
// construct an engine of an unrecognized kind; this is a configuration
// error, fatal at startup (spec.md §7).
func ErrUnknownKind(kind Kind) error {
	return fmt.Errorf("unknown consolidator_class %q", kind)
}
