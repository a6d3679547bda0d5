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

// Package holistic implements the deterministic greedy reshuffle engine
// (spec.md §4.C), ported from the original project's
// nova.consolidator.holistic.core.Holistic. The original mutates a
// sort-then-index-from-the-end node list in place; this port keeps the
// sorted order immutable and tracks residual capacity in a separate
// working set instead (spec.md §9 design note).
package holistic

import (
	"sort"

	"k8s.io/klog/v2"

	"github.com/openinfra/consolidator/pkg/engine"
	"github.com/openinfra/consolidator/pkg/metrics"
	"github.com/openinfra/consolidator/pkg/snapshot"
)

// loadWeight is applied uniformly to the summed per-axis ratio; any
// positive monotone combination works, since only the resulting order
// matters (spec.md §4.C step 1).
const loadWeight = 0.3

// Stats carries metadata about one Holistic pass, returned alongside the
// Placement. Released is metadata only: it never gates dispatch (spec.md
// §9 Open Question resolution).
type Stats struct {
	// Released reports whether the pass left strictly fewer hosts with
	// non-empty load than it started with.
	Released bool
	// ReleasedHostCount is the number of hosts fully emptied by the pass.
	ReleasedHostCount int
}

type workingHost struct {
	hostname string
	capacity metrics.ResourceVec
	used     metrics.ResourceVec
	// instances holds this host's current migrable instances as of this
	// pass; entries are removed as they relocate elsewhere.
	instances []snapshot.Instance
}

func (h *workingHost) loadKey() float64 {
	vcpu, ram, disk := h.used.Ratios(h.capacity)
	return loadWeight * (vcpu + ram + disk)
}

func (h *workingHost) suitable(flavor metrics.ResourceVec) bool {
	return metrics.Fits(h.capacity, h.used, flavor)
}

func (h *workingHost) add(i snapshot.Instance) {
	h.used = h.used.Add(i.Flavor)
	h.instances = append(h.instances, i)
}

func (h *workingHost) remove(idx int) snapshot.Instance {
	i := h.instances[idx]
	h.used = h.used.Sub(i.Flavor)
	h.instances = append(h.instances[:idx], h.instances[idx+1:]...)
	return i
}

// Engine runs the Holistic algorithm against whatever Snapshot it is
// given; it carries no per-run state of its own.
type Engine struct{}

var _ engine.Engine = Engine{}

// GetMigrations implements engine.Engine by discarding the Stats value;
// callers that need the released-host metadata should call Run directly.
func (e Engine) GetMigrations(snap *snapshot.Snapshot) (engine.Placement, error) {
	placement, _, err := Run(snap)
	return placement, err
}

// Run executes the Holistic pass over snap and returns the resulting
// Placement together with Stats describing how many hosts it emptied.
// Preconditions: len(snap.Hosts()) >= 1 and at least one migrable
// instance; Run returns an empty Placement without error when either
// precondition fails to hold, matching the short-circuit behavior the
// other engines share (spec.md §7).
func Run(snap *snapshot.Snapshot) (engine.Placement, Stats, error) {
	logger := klog.Background()

	hosts := snap.Hosts()
	if len(hosts) == 0 {
		return engine.Placement{}, Stats{}, nil
	}
	if len(snap.InstancesMigrable()) == 0 {
		return engine.Placement{}, Stats{}, nil
	}

	working := make([]*workingHost, len(hosts))
	placement := engine.Placement{}
	for idx, h := range hosts {
		wh := &workingHost{
			hostname:  h.Hostname,
			capacity:  h.Capacity,
			used:      h.Used(),
			instances: append([]snapshot.Instance(nil), h.InstancesMigrable()...),
		}
		working[idx] = wh
		for _, i := range wh.instances {
			placement[i.ID] = h.Hostname
		}
	}

	noUsedBefore := countNonEmpty(working)

	// Step 1: sort descending by load key, ties broken by hostname.
	sorted := append([]*workingHost(nil), working...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ki, kj := sorted[i].loadKey(), sorted[j].loadKey()
		if ki != kj {
			return ki > kj
		}
		return sorted[i].hostname < sorted[j].hostname
	})

	releasedHosts := 0
	n := len(sorted)
	for index := 1; index <= n; index++ {
		source := sorted[n-index]
		if len(source.instances) == 0 {
			continue
		}

		// Step 2: big-first best fit, ties broken by instance ID.
		sort.SliceStable(source.instances, func(i, j int) bool {
			si := sizeOf(source.instances[i])
			sj := sizeOf(source.instances[j])
			if si != sj {
				return si > sj
			}
			return source.instances[i].ID < source.instances[j].ID
		})

		candidateWindow := sorted[:n-index]
		initialCount := len(source.instances)
		placed := 0

		// Walk source.instances itself: remove() mutates it in place, so
		// walk it from the front and only advance when an instance stays
		// put.
		i := 0
		for i < len(source.instances) {
			inst := source.instances[i]
			dest := findSuitableHost(candidateWindow, inst.Flavor)
			if dest == nil {
				i++
				continue
			}

			source.remove(i)
			dest.add(inst)
			placement[inst.ID] = dest.hostname
			placed++
		}

		if placed == initialCount {
			releasedHosts++
		}
	}

	noUsedAfter := countNonEmpty(working)
	stats := Stats{
		Released:          noUsedAfter < noUsedBefore,
		ReleasedHostCount: releasedHosts,
	}

	logger.V(3).Info("holistic pass complete", "hostsBefore", noUsedBefore, "hostsAfter", noUsedAfter, "released", stats.Released)
	return placement, stats, nil
}

func findSuitableHost(window []*workingHost, flavor metrics.ResourceVec) *workingHost {
	for _, h := range window {
		if h.suitable(flavor) {
			return h
		}
	}
	return nil
}

func countNonEmpty(hosts []*workingHost) int {
	count := 0
	for _, h := range hosts {
		if h.used.VCPUs > 0 {
			count++
		}
	}
	return count
}

func sizeOf(i snapshot.Instance) int64 {
	return i.Flavor.VCPUs + i.Flavor.RAMMB + i.Flavor.DiskGB
}
