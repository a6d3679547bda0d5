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

// Package random holds the Base (always-empty) and Random reference
// engines, ported from the original project's BaseConsolidator and
// RandomConsolidator (nova/consolidator/base.py), which the original
// ships "only as example".
package random

import (
	"k8s.io/klog/v2"

	"golang.org/x/exp/rand"

	"github.com/openinfra/consolidator/pkg/engine"
	"github.com/openinfra/consolidator/pkg/snapshot"
)

// Base always produces the identity placement: no migrations. It exists
// as the zero-value engine kind and as the base every other engine's
// short-circuit conditions fall back to.
type Base struct{}

var _ engine.Engine = Base{}

func (Base) GetMigrations(snap *snapshot.Snapshot) (engine.Placement, error) {
	return identityPlacement(snap), nil
}

func identityPlacement(snap *snapshot.Snapshot) engine.Placement {
	p := engine.Placement{}
	for _, i := range snap.InstancesMigrable() {
		p[i.ID] = i.Host
	}
	return p
}

// Random picks a random host with migrable instances, moves a random
// non-empty subset of them to one other random host, and repeats until the
// instances picked add up to MigrationPercentage% of the migrable
// instances, rounded down. An instance picked in more than one round keeps
// the destination of its last round.
// It is "useless", per the original's own comment: provided as a minimal
// example implementation of the Engine interface, and to exercise
// spec.md §8 property 6.
type Random struct {
	// MigrationPercentage is the percentage (1-99) of migrable instances
	// to touch at each invocation (spec.md §6 migration_percentage).
	MigrationPercentage int
}

var _ engine.Engine = Random{}

func (r Random) GetMigrations(snap *snapshot.Snapshot) (engine.Placement, error) {
	logger := klog.Background()
	placement := identityPlacement(snap)

	hosts := snap.Hosts()
	noNodes := len(hosts)
	migrable := snap.InstancesMigrable()
	noInst := len(migrable)

	pct := float64(r.MigrationPercentage) / 100
	noInstMigrate := int(float64(noInst) * pct)

	if noInst == 0 {
		logger.V(2).Info("no running instance found, cannot migrate")
		return placement, nil
	}
	if noInstMigrate == 0 {
		logger.V(2).Info("too few instances, cannot migrate")
		return placement, nil
	}
	if noNodes == 0 {
		logger.V(2).Info("no compute node in current snapshot")
		return placement, nil
	}
	if noNodes == 1 {
		logger.V(2).Info("only one compute node in current snapshot, cannot migrate")
		return placement, nil
	}

	for noInstMigrate > 0 {
		candidates := make([]*snapshot.Host, len(hosts))
		copy(candidates, hosts)
		fromHost := chooseSourceHost(candidates)
		if fromHost == nil {
			logger.V(2).Info("no running instance found, cannot migrate")
			break
		}

		instOnHost := fromHost.InstancesMigrable()
		topBound := len(instOnHost)
		if noInstMigrate < topBound {
			topBound = noInstMigrate
		}
		n := 1 + rand.Intn(topBound)
		noInstMigrate -= n

		chosen := sampleInstances(instOnHost, n)

		toHost := chooseDestination(hosts, fromHost)
		for _, i := range chosen {
			placement[i.ID] = toHost.Hostname
		}
	}

	return placement, nil
}

// chooseSourceHost repeatedly picks a random host from candidates until
// it finds one with at least one migrable instance, removing empty hosts
// it passes over; it returns nil if every host is empty.
func chooseSourceHost(candidates []*snapshot.Host) *snapshot.Host {
	for len(candidates) > 0 {
		idx := rand.Intn(len(candidates))
		host := candidates[idx]
		if len(host.InstancesMigrable()) > 0 {
			return host
		}
		candidates = append(candidates[:idx], candidates[idx+1:]...)
	}
	return nil
}

// chooseDestination picks a uniformly random host other than exclude.
func chooseDestination(hosts []*snapshot.Host, exclude *snapshot.Host) *snapshot.Host {
	others := make([]*snapshot.Host, 0, len(hosts)-1)
	for _, h := range hosts {
		if h != exclude {
			others = append(others, h)
		}
	}
	return others[rand.Intn(len(others))]
}

// sampleInstances picks n instances uniformly at random without
// replacement from pool.
func sampleInstances(pool []snapshot.Instance, n int) []snapshot.Instance {
	shuffled := append([]snapshot.Instance(nil), pool...)
	rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	return shuffled[:n]
}
