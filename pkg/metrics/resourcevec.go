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

// Package metrics defines the three-axis resource tuple shared by every
// placement engine and the suitability predicate both engines evaluate
// against it.
package metrics

// ResourceVec is a non-negative (vcpus, ram_mb, disk_gb) tuple. Callers
// are responsible for only combining ResourceVecs through operations
// reachable from a valid placement; Sub never clamps, so subtracting past
// zero is a programmer error, not a runtime one.
type ResourceVec struct {
	VCPUs int64
	RAMMB int64
	DiskGB int64
}

// Add returns the component-wise sum.
func (r ResourceVec) Add(o ResourceVec) ResourceVec {
	return ResourceVec{
		VCPUs:  r.VCPUs + o.VCPUs,
		RAMMB:  r.RAMMB + o.RAMMB,
		DiskGB: r.DiskGB + o.DiskGB,
	}
}

// Sub returns the component-wise difference.
func (r ResourceVec) Sub(o ResourceVec) ResourceVec {
	return ResourceVec{
		VCPUs:  r.VCPUs - o.VCPUs,
		RAMMB:  r.RAMMB - o.RAMMB,
		DiskGB: r.DiskGB - o.DiskGB,
	}
}

// LessEqual reports whether every component of r is <= the matching
// component of o.
func (r ResourceVec) LessEqual(o ResourceVec) bool {
	return r.VCPUs <= o.VCPUs && r.RAMMB <= o.RAMMB && r.DiskGB <= o.DiskGB
}

// GreaterEqualZero reports whether every component is non-negative.
func (r ResourceVec) GreaterEqualZero() bool {
	return r.VCPUs >= 0 && r.RAMMB >= 0 && r.DiskGB >= 0
}

// Sum returns the component-wise sum of any number of vectors.
func Sum(vs ...ResourceVec) ResourceVec {
	var total ResourceVec
	for _, v := range vs {
		total = total.Add(v)
	}
	return total
}

// Ratios returns (used.VCPUs/capacity.VCPUs, used.RAMMB/capacity.RAMMB,
// used.DiskGB/capacity.DiskGB). A capacity component of zero yields a
// ratio of zero for that axis to avoid dividing by zero; callers are not
// expected to construct zero-capacity hosts.
func (r ResourceVec) Ratios(capacity ResourceVec) (vcpu, ram, disk float64) {
	if capacity.VCPUs > 0 {
		vcpu = float64(r.VCPUs) / float64(capacity.VCPUs)
	}
	if capacity.RAMMB > 0 {
		ram = float64(r.RAMMB) / float64(capacity.RAMMB)
	}
	if capacity.DiskGB > 0 {
		disk = float64(r.DiskGB) / float64(capacity.DiskGB)
	}
	return vcpu, ram, disk
}

// HostCapacity pairs a host's fixed base load (from non-migrable
// instances) with its total capacity.
type HostCapacity struct {
	Base     ResourceVec
	Capacity ResourceVec
}

// Fits is the single suitability predicate shared by the Holistic and GA
// engines: true iff placing flavor on top of used still leaves every
// residual >= 0 against capacity. "Fits exactly" (residual == 0) is
// allowed.
func Fits(capacity, used, flavor ResourceVec) bool {
	residual := capacity.Sub(used).Sub(flavor)
	return residual.GreaterEqualZero()
}
