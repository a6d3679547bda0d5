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

// Package inventory defines the read-only external collaborator that
// reports cluster state: compute nodes and the instances placed on them.
// It is specified only at the interface (spec.md §6); concrete bindings
// live under pkg/adapters and pkg/inventory's own Fake for tests.
package inventory

// VMState mirrors the lifecycle state nova reports for an instance.
type VMState string

// PowerState mirrors the hypervisor-reported power state for an instance.
type PowerState string

const (
	VMStateActive VMState = "active"
	VMStateError  VMState = "error"
	VMStateStopped VMState = "stopped"

	PowerStateRunning PowerState = "running"
	PowerStateShutdown PowerState = "shutdown"
	PowerStateNoState  PowerState = "nostate"
)

// Node is one compute host as reported by the inventory source.
type Node struct {
	Hostname       string
	VCPUs          int64
	MemoryMB       int64
	LocalGB        int64
	VCPUsUsed      int64
	MemoryMBUsed   int64
	LocalGBUsed    int64
	ComputeEnabled bool
}

// Instance is one VM instance as reported by the inventory source.
type Instance struct {
	ID         int64
	Host       string
	VCPUs      int64
	MemoryMB   int64
	RootGB     int64
	VMState    VMState
	PowerState PowerState
}

// Migrable reports whether the instance is eligible for live migration:
// ACTIVE vm_state and RUNNING power_state, per the GLOSSARY definition.
func (i Instance) Migrable() bool {
	return i.VMState == VMStateActive && i.PowerState == PowerStateRunning
}
