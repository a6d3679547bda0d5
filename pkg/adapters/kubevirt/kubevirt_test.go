package kubevirt

import (
	"testing"

	kubevirtv1 "kubevirt.io/api/core/v1"

	"github.com/openinfra/consolidator/pkg/inventory"
)

func TestInstanceIDIsStableAndNamespaceSensitive(t *testing.T) {
	a := instanceID("default", "vm-a")
	b := instanceID("default", "vm-a")
	c := instanceID("other", "vm-a")

	if a != b {
		t.Errorf("instanceID(%q, %q) is not stable across calls: %d != %d", "default", "vm-a", a, b)
	}
	if a == c {
		t.Errorf("instanceID differs only by namespace but produced the same id: %d", a)
	}
}

func TestVMStateAndPowerStateOfRunningVMI(t *testing.T) {
	vmi := kubevirtv1.VirtualMachineInstance{
		Status: kubevirtv1.VirtualMachineInstanceStatus{Phase: kubevirtv1.Running},
	}
	if got := vmStateOf(vmi); got != inventory.VMStateActive {
		t.Errorf("vmStateOf(Running) = %q, want %q", got, inventory.VMStateActive)
	}
	if got := powerStateOf(vmi); got != inventory.PowerStateRunning {
		t.Errorf("powerStateOf(Running) = %q, want %q", got, inventory.PowerStateRunning)
	}
}

func TestVMStateAndPowerStateOfFailedVMI(t *testing.T) {
	vmi := kubevirtv1.VirtualMachineInstance{
		Status: kubevirtv1.VirtualMachineInstanceStatus{Phase: kubevirtv1.Failed},
	}
	if got := vmStateOf(vmi); got != inventory.VMStateError {
		t.Errorf("vmStateOf(Failed) = %q, want %q", got, inventory.VMStateError)
	}
	if got := powerStateOf(vmi); got != inventory.PowerStateShutdown {
		t.Errorf("powerStateOf(Failed) = %q, want %q", got, inventory.PowerStateShutdown)
	}
}

func TestInstanceIDOfMatchesInstanceID(t *testing.T) {
	vmi := kubevirtv1.VirtualMachineInstance{}
	vmi.Namespace = "ns"
	vmi.Name = "vm-b"

	if got, want := instanceIDOf(vmi), instanceID("ns", "vm-b"); got != want {
		t.Errorf("instanceIDOf() = %d, want %d", got, want)
	}
}
