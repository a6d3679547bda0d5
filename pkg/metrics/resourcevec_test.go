package metrics

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAddSub(t *testing.T) {
	a := ResourceVec{VCPUs: 4, RAMMB: 8192, DiskGB: 80}
	b := ResourceVec{VCPUs: 1, RAMMB: 1024, DiskGB: 10}

	got := a.Add(b)
	want := ResourceVec{VCPUs: 5, RAMMB: 9216, DiskGB: 90}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Add() mismatch (-want +got):\n%s", diff)
	}

	got = a.Sub(b)
	want = ResourceVec{VCPUs: 3, RAMMB: 7168, DiskGB: 70}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Sub() mismatch (-want +got):\n%s", diff)
	}
}

func TestSum(t *testing.T) {
	got := Sum(
		ResourceVec{VCPUs: 1, RAMMB: 1, DiskGB: 1},
		ResourceVec{VCPUs: 2, RAMMB: 2, DiskGB: 2},
		ResourceVec{VCPUs: 3, RAMMB: 3, DiskGB: 3},
	)
	want := ResourceVec{VCPUs: 6, RAMMB: 6, DiskGB: 6}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Sum() mismatch (-want +got):\n%s", diff)
	}
}

func TestRatios(t *testing.T) {
	used := ResourceVec{VCPUs: 2, RAMMB: 512, DiskGB: 10}
	cap := ResourceVec{VCPUs: 4, RAMMB: 1024, DiskGB: 100}

	vcpu, ram, disk := used.Ratios(cap)
	if vcpu != 0.5 || ram != 0.5 || disk != 0.1 {
		t.Fatalf("Ratios() = (%v, %v, %v), want (0.5, 0.5, 0.1)", vcpu, ram, disk)
	}
}

func TestRatiosZeroCapacity(t *testing.T) {
	used := ResourceVec{VCPUs: 2}
	vcpu, ram, disk := used.Ratios(ResourceVec{})
	if vcpu != 0 || ram != 0 || disk != 0 {
		t.Fatalf("Ratios() with zero capacity = (%v, %v, %v), want all zero", vcpu, ram, disk)
	}
}

func TestFits(t *testing.T) {
	cases := []struct {
		name     string
		capacity ResourceVec
		used     ResourceVec
		flavor   ResourceVec
		want     bool
	}{
		{
			name:     "fits with room to spare",
			capacity: ResourceVec{VCPUs: 8, RAMMB: 16384, DiskGB: 200},
			used:     ResourceVec{VCPUs: 2, RAMMB: 2048, DiskGB: 20},
			flavor:   ResourceVec{VCPUs: 2, RAMMB: 2048, DiskGB: 20},
			want:     true,
		},
		{
			name:     "fits exactly is allowed",
			capacity: ResourceVec{VCPUs: 4, RAMMB: 4096, DiskGB: 40},
			used:     ResourceVec{VCPUs: 2, RAMMB: 2048, DiskGB: 20},
			flavor:   ResourceVec{VCPUs: 2, RAMMB: 2048, DiskGB: 20},
			want:     true,
		},
		{
			name:     "one axis over capacity",
			capacity: ResourceVec{VCPUs: 4, RAMMB: 4096, DiskGB: 40},
			used:     ResourceVec{VCPUs: 2, RAMMB: 2048, DiskGB: 20},
			flavor:   ResourceVec{VCPUs: 3, RAMMB: 1024, DiskGB: 10},
			want:     false,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Fits(c.capacity, c.used, c.flavor); got != c.want {
				t.Errorf("Fits() = %v, want %v", got, c.want)
			}
		})
	}
}
