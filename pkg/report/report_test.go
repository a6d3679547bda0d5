package report

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteConvergenceRendersNonEmptyHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "convergence.html")
	err := WriteConvergence(path, "test chart", []float64{0.1, 0.2, 0.35, 0.4})
	if err != nil {
		t.Fatalf("WriteConvergence() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat report file: %v", err)
	}
	if info.Size() == 0 {
		t.Error("report file is empty")
	}
}

func TestWriteConvergenceRejectsEmptyHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "convergence.html")
	if err := WriteConvergence(path, "test chart", nil); err == nil {
		t.Error("WriteConvergence() error = nil, want error for empty history")
	}
}
