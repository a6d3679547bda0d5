package app

import (
	"testing"

	"github.com/spf13/pflag"

	"github.com/openinfra/consolidator/pkg/engine"
)

func TestToConfigAppliesDefaults(t *testing.T) {
	f := &flags{}
	bindFlags(pflag.NewFlagSet("test", pflag.ContinueOnError), f)

	cfg, err := f.toConfig()
	if err != nil {
		t.Fatalf("toConfig() error = %v", err)
	}
	if cfg.ConsolidatorClass != engine.KindBase {
		t.Errorf("ConsolidatorClass = %q, want %q", cfg.ConsolidatorClass, engine.KindBase)
	}
	if cfg.GA.PopulationSize != 500 {
		t.Errorf("GA.PopulationSize = %d, want 500", cfg.GA.PopulationSize)
	}
}

func TestToConfigRejectsInvalidInterval(t *testing.T) {
	f := &flags{}
	bindFlags(pflag.NewFlagSet("test", pflag.ContinueOnError), f)
	f.consolidationInterval = "not-a-duration"

	if _, err := f.toConfig(); err == nil {
		t.Error("toConfig() error = nil, want error for an unparseable --consolidation-interval")
	}
}

func TestToConfigRejectsInvalidEngineClass(t *testing.T) {
	f := &flags{}
	bindFlags(pflag.NewFlagSet("test", pflag.ContinueOnError), f)
	f.consolidatorClass = "NotAnEngine"

	if _, err := f.toConfig(); err == nil {
		t.Error("toConfig() error = nil, want error for an unknown --consolidator-class")
	}
}

func TestNewRootCommandRegistersFlags(t *testing.T) {
	cmd := NewRootCommand()
	if cmd.Flags().Lookup("consolidator-class") == nil {
		t.Error("NewRootCommand() did not register --consolidator-class")
	}
	if cmd.Flags().Lookup("ga-population-size") == nil {
		t.Error("NewRootCommand() did not register --ga-population-size")
	}
}
