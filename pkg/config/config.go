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

// Package config holds the process-wide, read-only configuration loaded
// once at startup (spec.md §6). There is no hot-reload and no persisted
// state: a Config is built once by the CLI and passed by value into the
// loop and engines it constructs, replacing the original's oslo.config
// global CONF singleton (spec.md §9 design note).
package config

import (
	"fmt"
	"time"

	"github.com/openinfra/consolidator/pkg/engine"
	"github.com/openinfra/consolidator/pkg/engine/ga"
)

// Config is every configurable knob in spec.md §6, flattened into one
// struct rather than the original's section-per-engine ini layout.
type Config struct {
	// ConsolidatorClass selects the engine the loop runs each tick.
	ConsolidatorClass engine.Kind
	// ConsolidationInterval is the tick period.
	ConsolidationInterval time.Duration
	// MigrationPercentage is the Random engine's per-invocation quota.
	MigrationPercentage int

	// GA holds every genetic-algorithm hyperparameter.
	GA ga.Config

	// Tracing controls optional OTLP trace export.
	TracingEndpoint string
	TracingInsecure bool

	// ReportPath, if non-empty, is where the GA engine writes its
	// per-tick convergence chart (pkg/report).
	ReportPath string
}

// Default returns the configuration spec.md §6 lists as defaults.
func Default() Config {
	return Config{
		ConsolidatorClass:     engine.KindBase,
		ConsolidationInterval: 10 * time.Second,
		MigrationPercentage:   1,
		GA:                    ga.Default(),
	}
}

// Validate rejects configuration errors at startup (spec.md §7:
// "Configuration errors ... fatal at startup").
func (c Config) Validate() error {
	switch c.ConsolidatorClass {
	case engine.KindBase, engine.KindRandom, engine.KindGA, engine.KindHolistic:
	default:
		return engine.ErrUnknownKind(c.ConsolidatorClass)
	}

	if c.ConsolidationInterval <= 0 {
		return fmt.Errorf("consolidation_interval must be positive, got %s", c.ConsolidationInterval)
	}

	if c.ConsolidatorClass == engine.KindRandom {
		if c.MigrationPercentage < 1 || c.MigrationPercentage > 99 {
			return fmt.Errorf("migration_percentage must be in [1,99], got %d", c.MigrationPercentage)
		}
	}

	if c.ConsolidatorClass == engine.KindGA {
		if err := c.GA.Validate(); err != nil {
			return fmt.Errorf("ga config: %w", err)
		}
	}

	return nil
}
