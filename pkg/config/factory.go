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

package config

import (
	"github.com/openinfra/consolidator/pkg/engine"
	"github.com/openinfra/consolidator/pkg/engine/ga"
	"github.com/openinfra/consolidator/pkg/engine/holistic"
	"github.com/openinfra/consolidator/pkg/engine/random"
)

// NewEngine is the Kind-keyed factory spec.md §9 calls for in place of
// the original's string-keyed dynamic class loading: it rejects unknown
// kinds at construction (a configuration error, fatal at startup) rather
// than at first use.
func NewEngine(c Config) (engine.Engine, error) {
	switch c.ConsolidatorClass {
	case engine.KindBase:
		return random.Base{}, nil
	case engine.KindRandom:
		return random.Random{MigrationPercentage: c.MigrationPercentage}, nil
	case engine.KindGA:
		return ga.Engine{Config: c.GA, ReportPath: c.ReportPath}, nil
	case engine.KindHolistic:
		return holistic.Engine{}, nil
	default:
		return nil, engine.ErrUnknownKind(c.ConsolidatorClass)
	}
}
