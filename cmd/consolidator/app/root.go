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

// Package app wires spec.md §6's configuration knobs to pflag, builds
// the KubeVirt-backed collaborators, and runs pkg/loop until the process
// receives a termination signal.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/klog/v2"
	"kubevirt.io/client-go/kubecli"

	kubevirtadapter "github.com/openinfra/consolidator/pkg/adapters/kubevirt"
	"github.com/openinfra/consolidator/pkg/config"
	"github.com/openinfra/consolidator/pkg/engine"
	"github.com/openinfra/consolidator/pkg/engine/ga"
	"github.com/openinfra/consolidator/pkg/loop"
	"github.com/openinfra/consolidator/pkg/tracing"
)

// flags holds every value pflag can set, translated into a config.Config
// by toConfig once parsing succeeds.
type flags struct {
	consolidatorClass     string
	consolidationInterval string
	migrationPercentage   int

	populationSize int
	epochLimit     int
	probCrossover  float64
	probMutation   float64
	mutationPerc   int
	elitismPerc    int
	selection      string
	tournamentP    float64
	tournamentK    int
	vcpuWeight     float64
	ramWeight      float64
	diskWeight     float64
	reportPath     string

	tracingEndpoint string
	tracingInsecure bool

	namespace  string
	kubeconfig string
}

// NewRootCommand builds the consolidator CLI's single command.
func NewRootCommand() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "consolidator",
		Short: "Run the compute consolidation control loop",
		Long:  "consolidator periodically repacks running VMs onto fewer hosts, dispatching live migrations computed by a configurable placement engine (Base, Random, GA, or Holistic).",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), f)
		},
	}

	bindFlags(cmd.Flags(), f)
	return cmd
}

func bindFlags(fs *pflag.FlagSet, f *flags) {
	fs.StringVar(&f.consolidatorClass, "consolidator-class", string(engine.KindBase), "placement engine: Base, Random, GA, or Holistic")
	fs.StringVar(&f.consolidationInterval, "consolidation-interval", "10s", "tick period, as a Go duration string")
	fs.IntVar(&f.migrationPercentage, "migration-percentage", 1, "percentage of migrable instances the Random engine touches per tick")

	fs.IntVar(&f.populationSize, "ga-population-size", 500, "GA population size")
	fs.IntVar(&f.epochLimit, "ga-epoch-limit", 100, "GA epoch cap per tick")
	fs.Float64Var(&f.probCrossover, "ga-prob-crossover", 1.0, "GA crossover probability")
	fs.Float64Var(&f.probMutation, "ga-prob-mutation", 0.8, "GA mutation probability")
	fs.IntVar(&f.mutationPerc, "ga-mutation-perc", 10, "percent of genes mutated when mutation fires")
	fs.IntVar(&f.elitismPerc, "ga-elitism-perc", 0, "percent of population carried unchanged to the next generation")
	fs.StringVar(&f.selection, "ga-selection", "Roulette", "GA parent selection strategy: Roulette or Tournament")
	fs.Float64Var(&f.tournamentP, "ga-tournament-p", 1.0, "Tournament selection bias")
	fs.IntVar(&f.tournamentK, "ga-tournament-k-perc", 25, "Tournament selection pool size, percent of population")
	fs.Float64Var(&f.vcpuWeight, "ga-vcpu-weight", 0.4, "fitness weight for vcpu utilization")
	fs.Float64Var(&f.ramWeight, "ga-ram-weight", 0.4, "fitness weight for ram utilization")
	fs.Float64Var(&f.diskWeight, "ga-disk-weight", 0.2, "fitness weight for disk utilization")
	fs.StringVar(&f.reportPath, "ga-report-path", "", "if set, write an HTML convergence chart to this path after each GA run")

	fs.StringVar(&f.tracingEndpoint, "tracing-endpoint", "", "OTLP/gRPC collector address; tracing is disabled when empty")
	fs.BoolVar(&f.tracingInsecure, "tracing-insecure", false, "disable transport security on the tracing gRPC connection")

	fs.StringVar(&f.namespace, "namespace", "", "namespace to scope VirtualMachineInstance queries to; empty means all namespaces")
	fs.StringVar(&f.kubeconfig, "kubeconfig", "", "path to a kubeconfig file; empty uses in-cluster config")
}

func (f *flags) toConfig() (config.Config, error) {
	cfg := config.Default()
	cfg.ConsolidatorClass = engine.Kind(f.consolidatorClass)
	cfg.MigrationPercentage = f.migrationPercentage
	cfg.TracingEndpoint = f.tracingEndpoint
	cfg.TracingInsecure = f.tracingInsecure
	cfg.ReportPath = f.reportPath

	interval, err := time.ParseDuration(f.consolidationInterval)
	if err != nil {
		return config.Config{}, fmt.Errorf("invalid --consolidation-interval: %w", err)
	}
	cfg.ConsolidationInterval = interval

	cfg.GA = ga.Config{
		PopulationSize:  f.populationSize,
		EpochLimit:      f.epochLimit,
		ProbCrossover:   f.probCrossover,
		ProbMutation:    f.probMutation,
		MutationPerc:    f.mutationPerc,
		ElitismPerc:     f.elitismPerc,
		Selection:       ga.SelectionKind(f.selection),
		TournamentP:     f.tournamentP,
		TournamentKPerc: f.tournamentK,
		VCPUWeight:      f.vcpuWeight,
		RAMWeight:       f.ramWeight,
		DiskWeight:      f.diskWeight,
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func run(ctx context.Context, f *flags) error {
	cfg, err := f.toConfig()
	if err != nil {
		return err
	}

	eng, err := config.NewEngine(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracer, shutdown, err := tracing.Init(ctx, tracing.Config{
		Endpoint:    cfg.TracingEndpoint,
		Insecure:    cfg.TracingInsecure,
		ServiceName: "consolidator",
	})
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	restConfig, err := clientcmd.BuildConfigFromFlags("", f.kubeconfig)
	if err != nil {
		return fmt.Errorf("building kube client config: %w", err)
	}
	client, err := kubecli.GetKubevirtClientFromRESTConfig(restConfig)
	if err != nil {
		return fmt.Errorf("building kubevirt client: %w", err)
	}

	adapter := kubevirtadapter.Adapter{Client: client, Namespace: f.namespace}

	l := &loop.Loop{
		Source:   adapter,
		Client:   adapter,
		Engine:   eng,
		Interval: cfg.ConsolidationInterval,
		Tracer:   tracer,
	}

	klog.Background().Info("starting consolidator", "engine", cfg.ConsolidatorClass, "interval", cfg.ConsolidationInterval)
	l.Run(ctx)
	return nil
}
