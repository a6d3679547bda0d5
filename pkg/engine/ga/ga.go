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

// Package ga implements the population-based search engine (spec.md §4.D),
// ported from the original project's nova.consolidator.ga package:
// GA.run's generational loop from ga/core.py, and the
// TournamentSelection/RouletteSelection/SinglePointCrossover/
// MetricsFitnessFunction operators from ga/functions.py. The struct shapes
// and per-epoch logging cadence are styled after the teacher's own
// population-search engine, algorithms/nsga2.go — though that engine is
// Pareto multi-objective (NSGA-II) and only its Go idiom is borrowed here,
// not its non-dominated-sorting semantics: this GA is single-fitness, as
// spec.md requires.
package ga

import (
	"fmt"
	"sort"

	"golang.org/x/exp/rand"
	"k8s.io/klog/v2"

	"github.com/openinfra/consolidator/pkg/engine"
	"github.com/openinfra/consolidator/pkg/metrics"
	"github.com/openinfra/consolidator/pkg/snapshot"
)

// chromosome is a hostname sequence, one entry per migrable instance in
// the Snapshot's canonical order.
type chromosome []string

// GA holds one run's fixed problem data (instances, flavors, host
// capacities) plus its evolving population.
type GA struct {
	cfg Config

	instances []snapshot.Instance
	flavors   []metrics.ResourceVec
	hostnames []string
	capacity  map[string]metrics.ResourceVec
	base      map[string]metrics.ResourceVec

	eliteLen    int
	mutateCount int
	maxFit      float64
	selection   selectionFunc

	population []chromosome
}

// New builds a GA and its initial population against snap. It returns an
// error if snap has no migrable instances, no hosts, or if some instance
// has no suitable host at all during initial random placement (spec.md
// §4.D.5: an engine-internal impossibility, fatal for the tick).
func New(snap *snapshot.Snapshot, cfg Config) (*GA, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid GA configuration: %w", err)
	}

	instances := snap.InstancesMigrable()
	hosts := snap.Hosts()
	if len(hosts) == 0 {
		return nil, fmt.Errorf("cannot init GA: no hosts given")
	}
	if len(instances) == 0 {
		return nil, fmt.Errorf("cannot init GA: no migrable instance")
	}

	g := &GA{
		cfg:       cfg,
		instances: instances,
		flavors:   make([]metrics.ResourceVec, len(instances)),
		hostnames: make([]string, len(hosts)),
		capacity:  make(map[string]metrics.ResourceVec, len(hosts)),
		base:      make(map[string]metrics.ResourceVec, len(hosts)),
	}
	for i, inst := range instances {
		g.flavors[i] = inst.Flavor
	}
	for i, h := range hosts {
		g.hostnames[i] = h.Hostname
		g.capacity[h.Hostname] = h.Capacity
		g.base[h.Hostname] = h.Base
	}

	g.eliteLen = int(float64(cfg.ElitismPerc) / 100 * float64(cfg.PopulationSize))
	g.mutateCount = int(float64(cfg.MutationPerc) / 100 * float64(len(instances)))
	g.selection = newSelection(cfg.Selection, cfg.TournamentP, cfg.TournamentKPerc)
	g.maxFit = g.computeMaxFitness()

	pop, err := g.initialPopulation()
	if err != nil {
		return nil, err
	}
	g.population = pop

	return g, nil
}

// Run executes the generational loop (spec.md §4.D.4) until either the
// epoch limit is hit or the best individual reaches the theoretical
// maximum fitness, and returns the winning chromosome as a Placement.
func (g *GA) Run() engine.Placement {
	placement, _ := g.run(nil)
	return placement
}

// RunWithHistory behaves like Run but additionally returns the best
// fitness observed at every epoch, index 0 being the initial population
// before any generation ran. It exists for pkg/report's convergence
// chart; Run itself never pays the cost of recording history.
func (g *GA) RunWithHistory() (engine.Placement, []float64) {
	history := make([]float64, 0, g.cfg.EpochLimit+1)
	placement, _ := g.run(func(_ int, fitness float64) {
		history = append(history, fitness)
	})
	return placement, history
}

func (g *GA) run(record func(epoch int, fitness float64)) (engine.Placement, int) {
	logger := klog.Background()
	logBest := func(epoch int) {
		logger.V(3).Info("ga epoch best fitness", "epoch", epoch, "fitness", g.fitness(g.population[0]), "maxFitness", g.maxFit)
	}
	recordBest := func(epoch int) {
		if record != nil {
			record(epoch, g.fitness(g.population[0]))
		}
	}
	logBest(0)
	recordBest(0)

	epoch := 0
	for epoch < g.cfg.EpochLimit {
		if g.fitness(g.population[0]) >= g.maxFit {
			logger.V(2).Info("ga reached theoretical max fitness, stopping", "epoch", epoch)
			break
		}
		g.population = g.nextGeneration()
		epoch++
		recordBest(epoch)
		if epoch%10 == 0 {
			logBest(epoch)
		}
	}
	logBest(epoch)

	return g.placementFrom(g.population[0]), epoch
}

// nextGeneration builds one offspring population: the elite survive
// unchanged, the rest are bred by selection + crossover + mutation, and
// the result is re-sorted descending by fitness.
func (g *GA) nextGeneration() []chromosome {
	next := make([]chromosome, 0, g.cfg.PopulationSize)
	next = append(next, g.population[:g.eliteLen]...)

	for len(next) < g.cfg.PopulationSize {
		parent := g.selection(g.population, g.fitness)

		var child chromosome
		if rand.Float64() < g.cfg.ProbCrossover {
			mate := g.selection(g.population, g.fitness)
			child = singlePointCrossover(parent, mate)
		} else {
			child = cloneChromosome(parent)
		}

		if !g.valid(child) {
			child = cloneChromosome(parent)
		}

		if rand.Float64() < g.cfg.ProbMutation {
			child = g.mutate(child)
		}

		next = append(next, child)
	}

	sort.SliceStable(next, func(i, j int) bool {
		return g.fitness(next[i]) > g.fitness(next[j])
	})
	return next
}

func (g *GA) placementFrom(ch chromosome) engine.Placement {
	p := engine.Placement{}
	for i, inst := range g.instances {
		p[inst.ID] = ch[i]
	}
	return p
}

func (g *GA) initialPopulation() ([]chromosome, error) {
	pop := make([]chromosome, g.cfg.PopulationSize)
	for i := range pop {
		ch, err := g.randomChromosome()
		if err != nil {
			return nil, err
		}
		pop[i] = ch
	}
	sort.SliceStable(pop, func(i, j int) bool {
		return g.fitness(pop[i]) > g.fitness(pop[j])
	})
	return pop, nil
}

// randomChromosome places each instance, in canonical order, onto a
// uniformly chosen suitable host given the running residual tally.
func (g *GA) randomChromosome() (chromosome, error) {
	status := g.baseStatus()
	ch := make(chromosome, len(g.instances))

	for i := range g.instances {
		candidates := g.suitableHosts(status, g.flavors[i], "")
		if len(candidates) == 0 {
			return nil, fmt.Errorf("no suitable host for instance %d at initial placement", g.instances[i].ID)
		}
		host := candidates[rand.Intn(len(candidates))]
		status[host] = status[host].Add(g.flavors[i])
		ch[i] = host
	}
	return ch, nil
}

// mutate reassigns MUTATION_PERC% of genes, chosen uniformly at random, to
// a suitable host other than their current one, evaluated against the
// running tally as positions are visited in canonical order. A gene with
// no alternative suitable host is left unchanged.
func (g *GA) mutate(ch chromosome) chromosome {
	status := g.statusFromChromosome(ch)
	toMutate := sampleIndexes(len(ch), g.mutateCount)

	out := make(chromosome, len(ch))
	for i, host := range ch {
		if !toMutate[i] {
			out[i] = host
			continue
		}

		status[host] = status[host].Sub(g.flavors[i])
		candidates := g.suitableHosts(status, g.flavors[i], host)
		if len(candidates) == 0 {
			status[host] = status[host].Add(g.flavors[i])
			out[i] = host
			continue
		}

		newHost := candidates[rand.Intn(len(candidates))]
		status[newHost] = status[newHost].Add(g.flavors[i])
		out[i] = newHost
	}
	return out
}

func sampleIndexes(n, count int) map[int]bool {
	if count > n {
		count = n
	}
	out := make(map[int]bool, count)
	if count <= 0 {
		return out
	}
	perm := rand.Perm(n)
	for _, idx := range perm[:count] {
		out[idx] = true
	}
	return out
}

func (g *GA) suitableHosts(status map[string]metrics.ResourceVec, flavor metrics.ResourceVec, avoid string) []string {
	var out []string
	for _, h := range g.hostnames {
		if h == avoid {
			continue
		}
		if metrics.Fits(g.capacity[h], status[h], flavor) {
			out = append(out, h)
		}
	}
	return out
}

func (g *GA) baseStatus() map[string]metrics.ResourceVec {
	status := make(map[string]metrics.ResourceVec, len(g.hostnames))
	for _, h := range g.hostnames {
		status[h] = g.base[h]
	}
	return status
}

func (g *GA) statusFromChromosome(ch chromosome) map[string]metrics.ResourceVec {
	status := g.baseStatus()
	for i, host := range ch {
		status[host] = status[host].Add(g.flavors[i])
	}
	return status
}

// valid reports whether every host's residual capacity stays >= 0 under
// ch, on all three axes.
func (g *GA) valid(ch chromosome) bool {
	status := g.statusFromChromosome(ch)
	for _, h := range g.hostnames {
		if !metrics.Fits(g.capacity[h], metrics.ResourceVec{}, status[h]) {
			return false
		}
	}
	return true
}

// ratios returns, for each host, its (vcpu, ram, disk) utilization ratio
// under ch.
func (g *GA) ratios(ch chromosome) [][3]float64 {
	status := g.statusFromChromosome(ch)
	out := make([][3]float64, len(g.hostnames))
	for i, h := range g.hostnames {
		vcpu, ram, disk := status[h].Ratios(g.capacity[h])
		out[i] = [3]float64{vcpu, ram, disk}
	}
	return out
}

// fitness implements MetricsFitness (spec.md §4.D.2): the weighted mean of
// per-axis utilization ratios, averaged over hosts non-empty under ch.
func (g *GA) fitness(ch chromosome) float64 {
	return g.fitnessFromRatios(g.ratios(ch))
}

func (g *GA) fitnessFromRatios(ratios [][3]float64) float64 {
	var sumVCPU, sumRAM, sumDisk float64
	count := 0
	for _, r := range ratios {
		if r[0] <= 0 {
			continue
		}
		sumVCPU += r[0]
		sumRAM += r[1]
		sumDisk += r[2]
		count++
	}
	if count == 0 {
		return 0
	}
	avgVCPU := sumVCPU / float64(count)
	avgRAM := sumRAM / float64(count)
	avgDisk := sumDisk / float64(count)
	return g.cfg.VCPUWeight*avgVCPU + g.cfg.RAMWeight*avgRAM + g.cfg.DiskWeight*avgDisk
}

// computeMaxFitness is M*, the theoretical upper bound used as the
// generational loop's early-stop threshold (spec.md §4.D.2): the worst-case
// minimum host capacity against the sum of all flavors plus the maximum
// base, with ratios clipped to 1.
func (g *GA) computeMaxFitness() float64 {
	var minCap, maxBase metrics.ResourceVec
	for i, h := range g.hostnames {
		cap := g.capacity[h]
		base := g.base[h]
		if i == 0 {
			minCap, maxBase = cap, base
			continue
		}
		minCap = metrics.ResourceVec{
			VCPUs:  minInt64(minCap.VCPUs, cap.VCPUs),
			RAMMB:  minInt64(minCap.RAMMB, cap.RAMMB),
			DiskGB: minInt64(minCap.DiskGB, cap.DiskGB),
		}
		maxBase = metrics.ResourceVec{
			VCPUs:  maxInt64(maxBase.VCPUs, base.VCPUs),
			RAMMB:  maxInt64(maxBase.RAMMB, base.RAMMB),
			DiskGB: maxInt64(maxBase.DiskGB, base.DiskGB),
		}
	}

	needed := metrics.Sum(append([]metrics.ResourceVec{maxBase}, g.flavors...)...)

	vcpuR := clipRatio(float64(needed.VCPUs) / float64(minCap.VCPUs))
	ramR := clipRatio(float64(needed.RAMMB) / float64(minCap.RAMMB))
	diskR := clipRatio(float64(needed.DiskGB) / float64(minCap.DiskGB))

	return g.fitnessFromRatios([][3]float64{{vcpuR, ramR, diskR}})
}

func clipRatio(r float64) float64 {
	if r > 1 {
		return 1
	}
	return r
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// Engine adapts GA to the engine.Engine interface.
type Engine struct {
	Config Config

	// ReportPath, if non-empty, names an HTML file to render a
	// best-fitness-per-epoch convergence chart to after each run
	// (spec.md §9 supplemented feature). A failure to write the report
	// is logged and does not fail GetMigrations.
	ReportPath string
}

var _ engine.Engine = Engine{}

func (e Engine) GetMigrations(snap *snapshot.Snapshot) (engine.Placement, error) {
	if len(snap.Hosts()) == 0 || len(snap.InstancesMigrable()) == 0 {
		return engine.Placement{}, nil
	}
	g, err := New(snap, e.Config)
	if err != nil {
		return nil, err
	}

	if e.ReportPath == "" {
		return g.Run(), nil
	}

	placement, history := g.RunWithHistory()
	if err := writeReport(e.ReportPath, history); err != nil {
		klog.Background().Error(err, "failed to write ga convergence report", "path", e.ReportPath)
	}
	return placement, nil
}
