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

package ga

import (
	"math"
	"sort"

	"golang.org/x/exp/rand"
)

// selectionFunc picks one parent out of population, which is sorted desc
// by fitness on entry; fitness is provided for strategies that need to
// re-rank a sampled subset.
type selectionFunc func(population []chromosome, fitness func(chromosome) float64) chromosome

// newSelection returns the selectionFunc configured by kind.
func newSelection(kind SelectionKind, p float64, kPerc int) selectionFunc {
	switch kind {
	case SelectionRoulette:
		return rouletteSelection
	case SelectionTournament:
		return tournamentSelection(p, kPerc)
	default:
		return rouletteSelection
	}
}

// rouletteSelection is a 1-way tournament: a uniformly random pick.
func rouletteSelection(population []chromosome, _ func(chromosome) float64) chromosome {
	return population[rand.Intn(len(population))]
}

// tournamentSelection samples k = kPerc% of the population uniformly
// without replacement, sorts the sample by fitness descending, then picks
// position i with probability p*(1-p)^i.
func tournamentSelection(p float64, kPerc int) selectionFunc {
	return func(population []chromosome, fitness func(chromosome) float64) chromosome {
		k := int(float64(kPerc) / 100 * float64(len(population)))
		if k < 1 {
			k = 1
		}
		if k > len(population) {
			k = len(population)
		}

		perm := rand.Perm(len(population))
		sample := make([]chromosome, k)
		for i := 0; i < k; i++ {
			sample[i] = population[perm[i]]
		}
		sort.SliceStable(sample, func(i, j int) bool {
			return fitness(sample[i]) > fitness(sample[j])
		})

		weights := make([]float64, k)
		for i := range weights {
			weights[i] = p * math.Pow(1-p, float64(i))
		}
		return sample[weightedChoice(weights)]
	}
}

// weightedChoice picks an index from weights with probability proportional
// to its weight.
func weightedChoice(weights []float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return 0
	}
	r := rand.Float64() * total
	var upto float64
	for i, w := range weights {
		upto += w
		if upto >= r {
			return i
		}
	}
	return len(weights) - 1
}
