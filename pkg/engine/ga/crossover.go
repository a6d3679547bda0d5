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

import "golang.org/x/exp/rand"

// singlePointCrossover picks cut uniformly in [0, len(father)] and returns
// father[0:cut] ++ mother[cut:].
func singlePointCrossover(father, mother chromosome) chromosome {
	n := len(father)
	cut := rand.Intn(n + 1)

	child := make(chromosome, n)
	copy(child, father[:cut])
	copy(child[cut:], mother[cut:])
	return child
}

func cloneChromosome(ch chromosome) chromosome {
	out := make(chromosome, len(ch))
	copy(out, ch)
	return out
}
