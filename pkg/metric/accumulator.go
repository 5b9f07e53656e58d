// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metric

import (
	"sort"
	"time"
)

// Accumulator collects Stats keyed by Spec for one open transaction unit.
// It is not safe for concurrent use; each execution context owns its own
// accumulators and only the engine-wide Store is shared.
type Accumulator struct {
	stats map[Spec]*Stats
}

// NewAccumulator returns a fresh, empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{stats: make(map[Spec]*Stats)}
}

// Record folds one completed call into the bucket for spec, creating the
// bucket on first use.
func (a *Accumulator) Record(spec Spec, total, exclusive time.Duration) {
	st, ok := a.stats[spec]
	if !ok {
		st = &Stats{}
		a.stats[spec] = st
	}
	st.Record(total, exclusive)
}

// Get returns the aggregate for spec, or nil if none was recorded.
func (a *Accumulator) Get(spec Spec) *Stats {
	return a.stats[spec]
}

// Len returns the number of distinct specs recorded.
func (a *Accumulator) Len() int {
	return len(a.stats)
}

// Specs returns the recorded specs sorted by name then scope, for
// deterministic iteration.
func (a *Accumulator) Specs() []Spec {
	specs := make([]Spec, 0, len(a.stats))
	for spec := range a.stats {
		specs = append(specs, spec)
	}
	sort.Slice(specs, func(i, j int) bool {
		if specs[i].Name != specs[j].Name {
			return specs[i].Name < specs[j].Name
		}
		return specs[i].Scope < specs[j].Scope
	})
	return specs
}

// Merge folds every bucket of other into a.
func (a *Accumulator) Merge(other *Accumulator) {
	if other == nil {
		return
	}
	for spec, st := range other.stats {
		existing, ok := a.stats[spec]
		if !ok {
			a.stats[spec] = st.Clone()
			continue
		}
		existing.Merge(st)
	}
}

// Resolved returns a fresh accumulator in which every spec carrying the
// scope placeholder has been rewritten to txnName. Buckets whose scope is
// already concrete are copied through under their original key.
func (a *Accumulator) Resolved(txnName string) *Accumulator {
	resolved := NewAccumulator()
	for spec, st := range a.stats {
		key := spec.Resolved(txnName)
		existing, ok := resolved.stats[key]
		if !ok {
			resolved.stats[key] = st.Clone()
			continue
		}
		existing.Merge(st)
	}
	return resolved
}
