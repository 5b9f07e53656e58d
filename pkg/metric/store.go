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

import "sync"

// Store is the engine-wide statistics sink. Resolved accumulators from every
// execution context merge here; it is the only shared mutable structure in
// the tracker and carries its own lock.
type Store struct {
	mu    sync.Mutex
	stats *Accumulator
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{stats: NewAccumulator()}
}

// MergeAccumulator folds acc into the store. Safe for concurrent use.
func (s *Store) MergeAccumulator(acc *Accumulator) {
	if acc == nil || acc.Len() == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Merge(acc)
}

// Snapshot returns an independent copy of the store's contents, for harvest
// cycles and tests.
func (s *Store) Snapshot() *Accumulator {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := NewAccumulator()
	snap.Merge(s.stats)
	return snap
}

// Reset clears the store, returning the previous contents. Harvest uses this
// to swap out a reporting interval's data in one critical section.
func (s *Store) Reset() *Accumulator {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.stats
	s.stats = NewAccumulator()
	return prev
}
