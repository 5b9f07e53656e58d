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

import "time"

// Stats is the aggregate record for one Spec: call count, total wall time,
// exclusive (self) time, and per-call min/max of total time.
type Stats struct {
	Count     int64
	Total     time.Duration
	Exclusive time.Duration
	Min       time.Duration
	Max       time.Duration
}

// Record folds one completed call into the aggregate.
func (s *Stats) Record(total, exclusive time.Duration) {
	if s.Count == 0 || total < s.Min {
		s.Min = total
	}
	if total > s.Max {
		s.Max = total
	}
	s.Count++
	s.Total += total
	s.Exclusive += exclusive
}

// Merge folds other into s. A zero-count other is the identity.
func (s *Stats) Merge(other *Stats) {
	if other == nil || other.Count == 0 {
		return
	}
	if s.Count == 0 || other.Min < s.Min {
		s.Min = other.Min
	}
	if other.Max > s.Max {
		s.Max = other.Max
	}
	s.Count += other.Count
	s.Total += other.Total
	s.Exclusive += other.Exclusive
}

// Clone returns an independent copy.
func (s *Stats) Clone() *Stats {
	c := *s
	return &c
}
