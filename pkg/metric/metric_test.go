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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpecResolved(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		want Spec
	}{
		{
			name: "placeholder scope is rewritten",
			spec: Spec{Name: "ActiveRecord/find", Scope: ScopePlaceholder},
			want: Spec{Name: "ActiveRecord/find", Scope: "OrderController#create"},
		},
		{
			name: "explicitly empty scope passes through",
			spec: Spec{Name: "GC/time", Scope: ""},
			want: Spec{Name: "GC/time", Scope: ""},
		},
		{
			name: "concrete scope passes through",
			spec: Spec{Name: "View/render", Scope: "CartController#show"},
			want: Spec{Name: "View/render", Scope: "CartController#show"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.spec.Resolved("OrderController#create"))
		})
	}
}

func TestStatsRecord(t *testing.T) {
	var s Stats
	s.Record(10*time.Millisecond, 6*time.Millisecond)
	s.Record(30*time.Millisecond, 30*time.Millisecond)
	s.Record(20*time.Millisecond, 5*time.Millisecond)

	assert.Equal(t, int64(3), s.Count)
	assert.Equal(t, 60*time.Millisecond, s.Total)
	assert.Equal(t, 41*time.Millisecond, s.Exclusive)
	assert.Equal(t, 10*time.Millisecond, s.Min)
	assert.Equal(t, 30*time.Millisecond, s.Max)
}

func TestStatsMerge(t *testing.T) {
	a := &Stats{Count: 2, Total: 40 * time.Millisecond, Exclusive: 30 * time.Millisecond, Min: 15 * time.Millisecond, Max: 25 * time.Millisecond}
	b := &Stats{Count: 1, Total: 5 * time.Millisecond, Exclusive: 5 * time.Millisecond, Min: 5 * time.Millisecond, Max: 5 * time.Millisecond}

	a.Merge(b)
	assert.Equal(t, int64(3), a.Count)
	assert.Equal(t, 45*time.Millisecond, a.Total)
	assert.Equal(t, 5*time.Millisecond, a.Min)
	assert.Equal(t, 25*time.Millisecond, a.Max)

	// zero-count merge is the identity
	before := *a
	a.Merge(&Stats{})
	a.Merge(nil)
	assert.Equal(t, before, *a)
}

func TestAccumulatorRecordAndGet(t *testing.T) {
	acc := NewAccumulator()
	spec := NewSpec("Database/orders/select")

	acc.Record(spec, 10*time.Millisecond, 8*time.Millisecond)
	acc.Record(spec, 20*time.Millisecond, 20*time.Millisecond)

	require.Equal(t, 1, acc.Len())
	st := acc.Get(spec)
	require.NotNil(t, st)
	assert.Equal(t, int64(2), st.Count)
	assert.Equal(t, 30*time.Millisecond, st.Total)

	assert.Nil(t, acc.Get(Unscoped("missing")))
}

func TestAccumulatorResolved(t *testing.T) {
	acc := NewAccumulator()
	acc.Record(NewSpec("ActiveRecord/find"), 10*time.Millisecond, 10*time.Millisecond)
	acc.Record(Unscoped("GC/time"), 2*time.Millisecond, 2*time.Millisecond)
	acc.Record(Spec{Name: "View/render", Scope: "CartController#show"}, 5*time.Millisecond, 5*time.Millisecond)

	resolved := acc.Resolved("OrderController#create")
	require.Equal(t, 3, resolved.Len())

	assert.NotNil(t, resolved.Get(Spec{Name: "ActiveRecord/find", Scope: "OrderController#create"}))
	assert.Nil(t, resolved.Get(NewSpec("ActiveRecord/find")))
	assert.NotNil(t, resolved.Get(Unscoped("GC/time")))
	assert.NotNil(t, resolved.Get(Spec{Name: "View/render", Scope: "CartController#show"}))

	// the original accumulator is untouched
	assert.NotNil(t, acc.Get(NewSpec("ActiveRecord/find")))
}

func TestAccumulatorResolvedCollision(t *testing.T) {
	// A placeholder spec resolving onto an already-concrete key must merge,
	// not clobber.
	acc := NewAccumulator()
	acc.Record(NewSpec("ActiveRecord/find"), 10*time.Millisecond, 10*time.Millisecond)
	acc.Record(Spec{Name: "ActiveRecord/find", Scope: "OrderController#create"}, 20*time.Millisecond, 20*time.Millisecond)

	resolved := acc.Resolved("OrderController#create")
	require.Equal(t, 1, resolved.Len())
	st := resolved.Get(Spec{Name: "ActiveRecord/find", Scope: "OrderController#create"})
	require.NotNil(t, st)
	assert.Equal(t, int64(2), st.Count)
	assert.Equal(t, 30*time.Millisecond, st.Total)
}

func TestAccumulatorSpecsSorted(t *testing.T) {
	acc := NewAccumulator()
	acc.Record(Unscoped("b"), time.Millisecond, time.Millisecond)
	acc.Record(Unscoped("a"), time.Millisecond, time.Millisecond)
	acc.Record(Spec{Name: "a", Scope: "z"}, time.Millisecond, time.Millisecond)

	specs := acc.Specs()
	require.Len(t, specs, 3)
	assert.Equal(t, Unscoped("a"), specs[0])
	assert.Equal(t, Spec{Name: "a", Scope: "z"}, specs[1])
	assert.Equal(t, Unscoped("b"), specs[2])
}

func TestStoreConcurrentMerges(t *testing.T) {
	store := NewStore()
	spec := Spec{Name: "Controller", Scope: "OrderController#create"}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acc := NewAccumulator()
			acc.Record(spec, time.Millisecond, time.Millisecond)
			store.MergeAccumulator(acc)
		}()
	}
	wg.Wait()

	snap := store.Snapshot()
	st := snap.Get(spec)
	require.NotNil(t, st)
	assert.Equal(t, int64(50), st.Count)
	assert.Equal(t, 50*time.Millisecond, st.Total)
}

func TestStoreReset(t *testing.T) {
	store := NewStore()
	acc := NewAccumulator()
	acc.Record(Unscoped("x"), time.Millisecond, time.Millisecond)
	store.MergeAccumulator(acc)

	prev := store.Reset()
	assert.Equal(t, 1, prev.Len())
	assert.Equal(t, 0, store.Snapshot().Len())
}
