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

// Package metric holds the metric identity and aggregate types shared by the
// scope tracker: the (name, scope) key, the per-key aggregate record, the
// per-transaction accumulator, and the engine-wide store that accumulators
// are merged into at transaction end.
package metric

import "fmt"

// ScopePlaceholder is the sentinel scope value meaning "resolve this metric's
// scope to the enclosing transaction's name once it is known". Instrumented
// call sites fire before routing has named the transaction, so scoped metrics
// are buffered under this placeholder and rewritten exactly once at
// transaction end.
const ScopePlaceholder = "__SCOPE_PLACEHOLDER__"

// Spec identifies one statistic bucket. Comparable, so it can key a map.
//
// Scope is either a concrete transaction name, the empty string for an
// explicitly unscoped metric, or ScopePlaceholder for a metric awaiting
// resolution.
type Spec struct {
	Name  string
	Scope string
}

// NewSpec returns a Spec scoped to the enclosing transaction via the
// placeholder sentinel.
func NewSpec(name string) Spec {
	return Spec{Name: name, Scope: ScopePlaceholder}
}

// Unscoped returns a Spec with an explicitly empty scope. Unscoped specs are
// never rewritten at resolution time.
func Unscoped(name string) Spec {
	return Spec{Name: name}
}

// Resolved returns the spec with the placeholder scope replaced by txnName.
// Specs whose scope is already concrete, including the explicitly empty
// scope, pass through unchanged.
func (s Spec) Resolved(txnName string) Spec {
	if s.Scope == ScopePlaceholder {
		s.Scope = txnName
	}
	return s
}

// String renders the spec for log output and test failure messages.
func (s Spec) String() string {
	if s.Scope == "" {
		return s.Name
	}
	return fmt.Sprintf("%s (scope %s)", s.Name, s.Scope)
}
