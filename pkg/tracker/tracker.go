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

// Package tracker maintains per-execution-context scope stacks and
// transaction statistics. Each concurrently running unit of work carries its
// own stack of in-flight traced operations and its own layer of metric
// accumulators; the tracker binds both to an execution identity threaded
// through context.Context and merges finished accumulators into the
// engine-wide store at transaction end.
package tracker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tombee/tracekit/internal/log"
	"github.com/tombee/tracekit/pkg/metric"
	"github.com/tombee/tracekit/pkg/scope"
)

// Sampler receives scope push and pop notifications when tracing is enabled.
// The transaction sampler uses these events to reconstruct the call tree;
// this package only reports them.
type Sampler interface {
	NoticePushScope(start time.Time)
	NoticePopScope(name string, end time.Time)
}

// Listener is notified when a transaction starts. Detection of "already in
// progress" is the listener's concern, not the tracker's.
type Listener interface {
	TransactionStarted()
}

// Observer receives agent self-telemetry events. All methods are called
// synchronously on the instrumented path and must be cheap.
type Observer interface {
	ScopePushed()
	ScopePopped(name string, elapsed time.Duration)
	StackMismatch()
	StatsMerged(buckets int)
}

// execState is one execution context's private tracking state. The scope
// stack and the stats layer are independently absent and re-created on
// demand; the binding as a whole is discarded once the scope stack is
// observed empty at transaction end.
type execState struct {
	scopes  *scope.Stack
	stats   []*metric.Accumulator
	txnName string
	named   bool
}

type ctxKey struct{}

// WithExecution binds a fresh execution identity to ctx. Every concurrently
// running unit of work must carry its own identity; operations on contexts
// sharing one identity share one scope stack.
func WithExecution(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, uuid.New())
}

// executionID extracts the execution identity from ctx. Contexts without an
// explicit identity share the zero identity, which keeps single-threaded
// embedders working without WithExecution.
func executionID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(ctxKey{}).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// Tracker is the process-wide execution-context store. The contexts map is
// the only structure guarded by the tracker's lock; each execState is owned
// by its execution context and accessed without further locking.
type Tracker struct {
	mu       sync.RWMutex
	contexts map[uuid.UUID]*execState

	store     *metric.Store
	sampler   Sampler
	enabled   func() bool
	listeners []Listener
	observer  Observer
	logger    *slog.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithStore sets the engine-wide statistics store. Defaults to a fresh store.
func WithStore(store *metric.Store) Option {
	return func(t *Tracker) { t.store = store }
}

// WithSampler sets the sampler notified on scope push and pop.
func WithSampler(sampler Sampler) Option {
	return func(t *Tracker) { t.sampler = sampler }
}

// WithEnabled sets the tracing-enabled gate, checked once per operation
// before any sampler notification. Defaults to always enabled.
func WithEnabled(enabled func() bool) Option {
	return func(t *Tracker) { t.enabled = enabled }
}

// WithListener registers a transaction-start listener.
func WithListener(l Listener) Option {
	return func(t *Tracker) { t.listeners = append(t.listeners, l) }
}

// WithObserver sets the self-telemetry observer.
func WithObserver(o Observer) Option {
	return func(t *Tracker) { t.observer = o }
}

// WithLogger sets the diagnostic logger. Never used on the push/pop path.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) { t.logger = logger }
}

// New creates a Tracker.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		contexts: make(map[uuid.UUID]*execState),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.store == nil {
		t.store = metric.NewStore()
	}
	if t.enabled == nil {
		t.enabled = func() bool { return true }
	}
	if t.logger == nil {
		t.logger = log.New(nil)
	}
	return t
}

// Store returns the engine-wide statistics store.
func (t *Tracker) Store() *metric.Store {
	return t.store
}

// state returns the execState bound to ctx, creating it when create is true.
func (t *Tracker) state(ctx context.Context, create bool) *execState {
	id := executionID(ctx)

	t.mu.RLock()
	st := t.contexts[id]
	t.mu.RUnlock()
	if st != nil || !create {
		return st
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if st = t.contexts[id]; st == nil {
		st = &execState{}
		t.contexts[id] = st
	}
	return st
}

// discard removes ctx's binding from the context store.
func (t *Tracker) discard(ctx context.Context) {
	id := executionID(ctx)
	t.mu.Lock()
	delete(t.contexts, id)
	t.mu.Unlock()
}

// PushScope opens a traced operation starting now, deducting its time from
// the parent's exclusive time on completion. The returned frame must be
// presented to the matching PopScope.
func (t *Tracker) PushScope(ctx context.Context, tag string) *scope.Frame {
	return t.PushScopeAt(ctx, tag, time.Now(), true)
}

// PushScopeAt opens a traced operation with an explicit start time and
// deduct policy. It always succeeds.
func (t *Tracker) PushScopeAt(ctx context.Context, tag string, start time.Time, deductFromParent bool) *scope.Frame {
	st := t.state(ctx, true)
	if st.scopes == nil {
		st.scopes = scope.NewStack()
	}
	frame := scope.NewFrame(tag, start, deductFromParent)
	st.scopes.Push(frame)
	if t.sampler != nil && t.enabled() {
		t.sampler.NoticePushScope(start)
	}
	if t.observer != nil {
		t.observer.ScopePushed()
	}
	return frame
}

// PopScope closes the traced operation opened by the matching PushScope,
// resolving its metric name and ending it now.
func (t *Tracker) PopScope(ctx context.Context, expected *scope.Frame, name string) (*scope.Frame, error) {
	return t.PopScopeAt(ctx, expected, name, time.Now())
}

// PopScopeAt closes a traced operation at an explicit end time. The expected
// frame must be reference-identical to the actual top of the stack; a
// mismatch returns a *scope.MismatchError naming both tags and must be
// treated as an instrumentation bug. On success the popped frame's time is
// propagated to its parent per the frame's deduct policy and the frame,
// carrying its resolved name, is returned.
func (t *Tracker) PopScopeAt(ctx context.Context, expected *scope.Frame, name string, end time.Time) (*scope.Frame, error) {
	st := t.state(ctx, false)
	if st == nil || st.scopes == nil {
		if t.observer != nil {
			t.observer.StackMismatch()
		}
		return nil, &scope.MismatchError{Expected: expected.Tag, Actual: "<empty stack>"}
	}
	frame, err := st.scopes.Pop(expected, name, end)
	if err != nil {
		if t.observer != nil {
			t.observer.StackMismatch()
		}
		return nil, err
	}
	if t.sampler != nil && t.enabled() {
		t.sampler.NoticePopScope(name, end)
	}
	if t.observer != nil {
		t.observer.ScopePopped(name, frame.Elapsed(end))
	}
	return frame, nil
}

// StartTransaction notifies transaction-start listeners. It performs no
// stack manipulation.
func (t *Tracker) StartTransaction(ctx context.Context) {
	for _, l := range t.listeners {
		l.TransactionStarted()
	}
}

// EndTransaction discards ctx's scope stack and transaction name when the
// stack exists and is empty, returning the context to a clean state. A
// non-empty stack means an outer transaction is still in flight, so the
// state is left untouched.
func (t *Tracker) EndTransaction(ctx context.Context) {
	st := t.state(ctx, false)
	if st == nil || st.scopes == nil || !st.scopes.Empty() {
		return
	}
	st.scopes = nil
	st.txnName = ""
	st.named = false
	if len(st.stats) == 0 {
		t.discard(ctx)
	}
}

// PushTransactionStats opens a new accumulator for a nested transaction
// unit.
func (t *Tracker) PushTransactionStats(ctx context.Context) {
	st := t.state(ctx, true)
	st.stats = append(st.stats, metric.NewAccumulator())
}

// PopTransactionStats closes the innermost transaction unit. Every entry
// keyed under the scope placeholder is rewritten to resolvedName and the
// rewritten set is merged into the engine-wide store. Returns the original,
// pre-resolution accumulator, or nil when no unit was open.
func (t *Tracker) PopTransactionStats(ctx context.Context, resolvedName string) *metric.Accumulator {
	st := t.state(ctx, true)
	if st.scopes == nil {
		st.scopes = scope.NewStack()
	}
	if len(st.stats) == 0 {
		return nil
	}
	acc := st.stats[len(st.stats)-1]
	st.stats = st.stats[:len(st.stats)-1]
	if acc.Len() > 0 {
		resolved := acc.Resolved(resolvedName)
		t.store.MergeAccumulator(resolved)
		if t.observer != nil {
			t.observer.StatsMerged(resolved.Len())
		}
	}
	return acc
}

// RecordMetric folds one completed call into the innermost open transaction
// unit. When no unit is open the spec is resolved against the current
// transaction name, if any, and merged straight into the engine-wide store.
func (t *Tracker) RecordMetric(ctx context.Context, spec metric.Spec, total, exclusive time.Duration) {
	st := t.state(ctx, true)
	if len(st.stats) > 0 {
		st.stats[len(st.stats)-1].Record(spec, total, exclusive)
		return
	}
	direct := metric.NewAccumulator()
	direct.Record(spec.Resolved(st.txnName), total, exclusive)
	t.store.MergeAccumulator(direct)
}

// ScopeStack returns ctx's scope stack, lazily creating an empty one.
func (t *Tracker) ScopeStack(ctx context.Context) *scope.Stack {
	st := t.state(ctx, true)
	if st.scopes == nil {
		st.scopes = scope.NewStack()
	}
	return st.scopes
}

// StatsStack returns ctx's stats accumulator layer, lazily creating the
// binding. The returned slice is ordered outermost first and must be treated
// as read-only; mutation goes through Push/PopTransactionStats.
func (t *Tracker) StatsStack(ctx context.Context) []*metric.Accumulator {
	return t.state(ctx, true).stats
}

// StatsDepth returns the number of open transaction units for ctx.
func (t *Tracker) StatsDepth(ctx context.Context) int {
	st := t.state(ctx, false)
	if st == nil {
		return 0
	}
	return len(st.stats)
}

// SetTransactionName binds the resolved transaction name for ctx.
func (t *Tracker) SetTransactionName(ctx context.Context, name string) {
	st := t.state(ctx, true)
	st.txnName = name
	st.named = true
}

// TransactionName reads the resolved transaction name for ctx. The second
// return reports whether a name is currently bound.
func (t *Tracker) TransactionName(ctx context.Context) (string, bool) {
	st := t.state(ctx, false)
	if st == nil || !st.named {
		return "", false
	}
	return st.txnName, true
}

// SetSampler is retained for source compatibility with pre-1.0 embedders.
//
// Deprecated: supply the sampler at construction with WithSampler. This
// method logs a warning and does nothing.
func (t *Tracker) SetSampler(Sampler) {
	t.logger.Warn("Tracker.SetSampler is deprecated and has no effect; pass tracker.WithSampler to tracker.New")
}
