package sdk

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tombee/tracekit/internal/config"
	"github.com/tombee/tracekit/internal/log"
	"github.com/tombee/tracekit/pkg/metric"
	"github.com/tombee/tracekit/pkg/scope"
	"github.com/tombee/tracekit/pkg/tracker"
)

// Agent is the operation surface instrumentation call sites program against.
// Both the real agent and the no-op variant implement it, so call sites
// never branch on whether instrumentation is enabled.
type Agent interface {
	// WithExecution binds a fresh execution identity to ctx.
	WithExecution(ctx context.Context) context.Context

	// PushScope opens a traced operation starting now; the returned frame
	// must be presented to the matching PopScope.
	PushScope(ctx context.Context, tag string) *scope.Frame

	// PushScopeAt opens a traced operation with an explicit start time
	// and deduct policy.
	PushScopeAt(ctx context.Context, tag string, start time.Time, deductFromParent bool) *scope.Frame

	// PopScope closes the traced operation opened by the matching
	// PushScope, resolving its metric name.
	PopScope(ctx context.Context, expected *scope.Frame, name string) (*scope.Frame, error)

	// PopScopeAt closes a traced operation at an explicit end time.
	PopScopeAt(ctx context.Context, expected *scope.Frame, name string, end time.Time) (*scope.Frame, error)

	// StartTransaction notifies transaction-start listeners.
	StartTransaction(ctx context.Context)

	// EndTransaction discards the execution context's tracking state if
	// its scope stack is empty; otherwise it is a no-op.
	EndTransaction(ctx context.Context)

	// PushTransactionStats opens a statistics accumulator for a nested
	// transaction unit.
	PushTransactionStats(ctx context.Context)

	// PopTransactionStats closes the innermost transaction unit,
	// resolving placeholder scopes to resolvedName and merging into the
	// engine-wide store. Returns nil when no unit was open.
	PopTransactionStats(ctx context.Context, resolvedName string) *metric.Accumulator

	// RecordMetric folds one completed call into the innermost open
	// transaction unit.
	RecordMetric(ctx context.Context, spec metric.Spec, total, exclusive time.Duration)

	// SetTransactionName binds the resolved transaction name for ctx.
	SetTransactionName(ctx context.Context, name string)

	// TransactionName reads the resolved transaction name for ctx.
	TransactionName(ctx context.Context) (string, bool)

	// ScopeStack returns ctx's scope stack, lazily creating an empty one.
	ScopeStack(ctx context.Context) *scope.Stack

	// StatsStack returns ctx's stats accumulator layer, outermost first.
	StatsStack(ctx context.Context) []*metric.Accumulator
}

// SDK is the enabled agent. Each instance owns its own execution-context
// store and engine-wide statistics store; there are no shared globals.
type SDK struct {
	tracker *tracker.Tracker
	store   *metric.Store
	logger  *slog.Logger

	configPath string
	cfg        *config.Config
	sampler    tracker.Sampler
	listeners  []tracker.Listener
	observer   tracker.Observer
}

var _ Agent = (*SDK)(nil)

// New creates an enabled agent with the given options.
//
// Example:
//
//	agent, err := sdk.New(
//		sdk.WithConfigPath("tracekit.yaml"),
//		sdk.WithSampler(mySampler),
//	)
func New(opts ...Option) (*SDK, error) {
	s := &SDK{}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	if s.cfg == nil {
		cfg, err := config.Load(s.configPath)
		if err != nil {
			return nil, err
		}
		s.cfg = cfg
	}

	if s.logger == nil {
		logCfg := log.DefaultConfig()
		if s.cfg.Log.Level != "" {
			logCfg.Level = s.cfg.Log.Level
		}
		if s.cfg.Log.Format != "" {
			logCfg.Format = log.Format(s.cfg.Log.Format)
		}
		logCfg.AddSource = s.cfg.Log.Source
		s.logger = log.New(logCfg)
	}

	if s.store == nil {
		s.store = metric.NewStore()
	}

	enabled := s.cfg.Tracing.Enabled
	trackerOpts := []tracker.Option{
		tracker.WithStore(s.store),
		tracker.WithEnabled(func() bool { return enabled }),
		tracker.WithLogger(s.logger),
	}
	if s.sampler != nil {
		trackerOpts = append(trackerOpts, tracker.WithSampler(s.sampler))
	}
	if s.observer != nil {
		trackerOpts = append(trackerOpts, tracker.WithObserver(s.observer))
	}
	for _, l := range s.listeners {
		trackerOpts = append(trackerOpts, tracker.WithListener(l))
	}
	s.tracker = tracker.New(trackerOpts...)

	return s, nil
}

// Store returns the engine-wide statistics store, for harvest cycles.
func (s *SDK) Store() *metric.Store {
	return s.store
}

// WithExecution binds a fresh execution identity to ctx.
func (s *SDK) WithExecution(ctx context.Context) context.Context {
	return tracker.WithExecution(ctx)
}

// PushScope opens a traced operation starting now.
func (s *SDK) PushScope(ctx context.Context, tag string) *scope.Frame {
	return s.tracker.PushScope(ctx, tag)
}

// PushScopeAt opens a traced operation with an explicit start time and
// deduct policy.
func (s *SDK) PushScopeAt(ctx context.Context, tag string, start time.Time, deductFromParent bool) *scope.Frame {
	return s.tracker.PushScopeAt(ctx, tag, start, deductFromParent)
}

// PopScope closes the traced operation opened by the matching PushScope.
func (s *SDK) PopScope(ctx context.Context, expected *scope.Frame, name string) (*scope.Frame, error) {
	return s.tracker.PopScope(ctx, expected, name)
}

// PopScopeAt closes a traced operation at an explicit end time.
func (s *SDK) PopScopeAt(ctx context.Context, expected *scope.Frame, name string, end time.Time) (*scope.Frame, error) {
	return s.tracker.PopScopeAt(ctx, expected, name, end)
}

// StartTransaction notifies transaction-start listeners.
func (s *SDK) StartTransaction(ctx context.Context) {
	s.tracker.StartTransaction(ctx)
}

// EndTransaction discards tracking state for ctx if its scope stack is empty.
func (s *SDK) EndTransaction(ctx context.Context) {
	s.tracker.EndTransaction(ctx)
}

// PushTransactionStats opens a statistics accumulator for a nested
// transaction unit.
func (s *SDK) PushTransactionStats(ctx context.Context) {
	s.tracker.PushTransactionStats(ctx)
}

// PopTransactionStats closes the innermost transaction unit.
func (s *SDK) PopTransactionStats(ctx context.Context, resolvedName string) *metric.Accumulator {
	return s.tracker.PopTransactionStats(ctx, resolvedName)
}

// RecordMetric folds one completed call into the innermost open unit.
func (s *SDK) RecordMetric(ctx context.Context, spec metric.Spec, total, exclusive time.Duration) {
	s.tracker.RecordMetric(ctx, spec, total, exclusive)
}

// SetTransactionName binds the resolved transaction name for ctx.
func (s *SDK) SetTransactionName(ctx context.Context, name string) {
	s.tracker.SetTransactionName(ctx, name)
}

// TransactionName reads the resolved transaction name for ctx.
func (s *SDK) TransactionName(ctx context.Context) (string, bool) {
	return s.tracker.TransactionName(ctx)
}

// ScopeStack returns ctx's scope stack, lazily creating an empty one.
func (s *SDK) ScopeStack(ctx context.Context) *scope.Stack {
	return s.tracker.ScopeStack(ctx)
}

// StatsStack returns ctx's stats accumulator layer, outermost first.
func (s *SDK) StatsStack(ctx context.Context) []*metric.Accumulator {
	return s.tracker.StatsStack(ctx)
}
