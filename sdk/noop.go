package sdk

import (
	"context"
	"time"

	"github.com/tombee/tracekit/pkg/metric"
	"github.com/tombee/tracekit/pkg/scope"
)

// noopAgent is the disabled agent: every operation succeeds trivially and
// touches no process state. Popped frames echo the expected frame back so
// call-site code that reads the finalized frame keeps working.
type noopAgent struct{}

var _ Agent = noopAgent{}

// Noop returns the disabled agent. Use it when instrumentation is configured
// out entirely; call sites keep the same shape with zero overhead.
func Noop() Agent {
	return noopAgent{}
}

func (noopAgent) WithExecution(ctx context.Context) context.Context {
	return ctx
}

func (noopAgent) PushScope(_ context.Context, tag string) *scope.Frame {
	return scope.NewFrame(tag, time.Time{}, true)
}

func (noopAgent) PushScopeAt(_ context.Context, tag string, start time.Time, deductFromParent bool) *scope.Frame {
	return scope.NewFrame(tag, start, deductFromParent)
}

func (noopAgent) PopScope(_ context.Context, expected *scope.Frame, name string) (*scope.Frame, error) {
	expected.Name = name
	return expected, nil
}

func (noopAgent) PopScopeAt(_ context.Context, expected *scope.Frame, name string, _ time.Time) (*scope.Frame, error) {
	expected.Name = name
	return expected, nil
}

func (noopAgent) StartTransaction(context.Context) {}

func (noopAgent) EndTransaction(context.Context) {}

func (noopAgent) PushTransactionStats(context.Context) {}

func (noopAgent) PopTransactionStats(context.Context, string) *metric.Accumulator {
	return nil
}

func (noopAgent) RecordMetric(context.Context, metric.Spec, time.Duration, time.Duration) {}

func (noopAgent) SetTransactionName(context.Context, string) {}

func (noopAgent) TransactionName(context.Context) (string, bool) {
	return "", false
}

func (noopAgent) ScopeStack(context.Context) *scope.Stack {
	return scope.NewStack()
}

func (noopAgent) StatsStack(context.Context) []*metric.Accumulator {
	return nil
}
