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

// Package observability adapts the tracker's notification ports to
// OpenTelemetry: scope push/pop events become spans, and the agent's own
// health counters are exposed through a Prometheus-backed meter provider.
package observability

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// OTelSampler mirrors one execution context's scope stack into an
// OpenTelemetry trace tree. Push opens a child span of the innermost open
// span; pop names and ends it. Scope notifications within one execution
// context are strictly nested, so span parenting follows stack order.
//
// Create one OTelSampler per execution context. The internal lock only
// guards against the host ending a unit of work on a different goroutine
// than the one that ran it.
type OTelSampler struct {
	tracer trace.Tracer
	base   context.Context

	mu   sync.Mutex
	open []openSpan
}

type openSpan struct {
	ctx  context.Context
	span trace.Span
}

// NewOTelSampler returns a sampler that parents its spans under any span
// already present in ctx.
func NewOTelSampler(ctx context.Context, tracer trace.Tracer) *OTelSampler {
	if ctx == nil {
		ctx = context.Background()
	}
	return &OTelSampler{tracer: tracer, base: ctx}
}

// NoticePushScope opens a span for the scope pushed at start. The span's
// name is provisional; the real name arrives with the matching pop.
func (s *OTelSampler) NoticePushScope(start time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	parent := s.base
	if len(s.open) > 0 {
		parent = s.open[len(s.open)-1].ctx
	}
	ctx, span := s.tracer.Start(parent, "scope", trace.WithTimestamp(start))
	s.open = append(s.open, openSpan{ctx: ctx, span: span})
}

// NoticePopScope names and ends the innermost open span. A pop with no open
// span is ignored; the tracker has already rejected the operation.
func (s *OTelSampler) NoticePopScope(name string, end time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.open) == 0 {
		return
	}
	top := s.open[len(s.open)-1]
	s.open = s.open[:len(s.open)-1]
	top.span.SetName(name)
	top.span.SetAttributes(attribute.String("tracekit.scope", name))
	top.span.End(trace.WithTimestamp(end))
}

// Depth returns the number of open spans, for tests and debugging.
func (s *OTelSampler) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.open)
}
