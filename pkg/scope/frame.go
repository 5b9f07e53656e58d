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

// Package scope implements the in-flight bookkeeping for nested traced
// operations: one Frame per open operation, kept on a strict LIFO Stack per
// execution context, with exclusive-time arithmetic performed on pop.
package scope

import "time"

// Frame records one in-flight traced operation. Tag, Start and
// DeductFromParent are fixed at creation; ChildrenTime accumulates as direct
// children complete; Name is assigned exactly once, when the frame is popped.
type Frame struct {
	// Tag is an opaque debug identifier used only in stack-corruption
	// error messages, never for business logic.
	Tag string

	// Start is the frame's push timestamp.
	Start time.Time

	// DeductFromParent controls how this frame's time propagates when it
	// completes. True: the frame's full elapsed time is charged against
	// the parent's exclusive time. False: only the frame's own accumulated
	// children time passes through, so the frame contributes zero
	// self-time to its caller (asynchronous or background work).
	DeductFromParent bool

	// ChildrenTime is the total time attributed to this frame's direct
	// children, incremented exactly once per child completion.
	ChildrenTime time.Duration

	// Name is the frame's resolved metric name, unset until pop.
	Name string
}

// NewFrame returns a frame started at start with the given deduct policy.
func NewFrame(tag string, start time.Time, deductFromParent bool) *Frame {
	return &Frame{Tag: tag, Start: start, DeductFromParent: deductFromParent}
}

// Elapsed returns the frame's wall time as of end.
func (f *Frame) Elapsed(end time.Time) time.Duration {
	return end.Sub(f.Start)
}

// Exclusive returns the frame's self time as of end: elapsed minus the time
// delegated to children.
func (f *Frame) Exclusive(end time.Time) time.Duration {
	return f.Elapsed(end) - f.ChildrenTime
}
