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

package scope

import (
	"fmt"
	"time"
)

// MismatchError reports a pop whose expected frame was not the actual top of
// the stack. It signals a bug in instrumentation call-site pairing, such as
// an unhandled early return, and must never be swallowed: masking it would
// produce plausible-looking but wrong timing data.
type MismatchError struct {
	// Expected is the tag of the frame the caller presented.
	Expected string

	// Actual is the tag of the frame that was on top of the stack.
	Actual string
}

// Error implements the error interface.
func (e *MismatchError) Error() string {
	return fmt.Sprintf("scope stack corruption: popped frame %q, expected %q", e.Actual, e.Expected)
}

// Stack is the LIFO sequence of in-flight frames for one execution context.
// It is not safe for concurrent use; each execution context owns exactly one.
type Stack struct {
	frames []*Frame
}

// NewStack returns an empty stack.
func NewStack() *Stack {
	return &Stack{}
}

// Push appends frame to the stack.
func (s *Stack) Push(frame *Frame) {
	s.frames = append(s.frames, frame)
}

// Pop removes the top frame, which must be reference-identical to expected,
// assigns name onto it, and propagates its time to the new top of stack:
// the full elapsed interval when the popped frame deducts from its parent,
// otherwise only the popped frame's accumulated children time. Returns the
// popped frame, which the caller may keep reading after removal.
func (s *Stack) Pop(expected *Frame, name string, end time.Time) (*Frame, error) {
	if len(s.frames) == 0 {
		return nil, &MismatchError{Expected: expected.Tag, Actual: "<empty stack>"}
	}
	popped := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	if popped != expected {
		return nil, &MismatchError{Expected: expected.Tag, Actual: popped.Tag}
	}
	if len(s.frames) > 0 {
		parent := s.frames[len(s.frames)-1]
		if popped.DeductFromParent {
			parent.ChildrenTime += popped.Elapsed(end)
		} else {
			parent.ChildrenTime += popped.ChildrenTime
		}
	}
	popped.Name = name
	return popped, nil
}

// Top returns the current top of stack, or nil when empty.
func (s *Stack) Top() *Frame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// Len returns the number of in-flight frames.
func (s *Stack) Len() int {
	return len(s.frames)
}

// Empty reports whether no frames are in flight.
func (s *Stack) Empty() bool {
	return len(s.frames) == 0
}
