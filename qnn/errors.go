// Copyright 2025 go-highway Authors
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

package qnn

import "fmt"

// ErrorKind classifies kernel failures.
type ErrorKind int

const (
	// UnsupportedType means the dtype combination has no kernel.
	UnsupportedType ErrorKind = iota + 1
	// WorkingSetTooLarge means the scratch needed exceeds the arena.
	WorkingSetTooLarge
)

func (k ErrorKind) String() string {
	switch k {
	case UnsupportedType:
		return "unsupported type"
	case WorkingSetTooLarge:
		return "working set too large"
	default:
		return "unknown error"
	}
}

// Error is returned by kernels. No output element has been written when a
// kernel returns an *Error.
type Error struct {
	Kind ErrorKind
	Op   string

	// DType is the offending type for UnsupportedType.
	DType DType

	// Need and Have are byte counts for WorkingSetTooLarge.
	Need, Have int
}

func (e *Error) Error() string {
	switch e.Kind {
	case UnsupportedType:
		return fmt.Sprintf("%s: %s %s", e.Op, e.Kind, e.DType)
	case WorkingSetTooLarge:
		return fmt.Sprintf("%s: %s: need %d bytes, have %d", e.Op, e.Kind, e.Need, e.Have)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
}

// Is matches any *Error with the same Kind, so errors.Is(err,
// ErrUnsupportedType) works regardless of Op and DType.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrUnsupportedType    = &Error{Kind: UnsupportedType}
	ErrWorkingSetTooLarge = &Error{Kind: WorkingSetTooLarge}
)

// Unsupported builds an UnsupportedType error.
func Unsupported(op string, dt DType) error {
	return &Error{Kind: UnsupportedType, Op: op, DType: dt}
}

// TooLarge builds a WorkingSetTooLarge error.
func TooLarge(op string, need, have int) error {
	return &Error{Kind: WorkingSetTooLarge, Op: op, Need: need, Have: have}
}
