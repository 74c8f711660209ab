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

import (
	"os"
	"strconv"
	"unsafe"
)

// DefaultArenaSize is the scratch size the kernels were tuned for: a 96x96
// feature map with 20 channels.
const DefaultArenaSize = 96 * 96 * 20

// Arena is a fixed-capacity scratch region owned by the caller and lent to
// one kernel call at a time. Kernels Reset it on entry, so nothing survives
// across calls.
//
// An Arena is not safe for concurrent use.
type Arena struct {
	words []uint64
	off   int // bytes
}

// NewArena returns an arena holding size bytes.
func NewArena(size int) *Arena {
	return &Arena{words: make([]uint64, (size+7)/8)}
}

// NewDefaultArena returns an arena sized from QNN_ARENA_SIZE, or
// DefaultArenaSize when unset or invalid.
func NewDefaultArena() *Arena {
	return NewArena(ArenaSizeFromEnv())
}

// ArenaSizeFromEnv reads QNN_ARENA_SIZE in bytes.
func ArenaSizeFromEnv() int {
	if v := os.Getenv("QNN_ARENA_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return DefaultArenaSize
}

// Cap returns the capacity in bytes.
func (a *Arena) Cap() int {
	return len(a.words) * 8
}

// Used returns the bytes reserved since the last Reset.
func (a *Arena) Used() int {
	return a.off
}

// Reset releases every view handed out so far.
func (a *Arena) Reset() {
	a.off = 0
}

// Fits reports whether need more bytes can be reserved.
func (a *Arena) Fits(need int) bool {
	return a.off+need <= a.Cap()
}

// Check returns a WorkingSetTooLarge error for op when need bytes do not
// fit in the remaining capacity.
func (a *Arena) Check(op string, need int) error {
	if !a.Fits(need) {
		return TooLarge(op, a.off+need, a.Cap())
	}
	return nil
}

// SizeOf returns the bytes Int8s, Int16s or Int32s reserve for n elements
// of the given byte width, including alignment.
func SizeOf(n, width int) int {
	return (n*width + 7) &^ 7
}

func (a *Arena) take(op string, n, width int) (unsafe.Pointer, error) {
	size := SizeOf(n, width)
	if err := a.Check(op, size); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	p := unsafe.Pointer(&a.words[a.off/8])
	a.off += size
	return p, nil
}

// Int8s reserves n int8 elements. Contents are unspecified.
func (a *Arena) Int8s(op string, n int) ([]int8, error) {
	p, err := a.take(op, n, 1)
	if err != nil || p == nil {
		return nil, err
	}
	return unsafe.Slice((*int8)(p), n), nil
}

// Int16s reserves n int16 elements. Contents are unspecified.
func (a *Arena) Int16s(op string, n int) ([]int16, error) {
	p, err := a.take(op, n, 2)
	if err != nil || p == nil {
		return nil, err
	}
	return unsafe.Slice((*int16)(p), n), nil
}

// Int32s reserves n int32 elements. Contents are unspecified.
func (a *Arena) Int32s(op string, n int) ([]int32, error) {
	p, err := a.take(op, n, 4)
	if err != nil || p == nil {
		return nil, err
	}
	return unsafe.Slice((*int32)(p), n), nil
}

// Float32s reserves n float32 elements. Contents are unspecified.
func (a *Arena) Float32s(op string, n int) ([]float32, error) {
	p, err := a.take(op, n, 4)
	if err != nil || p == nil {
		return nil, err
	}
	return unsafe.Slice((*float32)(p), n), nil
}

// Scratch returns a, or a private arena of exactly need bytes when a is nil.
// Kernels call it so that a nil arena means "allocate for this call".
func Scratch(a *Arena, need int) *Arena {
	if a != nil {
		a.Reset()
		return a
	}
	return NewArena(need)
}
