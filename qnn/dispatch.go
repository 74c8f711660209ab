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

// DispatchLevel represents the vector instruction set the chunked loops are
// sized for.
type DispatchLevel int

const (
	// DispatchScalar indicates no SIMD sizing was detected or it was disabled.
	DispatchScalar DispatchLevel = iota

	// DispatchSSE2 indicates SSE2 (x86-64 baseline, 128-bit).
	DispatchSSE2

	// DispatchAVX2 indicates AVX2 (256-bit).
	DispatchAVX2

	// DispatchAVX512 indicates AVX-512 with byte/word support (512-bit).
	DispatchAVX512

	// DispatchNEON indicates ARM NEON (128-bit).
	DispatchNEON

	// DispatchSVE indicates ARM SVE. Chunks are sized for the 128-bit minimum.
	DispatchSVE
)

// String returns a human-readable name for the dispatch level.
func (d DispatchLevel) String() string {
	switch d {
	case DispatchScalar:
		return "scalar"
	case DispatchSSE2:
		return "sse2"
	case DispatchAVX2:
		return "avx2"
	case DispatchAVX512:
		return "avx512"
	case DispatchNEON:
		return "neon"
	case DispatchSVE:
		return "sve"
	default:
		return "unknown"
	}
}

// Set by init() in dispatch_*.go files.
var (
	currentLevel DispatchLevel
	currentWidth int
)

// CurrentLevel returns the detected dispatch level.
func CurrentLevel() DispatchLevel {
	return currentLevel
}

// CurrentWidth returns the vector width in bytes used to size loop chunks.
// For example: 16 for SSE2/NEON, 32 for AVX2, 64 for AVX-512.
func CurrentWidth() int {
	return currentWidth
}

// NoSimdEnv reports whether QNN_NO_SIMD is set. Any non-empty value that
// does not parse as false counts as set.
func NoSimdEnv() bool {
	val := os.Getenv("QNN_NO_SIMD")
	if val == "" {
		return false
	}
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return true
}

// Number is the set of element types the kernels operate on.
type Number interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~float32 | ~float64
}

// NumLanes returns how many elements of T fit in one chunk at the current
// width.
//
// For example, with AVX2 (32 bytes):
//   - int8: 32 lanes
//   - int16: 16 lanes
//   - int32, float32: 8 lanes
func NumLanes[T Number]() int {
	var dummy T
	return currentWidth / int(unsafe.Sizeof(dummy))
}

func setScalarMode() {
	currentLevel = DispatchScalar
	currentWidth = 16
}
