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

import "math"

// This file provides saturating conversions and arithmetic.
// Saturated operations clamp results to the type's valid range instead of wrapping.

// Integer is the set of signed integer element types used by the kernels.
type Integer interface {
	~int8 | ~int16 | ~int32 | ~int64
}

// Clamp returns v limited to [lo, hi].
func Clamp[T Number](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SaturateInt8 narrows v to int8. For example 200 becomes 127.
func SaturateInt8(v int32) int8 {
	return int8(Clamp(v, math.MinInt8, math.MaxInt8))
}

// SaturateInt16 narrows v to int16.
func SaturateInt16(v int32) int16 {
	return int16(Clamp(v, math.MinInt16, math.MaxInt16))
}

// SaturateInt32 narrows v to int32.
func SaturateInt32(v int64) int32 {
	return int32(Clamp(v, math.MinInt32, math.MaxInt32))
}

// Limits returns the range of T widened to int64.
func Limits[T Integer]() (lo, hi int64) {
	var zero T
	switch any(zero).(type) {
	case int8:
		return math.MinInt8, math.MaxInt8
	case int16:
		return math.MinInt16, math.MaxInt16
	case int32:
		return math.MinInt32, math.MaxInt32
	default:
		return math.MinInt64, math.MaxInt64
	}
}

// SaturatedAddInt16 adds a and b element-wise into out, clamping each sum
// to the int16 range. For example 32000 + 1000 = 32767.
func SaturatedAddInt16(a, b, out []int16) {
	n := len(out)
	if len(a) < n || len(b) < n {
		panic("qnn: SaturatedAddInt16 input too short")
	}

	lanes := NumLanes[int16]()
	i := 0
	for ; i+lanes <= n; i += lanes {
		av, bv, ov := a[i:i+lanes], b[i:i+lanes], out[i:i+lanes]
		for j := range ov {
			ov[j] = SaturateInt16(int32(av[j]) + int32(bv[j]))
		}
	}

	// Scalar tail
	for ; i < n; i++ {
		out[i] = SaturateInt16(int32(a[i]) + int32(b[i]))
	}
}
