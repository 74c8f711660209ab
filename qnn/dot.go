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

// Offset dot products shared by convolution and fully-connected kernels.
// Each computes Σ (a[i] + aOffset) * (b[i] + bOffset) over len(a) elements.

// DotInt8 accumulates int8 operands in int32.
func DotInt8(a, b []int8, aOffset, bOffset int32) int32 {
	n := len(a)
	if len(b) < n {
		panic("qnn: DotInt8 b too short")
	}

	lanes := NumLanes[int8]()
	var acc int32
	i := 0
	for ; i+lanes <= n; i += lanes {
		av, bv := a[i:i+lanes], b[i:i+lanes]
		var part int32
		for j := range av {
			part += (int32(av[j]) + aOffset) * (int32(bv[j]) + bOffset)
		}
		acc += part
	}

	// Scalar tail
	for ; i < n; i++ {
		acc += (int32(a[i]) + aOffset) * (int32(b[i]) + bOffset)
	}
	return acc
}

// DotInt16Int8 accumulates int16 activations against int8 weights in int64.
func DotInt16Int8(a []int16, b []int8, aOffset, bOffset int32) int64 {
	n := len(a)
	if len(b) < n {
		panic("qnn: DotInt16Int8 b too short")
	}

	lanes := NumLanes[int16]()
	var acc int64
	i := 0
	for ; i+lanes <= n; i += lanes {
		av, bv := a[i:i+lanes], b[i:i+lanes]
		var part int64
		for j := range av {
			part += int64(int32(av[j])+aOffset) * int64(int32(bv[j])+bOffset)
		}
		acc += part
	}

	// Scalar tail
	for ; i < n; i++ {
		acc += int64(int32(a[i])+aOffset) * int64(int32(b[i])+bOffset)
	}
	return acc
}

// DotInt16 accumulates already offset-corrected int16 operands in int32.
// Materialized kernels use it on padded activations and biased weights.
func DotInt16(a, b []int16) int32 {
	n := len(a)
	if len(b) < n {
		panic("qnn: DotInt16 b too short")
	}

	lanes := NumLanes[int16]()
	var acc int32
	i := 0
	for ; i+lanes <= n; i += lanes {
		av, bv := a[i:i+lanes], b[i:i+lanes]
		var part int32
		for j := range av {
			part += int32(av[j]) * int32(bv[j])
		}
		acc += part
	}

	// Scalar tail
	for ; i < n; i++ {
		acc += int32(a[i]) * int32(b[i])
	}
	return acc
}

// DotFloat32 is the float dot product.
func DotFloat32(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		panic("qnn: DotFloat32 b too short")
	}

	lanes := NumLanes[float32]()
	var acc float32
	i := 0
	for ; i+lanes <= n; i += lanes {
		av, bv := a[i:i+lanes], b[i:i+lanes]
		var part float32
		for j := range av {
			part += av[j] * bv[j]
		}
		acc += part
	}

	// Scalar tail
	for ; i < n; i++ {
		acc += a[i] * b[i]
	}
	return acc
}
