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

// Package qnn holds the numeric contract shared by the quantized kernels in
// qnn/contrib: data types, quantization parameters, fixed-point rescaling,
// saturation, padding geometry and the caller-owned scratch Arena.
//
// # Tensors
//
// Tensors are plain slices in NHWC row-major order. Dimensions travel in a
// Shape4 next to the slice; kernels never allocate or resize tensor data.
// Filters for ordinary convolution are (Cout, Kh, Kw, Cin), depthwise
// filters are (1, Kh, Kw, Cin*M).
//
// # Rescaling
//
// Every quantized kernel reduces an int32 (or int64) accumulator to the
// output type the same way:
//
//	r   = round_half_away_from_zero(acc * multiplier * 2^(shift-31))
//	out = clamp(r + outputOffset, actMin, actMax)
//
// MultiplyByQuantizedMultiplier computes r from the exact product with a
// single rounding step, so every inner-loop strategy agrees bit for bit.
//
// # Scratch
//
// Kernels that materialize padded input, repacked weights or unpacked int4
// filters take a *Arena. Requests beyond the arena's capacity fail with
// ErrWorkingSetTooLarge before any output element is written. An Arena is
// not safe for concurrent use; give each goroutine its own.
//
// # Dispatch
//
// Inner loops run in chunks of NumLanes[T]() elements followed by a scalar
// tail. The chunk width follows the vector width detected at startup
// (see CurrentLevel). Integer results never depend on it. Set QNN_NO_SIMD=1 to
// force the scalar width.
package qnn
