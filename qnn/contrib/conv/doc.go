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

// Package conv provides quantized and float 2D convolution over NHWC
// tensors.
//
// For every output element (n, y, x, c):
//
//	acc = Σ (I[n, y*Sh-padTop+ky*Dh, x*Sw-padLeft+kx*Dw, ci] + inputOffset)
//	      * (F[c, ky, kx, ci] + filterOffset)     // out-of-bounds taps add 0
//	acc += bias[c]
//	O   = clamp(MultiplyByQuantizedMultiplier(acc, mult[c], shift[c]) + outputOffset,
//	            actMin, actMax)
//
// # Strategies
//
// Int8 convolutions run through one of several strategies that differ only
// in loop structure and produce bit-identical output:
//
//   - Pointwise: 1x1 kernels, a per-pixel matrix-vector product
//   - Conv3x3S1Same, Conv3x3S1Valid, Conv3x3S2Valid: generated fixed-shape
//     3x3 kernels with an unchecked interior (see z_conv3x3.gen.go)
//   - Materialized: pads the input once into the arena and repacks weights,
//     then runs without bounds checks
//   - Generic: bounds-checked taps, any shape and dilation
//
// Int8 picks the first strategy in Strategies whose preconditions hold and
// whose working set fits the arena. RunInt8 runs a given strategy directly.
//
// # Supported types
//
//	input    filter   bias     entry point
//	float32  float32  float32  Float32
//	int8     int8     int32    Int8
//	int8     int4     int32    Int8PackedInt4
//	int16    int8     int32    Int16
//	int16    int8     int64    Int16
//
// Run accepts untyped operands and rejects every other combination with
// qnn.ErrUnsupportedType.
//
// # Example Usage
//
//	p := conv.Params{
//		Input:       qnn.Shape4{N: 1, H: 49, W: 10, C: 1},
//		OutChannels: 64,
//		KernelH:     10,
//		KernelW:     4,
//		StrideH:     2,
//		StrideW:     2,
//		Padding:     qnn.PaddingSame,
//	}
//	arena := qnn.NewDefaultArena()
//	err := conv.Int8(&p, input, filter, bias, output, &quant, arena)
package conv
