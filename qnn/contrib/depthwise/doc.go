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

// Package depthwise provides depthwise 2D convolution over NHWC tensors.
//
// Each input channel ic is convolved with M = DepthMultiplier filters of
// its own, producing output channels ic*M .. ic*M+M-1. The filter has shape
// (1, Kh, Kw, Cin*M). Apart from the missing sum over input channels, the
// arithmetic is that of package conv: offsets, bias, per-channel rescale and
// the final clamp are identical.
//
// Int8 runs either the bounds-checked Generic variant or the Materialized
// variant, which pads the input into the arena once and then runs without
// bounds checks. Both produce bit-identical output.
package depthwise
