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

// Package fc provides fully-connected (dense) layers over quantized and
// float tensors.
//
//   - input is [Batches, Depth] (row-major)
//   - weights is [Units, Depth] (row-major)
//   - bias is [Units] (optional, pass nil to skip)
//   - output is [Batches, Units] (row-major)
//
// Quantized variants use one multiplier/shift pair for the whole tensor. The
// result equals a 1x1 convolution over a 1x1xDepth image with Units output
// channels.
package fc
