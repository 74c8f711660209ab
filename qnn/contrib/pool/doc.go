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

// Package pool provides max and average pooling over NHWC tensors.
//
// Windows follow the padding convention of package conv, but positions
// outside the input do not take part at all: max pooling ignores them and
// average pooling divides by the number of in-bounds positions only.
//
// Quantized average pooling rounds the quotient half away from zero. When
// Params.Rescale is set, the average is then requantized to the output
// encoding the same way a convolution accumulator is.
package pool
