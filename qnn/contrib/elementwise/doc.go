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

// Package elementwise provides elementwise add and multiply on quantized
// and float tensors.
//
// AddInt16 and AddInt32 are plain saturating adds for operands that share
// one encoding. AddInt8Quantized and AddInt16Quantized rescale operands with
// different encodings to a common one first. MulInt8 and MulInt16 apply the
// convolution rescale to the product of the offset-corrected operands:
//
//	out = clamp(MultiplyByQuantizedMultiplier((a+o1)*(b+o2)) + outputOffset, actMin, actMax)
//
// Operands of length 1 broadcast against the other operand.
package elementwise
