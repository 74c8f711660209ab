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

// Package activation provides elementwise activation functions on
// quantized and float tensors.
//
// ReLU variants requantize each element with the rescale rule of package
// qnn and clamp it to the activation range.
//
// Logistic and tanh on quantized tensors work in three steps: the input is
// rescaled into a fixed-point domain (Q3.4 for int8, Q3.12 for int16), a
// Nonlinearity is evaluated on that value, and the result is rescaled back
// (Q0.7 offset by -128 for int8, Q7.8 shifted into Q0.15 for int16). The two
// affine steps are exact; the nonlinearity is evaluated in float64 and
// rounded.
package activation
