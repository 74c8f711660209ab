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

// Package nn runs a sequence of kernel calls as a model.
//
// A Model is a list of Layers over one input tensor. Each layer wraps one
// kernel package and its precomputed quantization parameters; the model
// derives every intermediate shape once in New, allocates the activations
// per run and hands a scratch arena to each kernel. Binary layers (Add, Mul)
// take their second operand from the model input or any earlier layer, so
// residual and masking networks need no graph.
//
// Run logs each layer's kind, strategy and elapsed time at V(1) on the
// logger set with WithLogger.
package nn
