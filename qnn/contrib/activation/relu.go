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

package activation

import (
	"math"

	"github.com/qnnkit/qnn/qnn"
)

// Nonlinearity is a real function evaluated on fixed-point values.
type Nonlinearity func(x float64) float64

var (
	// Sigmoid is 1/(1+exp(-x)).
	Sigmoid Nonlinearity = func(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

	// Tanh is the hyperbolic tangent.
	Tanh Nonlinearity = math.Tanh
)

// ReLU applies a requantizing clamp:
//
//	out = clamp(MultiplyByQuantizedMultiplier(in + InputOffset) + OutputOffset, ActMin, ActMax)
type ReLU struct {
	InputOffset int32
	qnn.Requant
}

// NewReLU derives the parameters of a ReLU-family activation from the input
// and output encodings.
func NewReLU(act qnn.Activation, dt qnn.DType, inScale float64, inZP int32, outScale float64, outZP int32) ReLU {
	m, s := qnn.QuantizeMultiplier(inScale / outScale)
	lo, hi := qnn.ActivationRange(act, dt, outScale, outZP)
	return ReLU{
		InputOffset: -inZP,
		Requant: qnn.Requant{
			Multiplier:   m,
			Shift:        s,
			OutputOffset: outZP,
			ActMin:       lo,
			ActMax:       hi,
		},
	}
}

// ReLUInt8 applies r to int8 values.
func ReLUInt8(r *ReLU, input, output []int8) {
	baseReLU(r, input, output, qnn.Int8)
}

// ReLUInt16 applies r to int16 values.
func ReLUInt16(r *ReLU, input, output []int16) {
	baseReLU(r, input, output, qnn.Int16)
}

func baseReLU[T int8 | int16](r *ReLU, input, output []T, dt qnn.DType) {
	size := min(len(input), len(output))
	rq := r.Bounded(dt)
	lanes := qnn.NumLanes[T]()
	i := 0
	for ; i+lanes <= size; i += lanes {
		for j := range lanes {
			output[i+j] = T(rq.Apply(int32(input[i+j]) + r.InputOffset))
		}
	}

	// Scalar tail
	for ; i < size; i++ {
		output[i] = T(rq.Apply(int32(input[i]) + r.InputOffset))
	}
}

// Float32 applies act elementwise.
func Float32(act qnn.Activation, input, output []float32) {
	size := min(len(input), len(output))
	switch act {
	case qnn.ActTanh:
		for i := range size {
			output[i] = float32(math.Tanh(float64(input[i])))
		}
	case qnn.ActLogistic:
		for i := range size {
			output[i] = float32(Sigmoid(float64(input[i])))
		}
	default:
		lo, hi := qnn.ActivationRangeFloat(act)
		for i := range size {
			output[i] = qnn.Clamp(input[i], lo, hi)
		}
	}
}
