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

// LogisticInt8Params rescales int8 input into Q3.4. Multiplier and LeftShift
// encode inputScale * 2^27 as produced by qnn.QuantizeMultiplierGreaterThanOne.
// The output always has scale 1/256 and zero point -128.
type LogisticInt8Params struct {
	InputOffset int32
	Multiplier  int32
	LeftShift   int32
}

// NewLogisticInt8Params derives the parameters for an int8 input with the
// given scale and zero point.
func NewLogisticInt8Params(scale float64, zeroPoint int32) LogisticInt8Params {
	m, s := qnn.QuantizeMultiplierGreaterThanOne(scale * (1 << 27))
	return LogisticInt8Params{InputOffset: -zeroPoint, Multiplier: m, LeftShift: s}
}

// Prescale maps x to Q3.4 using the top 8 bits of the multiplier:
//
//	t = (x + InputOffset) * (Multiplier >> 24) << (LeftShift - 23)
//	q = sat8((t + 64) >> 7)
func (p *LogisticInt8Params) Prescale(x int8) int8 {
	t := (int32(x) + p.InputOffset) * (p.Multiplier >> 24)
	if s := p.LeftShift - 23; s >= 0 {
		t <<= s
	} else {
		t >>= -s
	}
	return qnn.SaturateInt8((t + 64) >> 7)
}

// LogisticInt8 computes the logistic function of int8 input.
func LogisticInt8(p *LogisticInt8Params, input, output []int8) {
	LogisticInt8With(Sigmoid, p, input, output)
}

// LogisticInt8With is LogisticInt8 with a caller-supplied nonlinearity
// returning values in [0, 1].
func LogisticInt8With(fn Nonlinearity, p *LogisticInt8Params, input, output []int8) {
	size := min(len(input), len(output))
	for i := range size {
		q := p.Prescale(input[i])
		y7 := min(int32(math.Round(fn(float64(q)/16)*128)), 127)
		output[i] = qnn.SaturateInt8(2*y7 - 128)
	}
}

// Int16Params rescales int16 input into Q3.12. A zero Multiplier means the
// input scale is a power of two and only LeftShift applies.
type Int16Params struct {
	Multiplier int32
	LeftShift  int32
}

// NewInt16Params derives the parameters for an int16 input with the given
// scale. The zero point of int16 tensors is 0.
func NewInt16Params(scale float64) Int16Params {
	if l := math.Log2(scale); l == math.Trunc(l) {
		if s := 12 + int32(l); s == 0 || s == 1 {
			return Int16Params{LeftShift: s}
		}
	}
	m := scale * 4096
	var s int32
	for m <= 32767.0/2 && s <= 30 {
		s++
		m *= 2
	}
	return Int16Params{Multiplier: int32(m), LeftShift: s}
}

// Prescale maps x to Q3.12.
func (p *Int16Params) Prescale(x int16) int16 {
	if p.Multiplier == 0 {
		return qnn.SaturateInt16(qnn.SaturateInt32(int64(x) << p.LeftShift))
	}
	var round int64
	if p.LeftShift > 0 {
		round = 1 << (p.LeftShift - 1)
	}
	return qnn.SaturateInt16(qnn.SaturateInt32((int64(x)*int64(p.Multiplier) + round) >> p.LeftShift))
}

// TanhInt16 computes tanh of int16 input into Q0.15.
func TanhInt16(p *Int16Params, input, output []int16) {
	Int16With(Tanh, p, input, output)
}

// LogisticInt16 computes the logistic function of int16 input into Q0.15.
func LogisticInt16(p *Int16Params, input, output []int16) {
	Int16With(Sigmoid, p, input, output)
}

// Int16With evaluates fn on the Q3.12 input, rounds to Q7.8 and shifts the
// result into Q0.15, saturating at 32767.
func Int16With(fn Nonlinearity, p *Int16Params, input, output []int16) {
	size := min(len(input), len(output))
	for i := range size {
		q := p.Prescale(input[i])
		y := qnn.SaturateInt16(int32(math.Round(fn(float64(q) / 4096) * 256)))
		output[i] = qnn.SaturateInt16(int32(y) << 7)
	}
}
