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

package elementwise

import (
	"github.com/qnnkit/qnn/qnn"
)

// AddInt16 adds a and b into out, saturating to the int16 range. Either
// operand may have length 1.
func AddInt16(a, b, out []int16) {
	checkOperands("elementwise.AddInt16", len(a), len(b), len(out))
	if len(a) >= len(out) && len(b) >= len(out) {
		qnn.SaturatedAddInt16(a, b, out)
		return
	}
	for i := range out {
		out[i] = qnn.SaturateInt16(int32(a[pick(len(a), i)]) + int32(b[pick(len(b), i)]))
	}
}

// AddInt32 adds a and b into out, saturating to the int32 range. Either
// operand may have length 1.
func AddInt32(a, b, out []int32) {
	checkOperands("elementwise.AddInt32", len(a), len(b), len(out))
	for i := range out {
		out[i] = qnn.SaturateInt32(int64(a[pick(len(a), i)]) + int64(b[pick(len(b), i)]))
	}
}

// AddParams rescales two quantized operands to a shared intermediate scale,
// adds them and rescales the sum to the output encoding. Operands are
// shifted left by LeftShift first so the intermediate keeps precision.
type AddParams struct {
	LeftShift   int32
	Offset1     int32
	Multiplier1 int32
	Shift1      int32
	Offset2     int32
	Multiplier2 int32
	Shift2      int32
	Output      qnn.Requant
}

// NewAddParams derives AddParams from the operand and output encodings.
// The intermediate scale is twice the larger input scale.
func NewAddParams(dt qnn.DType, act qnn.Activation, scale1 float64, zp1 int32, scale2 float64, zp2 int32, outScale float64, outZP int32) AddParams {
	leftShift := int32(20)
	if dt == qnn.Int16 {
		leftShift = 15
	}
	twiceMax := 2 * max(scale1, scale2)
	p := AddParams{LeftShift: leftShift, Offset1: -zp1, Offset2: -zp2}
	p.Multiplier1, p.Shift1 = qnn.QuantizeMultiplier(scale1 / twiceMax)
	p.Multiplier2, p.Shift2 = qnn.QuantizeMultiplier(scale2 / twiceMax)
	p.Output.Multiplier, p.Output.Shift = qnn.QuantizeMultiplier(twiceMax / (float64(int64(1)<<leftShift) * outScale))
	p.Output.OutputOffset = outZP
	p.Output.ActMin, p.Output.ActMax = qnn.ActivationRange(act, dt, outScale, outZP)
	return p
}

func (p *AddParams) add(a, b int32, out *qnn.Requant) int32 {
	s1 := qnn.MultiplyByQuantizedMultiplier((a+p.Offset1)<<p.LeftShift, p.Multiplier1, p.Shift1)
	s2 := qnn.MultiplyByQuantizedMultiplier((b+p.Offset2)<<p.LeftShift, p.Multiplier2, p.Shift2)
	return out.Apply(s1 + s2)
}

// AddInt8Quantized adds int8 operands with different encodings.
func AddInt8Quantized(p *AddParams, a, b, out []int8) {
	baseAddQuantized(p, a, b, out, qnn.Int8)
}

// AddInt16Quantized adds int16 operands with different encodings.
func AddInt16Quantized(p *AddParams, a, b, out []int16) {
	baseAddQuantized(p, a, b, out, qnn.Int16)
}

func baseAddQuantized[T int8 | int16](p *AddParams, a, b, out []T, dt qnn.DType) {
	checkOperands("elementwise.AddQuantized", len(a), len(b), len(out))
	rq := p.Output.Bounded(dt)
	for i := range out {
		out[i] = T(p.add(int32(a[pick(len(a), i)]), int32(b[pick(len(b), i)]), &rq))
	}
}

// MulParams holds the operand offsets and output rescale of a quantized
// multiply.
type MulParams struct {
	Offset1 int32
	Offset2 int32
	qnn.Requant
}

// NewMulParams derives MulParams from the operand and output encodings.
func NewMulParams(dt qnn.DType, act qnn.Activation, scale1 float64, zp1 int32, scale2 float64, zp2 int32, outScale float64, outZP int32) MulParams {
	m, s := qnn.QuantizeMultiplier(scale1 * scale2 / outScale)
	lo, hi := qnn.ActivationRange(act, dt, outScale, outZP)
	return MulParams{
		Offset1: -zp1,
		Offset2: -zp2,
		Requant: qnn.Requant{Multiplier: m, Shift: s, OutputOffset: outZP, ActMin: lo, ActMax: hi},
	}
}

// MulInt8 multiplies int8 operands.
func MulInt8(p *MulParams, a, b, out []int8) {
	baseMul(p, a, b, out, qnn.Int8)
}

// MulInt16 multiplies int16 operands. The product of two offset-corrected
// int16 values can exceed int32, so it is formed in int64.
func MulInt16(p *MulParams, a, b, out []int16) {
	baseMul(p, a, b, out, qnn.Int16)
}

func baseMul[T int8 | int16](p *MulParams, a, b, out []T, dt qnn.DType) {
	checkOperands("elementwise.Mul", len(a), len(b), len(out))
	rq := p.Bounded(dt)
	if len(a) == len(out) && len(b) == len(out) {
		lanes := qnn.NumLanes[T]()
		i := 0
		for ; i+lanes <= len(out); i += lanes {
			for j := range lanes {
				prod := (int64(a[i+j]) + int64(p.Offset1)) * (int64(b[i+j]) + int64(p.Offset2))
				out[i+j] = T(rq.Apply64(prod))
			}
		}

		// Scalar tail
		for ; i < len(out); i++ {
			prod := (int64(a[i]) + int64(p.Offset1)) * (int64(b[i]) + int64(p.Offset2))
			out[i] = T(rq.Apply64(prod))
		}
		return
	}
	for i := range out {
		prod := (int64(a[pick(len(a), i)]) + int64(p.Offset1)) * (int64(b[pick(len(b), i)]) + int64(p.Offset2))
		out[i] = T(rq.Apply64(prod))
	}
}

// pick maps output index i to an operand of length n, broadcasting n == 1.
func pick(n, i int) int {
	if n == 1 {
		return 0
	}
	return i
}

func checkOperands(op string, a, b, out int) {
	if (a != 1 && a < out) || (b != 1 && b < out) {
		panic(op + ": input too short")
	}
}
