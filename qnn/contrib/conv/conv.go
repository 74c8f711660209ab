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

package conv

import "github.com/qnnkit/qnn/qnn"

// Int8 convolves int8 input with an int8 filter. The strategy is chosen by
// Select against the arena's capacity; a nil arena allocates scratch for
// this call only.
func Int8(p *Params, input, filter []int8, bias []int32, output []int8, q *qnn.PerChannelQuant, arena *qnn.Arena) error {
	g := p.Geometry()
	return RunInt8(Select(&g, budget(arena)), p, input, filter, bias, output, q, arena)
}

// Int8PackedInt4 is Int8 with a packed 4-bit filter. The filter is unpacked
// into the arena before the strategy runs.
func Int8PackedInt4(p *Params, input []int8, filter qnn.PackedInt4, bias []int32, output []int8, q *qnn.PerChannelQuant, arena *qnn.Arena) error {
	const op = "conv.Int8PackedInt4"
	g := p.Geometry()
	g.checkLengths(op, len(input), 2*len(filter), len(bias), len(output))

	unpacked := qnn.SizeOf(g.FilterSize(), 1)
	total := budget(arena)
	if unpacked > total {
		return qnn.TooLarge(op, unpacked, total)
	}
	s := Select(&g, total-unpacked)

	a := qnn.Scratch(arena, unpacked+s.Workspace(&g))
	w, err := a.Int8s(op, g.FilterSize())
	if err != nil {
		return err
	}
	qnn.UnpackInt4(filter, w)

	bq := q.Bounded(qnn.Int8)
	return s.convInt8(&g, input, w, bias, output, &bq, a)
}

// Int16 convolves int16 input with an int8 filter, accumulating in int64.
// Bias may be []int32 or []int64.
func Int16[B Bias](p *Params, input []int16, filter []int8, bias []B, output []int16, q *qnn.PerChannelQuant) error {
	g := p.Geometry()
	g.checkLengths("conv.Int16", len(input), len(filter), len(bias), len(output))
	bq := q.Bounded(qnn.Int16)
	BaseGenericInt16(&g, input, filter, bias, output, &bq)
	return nil
}

// Float32 is the float convolution. act selects a fused clamp; ActTanh and
// ActLogistic are not fused and act as ActNone.
func Float32(p *Params, input, filter, bias, output []float32, act qnn.Activation) error {
	g := p.Geometry()
	g.checkLengths("conv.Float32", len(input), len(filter), len(bias), len(output))
	lo, hi := qnn.ActivationRangeFloat(act)
	BaseGenericFloat32(&g, input, filter, bias, output, lo, hi)
	return nil
}

// Operands carries untyped tensors for Run.
type Operands struct {
	Input, Filter, Bias, Output any

	// Quant is required for integer inputs.
	Quant *qnn.PerChannelQuant

	// Activation applies to float inputs only.
	Activation qnn.Activation
}

// Run type-switches on the operands and calls the matching entry point. Bias
// may be nil. Unsupported combinations fail before any output is written.
func Run(p *Params, ops Operands, arena *qnn.Arena) error {
	in, filter, bias, out := dtypeOf(ops.Input), dtypeOf(ops.Filter), dtypeOf(ops.Bias), dtypeOf(ops.Output)
	if ops.Bias == nil {
		bias = qnn.Int32
		if in == qnn.Float32 {
			bias = qnn.Float32
		}
	}
	if err := Validate(in, filter, bias); err != nil {
		return err
	}
	if out != in {
		return qnn.Unsupported("conv", out)
	}

	switch input := ops.Input.(type) {
	case []float32:
		b, _ := ops.Bias.([]float32)
		return Float32(p, input, ops.Filter.([]float32), b, ops.Output.([]float32), ops.Activation)
	case []int8:
		b, _ := ops.Bias.([]int32)
		if f, ok := ops.Filter.(qnn.PackedInt4); ok {
			return Int8PackedInt4(p, input, f, b, ops.Output.([]int8), ops.Quant, arena)
		}
		return Int8(p, input, ops.Filter.([]int8), b, ops.Output.([]int8), ops.Quant, arena)
	default:
		in16 := ops.Input.([]int16)
		if b, ok := ops.Bias.([]int64); ok {
			return Int16(p, in16, ops.Filter.([]int8), b, ops.Output.([]int16), ops.Quant)
		}
		b, _ := ops.Bias.([]int32)
		return Int16(p, in16, ops.Filter.([]int8), b, ops.Output.([]int16), ops.Quant)
	}
}

// dtypeOf maps unknown operand types to an out-of-range DType so that they
// fail validation.
func dtypeOf(v any) qnn.DType {
	if dt, ok := qnn.DTypeOf(v); ok {
		return dt
	}
	return qnn.DType(-1)
}
