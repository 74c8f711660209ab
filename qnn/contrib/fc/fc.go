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

package fc

import "github.com/qnnkit/qnn/qnn"

// Dims holds the matrix dimensions of a fully-connected call.
type Dims struct {
	Batches int
	Depth   int
	Units   int
}

// Quant holds the per-tensor quantization of a fully-connected call.
// InputOffset and FilterOffset are added to every input value and weight.
type Quant struct {
	InputOffset  int32
	FilterOffset int32
	qnn.Requant
}

// Bias is the accumulator type of int16 layers.
type Bias interface {
	~int32 | ~int64
}

func (d Dims) check(op string, input, weights, bias, output int) {
	switch {
	case input < d.Batches*d.Depth:
		panic(op + ": input too short")
	case weights < d.Units*d.Depth:
		panic(op + ": weights too short")
	case bias > 0 && bias < d.Units:
		panic(op + ": bias too short")
	case output < d.Batches*d.Units:
		panic(op + ": output too short")
	}
}

// Int8 computes output = requant(input @ weights^T + bias).
func Int8(d Dims, input, weights []int8, bias []int32, output []int8, q *Quant) {
	d.check("fc.Int8", len(input), len(weights), len(bias), len(output))
	rq := q.Requant.Bounded(qnn.Int8)
	for b := range d.Batches {
		x := input[b*d.Depth : (b+1)*d.Depth]
		o := output[b*d.Units : (b+1)*d.Units]
		for u := range d.Units {
			acc := qnn.DotInt8(x, weights[u*d.Depth:(u+1)*d.Depth], q.InputOffset, q.FilterOffset)
			if bias != nil {
				acc += bias[u]
			}
			o[u] = int8(rq.Apply(acc))
		}
	}
}

// Int16 is the int16 x int8 layer with an int64 accumulator. Bias may be
// []int32 or []int64.
func Int16[B Bias](d Dims, input []int16, weights []int8, bias []B, output []int16, q *Quant) {
	d.check("fc.Int16", len(input), len(weights), len(bias), len(output))
	rq := q.Requant.Bounded(qnn.Int16)
	for b := range d.Batches {
		x := input[b*d.Depth : (b+1)*d.Depth]
		o := output[b*d.Units : (b+1)*d.Units]
		for u := range d.Units {
			acc := qnn.DotInt16Int8(x, weights[u*d.Depth:(u+1)*d.Depth], q.InputOffset, q.FilterOffset)
			if bias != nil {
				acc += int64(bias[u])
			}
			o[u] = int16(rq.Apply64(acc))
		}
	}
}

// Float32 computes output = act(input @ weights^T + bias). ActTanh and
// ActLogistic are not fused and act as ActNone.
func Float32(d Dims, input, weights, bias, output []float32, act qnn.Activation) {
	d.check("fc.Float32", len(input), len(weights), len(bias), len(output))
	lo, hi := qnn.ActivationRangeFloat(act)
	for b := range d.Batches {
		x := input[b*d.Depth : (b+1)*d.Depth]
		o := output[b*d.Units : (b+1)*d.Units]
		for u := range d.Units {
			sum := qnn.DotFloat32(x, weights[u*d.Depth:(u+1)*d.Depth])
			if bias != nil {
				sum += bias[u]
			}
			o[u] = qnn.Clamp(sum, lo, hi)
		}
	}
}
