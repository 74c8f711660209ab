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

package depthwise

import (
	"github.com/qnnkit/qnn/qnn"
	"github.com/qnnkit/qnn/qnn/contrib/conv"
)

// Variant selects the int8 loop structure.
type Variant int

const (
	// Auto picks Materialized when its working set fits the arena.
	Auto Variant = iota
	Generic
	Materialized
)

func (v Variant) String() string {
	switch v {
	case Generic:
		return "generic"
	case Materialized:
		return "materialized"
	default:
		return "auto"
	}
}

// Workspace returns the scratch bytes v reserves for g.
func (v Variant) Workspace(g *Geometry) int {
	if v == Materialized {
		return materializedWorkspace(g)
	}
	return 0
}

// Select resolves Auto for g against a budget in bytes.
func Select(g *Geometry, budget int) Variant {
	if materializedWorkspace(g) <= budget {
		return Materialized
	}
	return Generic
}

// Int8 runs the int8 depthwise convolution with the variant chosen by
// Select. A nil arena allocates scratch for this call only.
func Int8(p *Params, input, filter []int8, bias []int32, output []int8, q *qnn.PerChannelQuant, arena *qnn.Arena) error {
	return RunInt8(Auto, p, input, filter, bias, output, q, arena)
}

// RunInt8 runs variant v. Materialized fails with qnn.ErrWorkingSetTooLarge
// when its working set does not fit the arena.
func RunInt8(v Variant, p *Params, input, filter []int8, bias []int32, output []int8, q *qnn.PerChannelQuant, arena *qnn.Arena) error {
	g := p.Geometry()
	g.checkLengths("depthwise.Int8", len(input), len(filter), len(bias), len(output))
	if v == Auto {
		v = Select(&g, budget(arena))
	}
	return run(v, &g, input, filter, bias, output, q, arena)
}

func run(v Variant, g *Geometry, input, filter []int8, bias []int32, output []int8, q *qnn.PerChannelQuant, arena *qnn.Arena) error {
	bq := q.Bounded(qnn.Int8)
	if v == Generic {
		BaseGenericInt8(g, input, filter, bias, output, &bq)
		return nil
	}
	need := materializedWorkspace(g)
	a := qnn.Scratch(arena, need)
	if err := a.Check("depthwise.Materialized", need); err != nil {
		return err
	}
	return materializedInt8(g, input, filter, bias, output, &bq, a)
}

// Int8PackedInt4 is Int8 with a packed 4-bit filter, unpacked into the
// arena first.
func Int8PackedInt4(p *Params, input []int8, filter qnn.PackedInt4, bias []int32, output []int8, q *qnn.PerChannelQuant, arena *qnn.Arena) error {
	const op = "depthwise.Int8PackedInt4"
	g := p.Geometry()
	g.checkLengths(op, len(input), 2*len(filter), len(bias), len(output))

	unpacked := qnn.SizeOf(g.FilterSize(), 1)
	total := budget(arena)
	if unpacked > total {
		return qnn.TooLarge(op, unpacked, total)
	}
	v := Select(&g, total-unpacked)

	a := qnn.Scratch(arena, unpacked+v.Workspace(&g))
	w, err := a.Int8s(op, g.FilterSize())
	if err != nil {
		return err
	}
	qnn.UnpackInt4(filter, w)

	bq := q.Bounded(qnn.Int8)
	if v == Generic {
		BaseGenericInt8(&g, input, w, bias, output, &bq)
		return nil
	}
	return materializedInt8(&g, input, w, bias, output, &bq, a)
}

// Int16 runs the int16 x int8 depthwise convolution. Bias may be []int32 or
// []int64.
func Int16[B conv.Bias](p *Params, input []int16, filter []int8, bias []B, output []int16, q *qnn.PerChannelQuant) error {
	g := p.Geometry()
	g.checkLengths("depthwise.Int16", len(input), len(filter), len(bias), len(output))
	bq := q.Bounded(qnn.Int16)
	BaseGenericInt16(&g, input, filter, bias, output, &bq)
	return nil
}

// Float32 is the float depthwise convolution with a fused activation clamp.
func Float32(p *Params, input, filter, bias, output []float32, act qnn.Activation) error {
	g := p.Geometry()
	g.checkLengths("depthwise.Float32", len(input), len(filter), len(bias), len(output))
	lo, hi := qnn.ActivationRangeFloat(act)
	BaseGenericFloat32(&g, input, filter, bias, output, lo, hi)
	return nil
}

func budget(a *qnn.Arena) int {
	if a == nil {
		return qnn.DefaultArenaSize
	}
	return a.Cap()
}
