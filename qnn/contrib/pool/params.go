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

package pool

import (
	"fmt"

	"github.com/qnnkit/qnn/qnn"
)

// Params describes one pooling call. Zero strides mean 1.
type Params struct {
	Input   qnn.Shape4
	KernelH int
	KernelW int
	StrideH int
	StrideW int
	Padding qnn.Padding

	// ActMin and ActMax clamp quantized outputs; they are narrowed to the
	// output type. Use qnn.ActivationRange to derive them.
	ActMin, ActMax int32

	// Activation clamps float outputs.
	Activation qnn.Activation

	// Rescale, when non-nil, requantizes quantized averages.
	Rescale *Rescale
}

// Rescale maps an average in the input encoding to the output encoding:
// out = MultiplyByQuantizedMultiplier(avg + InputOffset) + OutputOffset.
type Rescale struct {
	InputOffset  int32
	Multiplier   int32
	Shift        int32
	OutputOffset int32
}

// Geometry is Params resolved into output shape and border.
type Geometry struct {
	In, Out qnn.Shape4
	Pad     qnn.Pad2D
	KH, KW  int
	SH, SW  int
}

// Geometry resolves defaults and padding.
func (p *Params) Geometry() Geometry {
	g := Geometry{
		In: p.Input,
		KH: p.KernelH,
		KW: p.KernelW,
		SH: max(p.StrideH, 1),
		SW: max(p.StrideW, 1),
	}
	var outH, outW int
	outH, outW, g.Pad = qnn.WindowPadding(p.Padding, g.In.H, g.In.W, g.KH, g.KW, g.SH, g.SW, 1, 1)
	g.Out = qnn.Shape4{N: g.In.N, H: outH, W: outW, C: g.In.C}
	return g
}

// Output returns the output shape.
func (p *Params) Output() qnn.Shape4 {
	return p.Geometry().Out
}

func (g *Geometry) String() string {
	return fmt.Sprintf("in=%v out=%v k=%dx%d s=%dx%d pad=%+v", g.In, g.Out, g.KH, g.KW, g.SH, g.SW, g.Pad)
}

// window returns the in-bounds input rows [y0, y1) and columns [x0, x1) of
// output position (oy, ox).
func (g *Geometry) window(oy, ox int) (y0, y1, x0, x1 int) {
	iy := oy*g.SH - g.Pad.Top
	ix := ox*g.SW - g.Pad.Left
	return max(iy, 0), min(iy+g.KH, g.In.H), max(ix, 0), min(ix+g.KW, g.In.W)
}

func (g *Geometry) checkLengths(op string, input, output int) {
	if input < g.In.Size() {
		panic(op + ": input too short")
	}
	if output < g.Out.Size() {
		panic(op + ": output too short")
	}
}
