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

import (
	"fmt"

	"github.com/qnnkit/qnn/qnn"
)

// Params describes the shape of one convolution call. Zero strides and
// dilations mean 1.
type Params struct {
	Input       qnn.Shape4
	OutChannels int
	KernelH     int
	KernelW     int
	StrideH     int
	StrideW     int
	DilationH   int
	DilationW   int
	Padding     qnn.Padding

	// OutputH and OutputW override the derived output size when non-zero,
	// as when a model file fixes the output shape. Windows that then run
	// past the input read zero contributions.
	OutputH, OutputW int
}

// Geometry is Params resolved into output shape and border.
type Geometry struct {
	In      qnn.Shape4
	Out     qnn.Shape4
	Pad     qnn.Pad2D
	Padding qnn.Padding
	KH, KW  int
	SH, SW  int
	DH, DW  int
}

// Geometry resolves defaults and padding.
func (p *Params) Geometry() Geometry {
	g := Geometry{
		In:      p.Input,
		Padding: p.Padding,
		KH:      p.KernelH,
		KW:      p.KernelW,
		SH:      max(p.StrideH, 1),
		SW:      max(p.StrideW, 1),
		DH:      max(p.DilationH, 1),
		DW:      max(p.DilationW, 1),
	}
	outH, outW, pad := qnn.WindowPadding(p.Padding, g.In.H, g.In.W, g.KH, g.KW, g.SH, g.SW, g.DH, g.DW)
	if p.OutputH > 0 {
		outH = p.OutputH
	}
	if p.OutputW > 0 {
		outW = p.OutputW
	}
	g.Out = qnn.Shape4{N: g.In.N, H: outH, W: outW, C: p.OutChannels}
	g.Pad = coverWindows(pad, g.In, outH, outW, g.SH, g.SW, qnn.EffectiveKernel(g.KH, g.DH), qnn.EffectiveKernel(g.KW, g.DW))
	return g
}

// coverWindows grows the bottom and right border until every window lies
// inside the padded input.
func coverWindows(pad qnn.Pad2D, in qnn.Shape4, outH, outW, sh, sw, effH, effW int) qnn.Pad2D {
	if outH > 0 {
		pad.Bottom = max(pad.Bottom, (outH-1)*sh+effH-pad.Top-in.H)
	}
	if outW > 0 {
		pad.Right = max(pad.Right, (outW-1)*sw+effW-pad.Left-in.W)
	}
	return pad
}

// Output returns the output shape.
func (p *Params) Output() qnn.Shape4 {
	return p.Geometry().Out
}

// FilterSize returns the number of weights, Cout*Kh*Kw*Cin.
func (g *Geometry) FilterSize() int {
	return g.Out.C * g.KH * g.KW * g.In.C
}

func (g *Geometry) String() string {
	return fmt.Sprintf("in=%v out=%v k=%dx%d s=%dx%d d=%dx%d pad=%+v",
		g.In, g.Out, g.KH, g.KW, g.SH, g.SW, g.DH, g.DW, g.Pad)
}

// checkLengths panics when a slice cannot hold its tensor.
func (g *Geometry) checkLengths(op string, input, filter, bias, output int) {
	switch {
	case input < g.In.Size():
		panic(op + ": input too short")
	case filter < g.FilterSize():
		panic(op + ": filter too short")
	case bias > 0 && bias < g.Out.C:
		panic(op + ": bias too short")
	case output < g.Out.Size():
		panic(op + ": output too short")
	}
}

// Validate reports whether a dtype combination has a kernel.
func Validate(input, filter, bias qnn.DType) error {
	switch input {
	case qnn.Float32:
		if filter != qnn.Float32 {
			return qnn.Unsupported("conv", filter)
		}
		if bias != qnn.Float32 {
			return qnn.Unsupported("conv", bias)
		}
	case qnn.Int8:
		if filter != qnn.Int8 && filter != qnn.Int4 {
			return qnn.Unsupported("conv", filter)
		}
		if bias != qnn.Int32 {
			return qnn.Unsupported("conv", bias)
		}
	case qnn.Int16:
		if filter != qnn.Int8 {
			return qnn.Unsupported("conv", filter)
		}
		if bias != qnn.Int32 && bias != qnn.Int64 {
			return qnn.Unsupported("conv", bias)
		}
	default:
		return qnn.Unsupported("conv", input)
	}
	return nil
}
