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

// Params describes one depthwise convolution. Zero strides, dilations and
// depth multiplier mean 1.
type Params struct {
	Input           qnn.Shape4
	DepthMultiplier int
	KernelH         int
	KernelW         int
	StrideH         int
	StrideW         int
	DilationH       int
	DilationW       int
	Padding         qnn.Padding

	// OutputH and OutputW override the derived output size when non-zero.
	OutputH, OutputW int
}

// Geometry is a resolved depthwise call. Out.C is In.C*M.
type Geometry struct {
	conv.Geometry
	M int
}

// Geometry resolves defaults and padding the same way conv does.
func (p *Params) Geometry() Geometry {
	m := max(p.DepthMultiplier, 1)
	cp := conv.Params{
		Input:       p.Input,
		OutChannels: p.Input.C * m,
		KernelH:     p.KernelH,
		KernelW:     p.KernelW,
		StrideH:     p.StrideH,
		StrideW:     p.StrideW,
		DilationH:   p.DilationH,
		DilationW:   p.DilationW,
		Padding:     p.Padding,
		OutputH:     p.OutputH,
		OutputW:     p.OutputW,
	}
	return Geometry{Geometry: cp.Geometry(), M: m}
}

// Output returns the output shape.
func (p *Params) Output() qnn.Shape4 {
	return p.Geometry().Out
}

// FilterSize returns Kh*Kw*Cin*M.
func (g *Geometry) FilterSize() int {
	return g.KH * g.KW * g.Out.C
}

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
