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

//go:generate go run ../../../cmd/qnngen -kernel conv3x3 -output z_conv3x3.gen.go -variants s1same,s1valid,s2valid

import "github.com/qnnkit/qnn/qnn"

// Bias is the accumulator type of int16 convolutions.
type Bias interface {
	~int32 | ~int64
}

// BaseGenericInt8 is the bounds-checked int8 convolution. Taps that fall
// outside the input contribute nothing, which equals padding with the value
// -InputOffset. q must already be bounded to int8.
func BaseGenericInt8(g *Geometry, input, filter []int8, bias []int32, output []int8, q *qnn.PerChannelQuant) {
	in, out := g.In, g.Out
	kSize := g.KH * g.KW * in.C
	for n := range out.N {
		for oy := range out.H {
			iy0 := oy*g.SH - g.Pad.Top
			for ox := range out.W {
				ix0 := ox*g.SW - g.Pad.Left
				o := out.Offset(n, oy, ox, 0)
				for oc := range out.C {
					acc := borderTapsInt8(g, input, filter[oc*kSize:(oc+1)*kSize], n, iy0, ix0, q)
					if bias != nil {
						acc += bias[oc]
					}
					output[o+oc] = int8(q.Requantize(acc, oc))
				}
			}
		}
	}
}

// borderTapsInt8 accumulates one output element with per-tap bounds checks.
// f is the (Kh, Kw, Cin) filter slice of a single output channel.
func borderTapsInt8(g *Geometry, input, f []int8, n, iy0, ix0 int, q *qnn.PerChannelQuant) int32 {
	in := g.In
	var acc int32
	for ky := range g.KH {
		iy := iy0 + ky*g.DH
		if iy < 0 || iy >= in.H {
			continue
		}
		for kx := range g.KW {
			ix := ix0 + kx*g.DW
			if ix < 0 || ix >= in.W {
				continue
			}
			ib := in.Offset(n, iy, ix, 0)
			fb := (ky*g.KW + kx) * in.C
			acc += qnn.DotInt8(input[ib:ib+in.C], f[fb:fb+in.C], q.InputOffset, q.FilterOffset)
		}
	}
	return acc
}

// BaseGenericInt16 is the bounds-checked int16 x int8 convolution with an
// int64 accumulator. q must already be bounded to int16.
func BaseGenericInt16[B Bias](g *Geometry, input []int16, filter []int8, bias []B, output []int16, q *qnn.PerChannelQuant) {
	in, out := g.In, g.Out
	kSize := g.KH * g.KW * in.C
	for n := range out.N {
		for oy := range out.H {
			iy0 := oy*g.SH - g.Pad.Top
			for ox := range out.W {
				ix0 := ox*g.SW - g.Pad.Left
				o := out.Offset(n, oy, ox, 0)
				for oc := range out.C {
					f := filter[oc*kSize : (oc+1)*kSize]
					var acc int64
					for ky := range g.KH {
						iy := iy0 + ky*g.DH
						if iy < 0 || iy >= in.H {
							continue
						}
						for kx := range g.KW {
							ix := ix0 + kx*g.DW
							if ix < 0 || ix >= in.W {
								continue
							}
							ib := in.Offset(n, iy, ix, 0)
							fb := (ky*g.KW + kx) * in.C
							acc += qnn.DotInt16Int8(input[ib:ib+in.C], f[fb:fb+in.C], q.InputOffset, q.FilterOffset)
						}
					}
					if bias != nil {
						acc += int64(bias[oc])
					}
					output[o+oc] = int16(q.Requantize64(acc, oc))
				}
			}
		}
	}
}

// BaseGenericFloat32 is the float convolution with a fused clamp.
func BaseGenericFloat32(g *Geometry, input, filter, bias, output []float32, lo, hi float32) {
	in, out := g.In, g.Out
	kSize := g.KH * g.KW * in.C
	for n := range out.N {
		for oy := range out.H {
			iy0 := oy*g.SH - g.Pad.Top
			for ox := range out.W {
				ix0 := ox*g.SW - g.Pad.Left
				o := out.Offset(n, oy, ox, 0)
				for oc := range out.C {
					f := filter[oc*kSize : (oc+1)*kSize]
					var acc float32
					for ky := range g.KH {
						iy := iy0 + ky*g.DH
						if iy < 0 || iy >= in.H {
							continue
						}
						for kx := range g.KW {
							ix := ix0 + kx*g.DW
							if ix < 0 || ix >= in.W {
								continue
							}
							ib := in.Offset(n, iy, ix, 0)
							fb := (ky*g.KW + kx) * in.C
							acc += qnn.DotFloat32(input[ib:ib+in.C], f[fb:fb+in.C])
						}
					}
					if bias != nil {
						acc += bias[oc]
					}
					output[o+oc] = qnn.Clamp(acc, lo, hi)
				}
			}
		}
	}
}
