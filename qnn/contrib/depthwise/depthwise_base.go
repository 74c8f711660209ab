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

// BaseGenericInt8 is the bounds-checked int8 depthwise convolution. q must
// already be bounded to int8.
func BaseGenericInt8(g *Geometry, input, filter []int8, bias []int32, output []int8, q *qnn.PerChannelQuant) {
	in, out := g.In, g.Out
	for n := range out.N {
		for oy := range out.H {
			iy0 := oy*g.SH - g.Pad.Top
			for ox := range out.W {
				ix0 := ox*g.SW - g.Pad.Left
				o := out.Offset(n, oy, ox, 0)
				for oc := range out.C {
					ic := oc / g.M
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
							v := int32(input[in.Offset(n, iy, ix, ic)]) + q.InputOffset
							w := int32(filter[(ky*g.KW+kx)*out.C+oc]) + q.FilterOffset
							acc += v * w
						}
					}
					if bias != nil {
						acc += bias[oc]
					}
					output[o+oc] = int8(q.Requantize(acc, oc))
				}
			}
		}
	}
}

// BaseGenericInt16 is the int16 x int8 depthwise convolution with an int64
// accumulator. q must already be bounded to int16.
func BaseGenericInt16[B conv.Bias](g *Geometry, input []int16, filter []int8, bias []B, output []int16, q *qnn.PerChannelQuant) {
	in, out := g.In, g.Out
	for n := range out.N {
		for oy := range out.H {
			iy0 := oy*g.SH - g.Pad.Top
			for ox := range out.W {
				ix0 := ox*g.SW - g.Pad.Left
				o := out.Offset(n, oy, ox, 0)
				for oc := range out.C {
					ic := oc / g.M
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
							v := int64(input[in.Offset(n, iy, ix, ic)]) + int64(q.InputOffset)
							w := int64(filter[(ky*g.KW+kx)*out.C+oc]) + int64(q.FilterOffset)
							acc += v * w
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

// BaseGenericFloat32 is the float depthwise convolution with a fused clamp.
func BaseGenericFloat32(g *Geometry, input, filter, bias, output []float32, lo, hi float32) {
	in, out := g.In, g.Out
	for n := range out.N {
		for oy := range out.H {
			iy0 := oy*g.SH - g.Pad.Top
			for ox := range out.W {
				ix0 := ox*g.SW - g.Pad.Left
				o := out.Offset(n, oy, ox, 0)
				for oc := range out.C {
					ic := oc / g.M
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
							acc += input[in.Offset(n, iy, ix, ic)] * filter[(ky*g.KW+kx)*out.C+oc]
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

// materializedInt8 pads the input once, repacks the weights with
// FilterOffset folded in, then accumulates whole channel rows per tap.
func materializedInt8(g *Geometry, input, filter []int8, bias []int32, output []int8, q *qnn.PerChannelQuant, a *qnn.Arena) error {
	const op = "depthwise.Materialized"
	ps := g.Pad.Padded(g.In)
	cout := g.Out.C
	taps := g.KH * g.KW

	padded, err := a.Int16s(op, ps.Size())
	if err != nil {
		return err
	}
	weights, err := a.Int16s(op, taps*cout)
	if err != nil {
		return err
	}
	accs, err := a.Int32s(op, cout)
	if err != nil {
		return err
	}

	qnn.PadImage(padded, input, g.In, q.InputOffset, g.Pad)
	for i, w := range filter[:taps*cout] {
		weights[i] = int16(int32(w) + q.FilterOffset)
	}

	lanes := qnn.NumLanes[int32]()
	out := g.Out
	for n := range out.N {
		for oy := range out.H {
			for ox := range out.W {
				if bias != nil {
					copy(accs, bias[:cout])
				} else {
					clear(accs)
				}
				for ky := range g.KH {
					for kx := range g.KW {
						pb := ps.Offset(n, oy*g.SH+ky*g.DH, ox*g.SW+kx*g.DW, 0)
						px := padded[pb : pb+ps.C]
						w := weights[(ky*g.KW+kx)*cout : (ky*g.KW+kx+1)*cout]
						if g.M == 1 {
							c := 0
							for ; c+lanes <= cout; c += lanes {
								for j := range lanes {
									accs[c+j] += int32(px[c+j]) * int32(w[c+j])
								}
							}

							// Scalar tail
							for ; c < cout; c++ {
								accs[c] += int32(px[c]) * int32(w[c])
							}
							continue
						}
						for ic, v := range px {
							for m := range g.M {
								oc := ic*g.M + m
								accs[oc] += int32(v) * int32(w[oc])
							}
						}
					}
				}
				o := out.Offset(n, oy, ox, 0)
				for oc, acc := range accs {
					output[o+oc] = int8(q.Requantize(acc, oc))
				}
			}
		}
	}
	return nil
}

// materializedWorkspace is the arena size materializedInt8 reserves.
func materializedWorkspace(g *Geometry) int {
	return qnn.SizeOf(g.Pad.Padded(g.In).Size(), 2) +
		qnn.SizeOf(g.KH*g.KW*g.Out.C, 2) +
		qnn.SizeOf(g.Out.C, 4)
}
