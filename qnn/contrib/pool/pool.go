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

import "github.com/qnnkit/qnn/qnn"

// MaxInt8 is max pooling on int8 tensors.
func MaxInt8(p *Params, input, output []int8) {
	g := p.Geometry()
	g.checkLengths("pool.MaxInt8", len(input), len(output))
	lo, hi := bounds(p, qnn.Int8)
	BaseMax(&g, input, output, int8(lo), int8(hi))
}

// MaxInt16 is max pooling on int16 tensors.
func MaxInt16(p *Params, input, output []int16) {
	g := p.Geometry()
	g.checkLengths("pool.MaxInt16", len(input), len(output))
	lo, hi := bounds(p, qnn.Int16)
	BaseMax(&g, input, output, int16(lo), int16(hi))
}

// MaxFloat32 is max pooling on float tensors with p.Activation fused.
func MaxFloat32(p *Params, input, output []float32) {
	g := p.Geometry()
	g.checkLengths("pool.MaxFloat32", len(input), len(output))
	lo, hi := qnn.ActivationRangeFloat(p.Activation)
	BaseMax(&g, input, output, lo, hi)
}

// BaseMax writes the maximum of each window's in-bounds positions, then
// clamps it to [lo, hi]. A whole channel row is reduced per tap.
func BaseMax[T qnn.Number](g *Geometry, input, output []T, lo, hi T) {
	in, out := g.In, g.Out
	c := in.C
	lanes := qnn.NumLanes[T]()
	for n := range out.N {
		for oy := range out.H {
			for ox := range out.W {
				y0, y1, x0, x1 := g.window(oy, ox)
				o := out.Offset(n, oy, ox, 0)
				dst := output[o : o+c]
				first := true
				for y := y0; y < y1; y++ {
					for x := x0; x < x1; x++ {
						ib := in.Offset(n, y, x, 0)
						src := input[ib : ib+c]
						if first {
							copy(dst, src)
							first = false
							continue
						}
						i := 0
						for ; i+lanes <= c; i += lanes {
							for j := range lanes {
								dst[i+j] = max(dst[i+j], src[i+j])
							}
						}

						// Scalar tail
						for ; i < c; i++ {
							dst[i] = max(dst[i], src[i])
						}
					}
				}
				if first {
					clear(dst)
				}
				for i, v := range dst {
					dst[i] = qnn.Clamp(v, lo, hi)
				}
			}
		}
	}
}

// AverageInt8 is average pooling on int8 tensors.
func AverageInt8(p *Params, input, output []int8) {
	g := p.Geometry()
	g.checkLengths("pool.AverageInt8", len(input), len(output))
	lo, hi := bounds(p, qnn.Int8)
	BaseAverage(&g, input, output, p.Rescale, lo, hi)
}

// AverageInt16 is average pooling on int16 tensors.
func AverageInt16(p *Params, input, output []int16) {
	g := p.Geometry()
	g.checkLengths("pool.AverageInt16", len(input), len(output))
	lo, hi := bounds(p, qnn.Int16)
	BaseAverage(&g, input, output, p.Rescale, lo, hi)
}

// BaseAverage writes the rounded mean of each window's in-bounds positions.
// The sum is formed in int32, which holds any window of int16 values up to
// 65536 positions.
func BaseAverage[T int8 | int16](g *Geometry, input, output []T, r *Rescale, lo, hi int32) {
	in, out := g.In, g.Out
	var rq qnn.Requant
	if r != nil {
		rq = qnn.Requant{Multiplier: r.Multiplier, Shift: r.Shift, OutputOffset: r.OutputOffset, ActMin: lo, ActMax: hi}
	}
	for n := range out.N {
		for oy := range out.H {
			for ox := range out.W {
				y0, y1, x0, x1 := g.window(oy, ox)
				count := int32((y1 - y0) * (x1 - x0))
				o := out.Offset(n, oy, ox, 0)
				for c := range in.C {
					var sum int32
					for y := y0; y < y1; y++ {
						for x := x0; x < x1; x++ {
							sum += int32(input[in.Offset(n, y, x, c)])
						}
					}
					avg := RoundedDivide(sum, count)
					if r != nil {
						output[o+c] = T(rq.Apply(avg + r.InputOffset))
						continue
					}
					output[o+c] = T(qnn.Clamp(avg, lo, hi))
				}
			}
		}
	}
}

// RoundedDivide returns sum/count rounded half away from zero. It returns
// 0 for an empty window.
func RoundedDivide(sum, count int32) int32 {
	if count <= 0 {
		return 0
	}
	if sum > 0 {
		return (sum + count/2) / count
	}
	return (sum - count/2) / count
}

// AverageFloat32 is average pooling on float tensors with p.Activation
// fused.
func AverageFloat32(p *Params, input, output []float32) {
	g := p.Geometry()
	g.checkLengths("pool.AverageFloat32", len(input), len(output))
	lo, hi := qnn.ActivationRangeFloat(p.Activation)
	in, out := g.In, g.Out
	for n := range out.N {
		for oy := range out.H {
			for ox := range out.W {
				y0, y1, x0, x1 := g.window(oy, ox)
				count := float32((y1 - y0) * (x1 - x0))
				o := out.Offset(n, oy, ox, 0)
				for c := range in.C {
					var sum float32
					for y := y0; y < y1; y++ {
						for x := x0; x < x1; x++ {
							sum += input[in.Offset(n, y, x, c)]
						}
					}
					var avg float32
					if count > 0 {
						avg = sum / count
					}
					output[o+c] = qnn.Clamp(avg, lo, hi)
				}
			}
		}
	}
}

// bounds narrows the quantized clamp to dt.
func bounds(p *Params, dt qnn.DType) (lo, hi int32) {
	lo, hi = dt.Range()
	return max(p.ActMin, lo), min(p.ActMax, hi)
}
