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

// TransformWeights repacks a (Cout, Kh, Kw, Cin) filter into
// (Kh, Kw, Cin, Cout) order with offset added, so that the weights of all
// output channels for one tap are contiguous.
func TransformWeights(dst []int16, filter []int8, cout, kh, kw, cin int, offset int32) {
	kSize := kh * kw * cin
	if len(dst) < cout*kSize || len(filter) < cout*kSize {
		panic("conv: TransformWeights slice too short")
	}
	for oc := range cout {
		f := filter[oc*kSize : (oc+1)*kSize]
		for k, w := range f {
			dst[k*cout+oc] = int16(int32(w) + offset)
		}
	}
}

// ExtractPatch copies the kh x kw window whose top-left corner is (y, x) in
// the padded tensor into dst, in (Kh, Kw, C) order.
func ExtractPatch[T any](dst, padded []T, ps qnn.Shape4, n, y, x, kh, kw int) {
	row := kw * ps.C
	for ky := range kh {
		src := ps.Offset(n, y+ky, x, 0)
		copy(dst[ky*row:(ky+1)*row], padded[src:src+row])
	}
}

type materializedStrategy struct{}

func (materializedStrategy) Name() string { return "materialized" }

func (materializedStrategy) Supports(g *Geometry) bool {
	return g.DH == 1 && g.DW == 1
}

// Workspace covers the padded input, repacked weights, one patch and one
// accumulator row.
func (materializedStrategy) Workspace(g *Geometry) int {
	ps := g.Pad.Padded(g.In)
	return qnn.SizeOf(ps.Size(), 2) +
		qnn.SizeOf(g.FilterSize(), 2) +
		qnn.SizeOf(g.KH*g.KW*g.In.C, 2) +
		qnn.SizeOf(g.Out.C, 4)
}

func (s materializedStrategy) convInt8(g *Geometry, input, filter []int8, bias []int32, output []int8, q *qnn.PerChannelQuant, a *qnn.Arena) error {
	const op = "conv.Materialized"
	ps := g.Pad.Padded(g.In)
	kSize := g.KH * g.KW * g.In.C
	cout := g.Out.C

	padded, err := a.Int16s(op, ps.Size())
	if err != nil {
		return err
	}
	weights, err := a.Int16s(op, g.FilterSize())
	if err != nil {
		return err
	}
	patch, err := a.Int16s(op, kSize)
	if err != nil {
		return err
	}
	accs, err := a.Int32s(op, cout)
	if err != nil {
		return err
	}

	qnn.PadImage(padded, input, g.In, q.InputOffset, g.Pad)
	TransformWeights(weights, filter, cout, g.KH, g.KW, g.In.C, q.FilterOffset)

	lanes := qnn.NumLanes[int32]()
	out := g.Out
	for n := range out.N {
		for oy := range out.H {
			for ox := range out.W {
				ExtractPatch(patch, padded, ps, n, oy*g.SH, ox*g.SW, g.KH, g.KW)
				if bias != nil {
					copy(accs, bias[:cout])
				} else {
					clear(accs)
				}
				for k, pv := range patch {
					if pv == 0 {
						continue
					}
					p := int32(pv)
					row := weights[k*cout : (k+1)*cout]
					c := 0
					for ; c+lanes <= cout; c += lanes {
						for j := range lanes {
							accs[c+j] += p * int32(row[c+j])
						}
					}

					// Scalar tail
					for ; c < cout; c++ {
						accs[c] += p * int32(row[c])
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
