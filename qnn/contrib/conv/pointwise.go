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

// A 1x1 kernel needs no padding unless the output size was overridden, so
// every output pixel is a dot product of one input pixel with each filter
// row.
type pointwiseStrategy struct{}

func (pointwiseStrategy) Name() string { return "pointwise" }

func (pointwiseStrategy) Supports(g *Geometry) bool {
	return g.KH == 1 && g.KW == 1 && g.Pad == qnn.Pad2D{}
}

func (pointwiseStrategy) Workspace(*Geometry) int { return 0 }

func (pointwiseStrategy) convInt8(g *Geometry, input, filter []int8, bias []int32, output []int8, q *qnn.PerChannelQuant, _ *qnn.Arena) error {
	in, out := g.In, g.Out
	cin := in.C
	for n := range out.N {
		for oy := range out.H {
			for ox := range out.W {
				ib := in.Offset(n, oy*g.SH, ox*g.SW, 0)
				pix := input[ib : ib+cin]
				o := out.Offset(n, oy, ox, 0)
				for oc := range out.C {
					acc := qnn.DotInt8(pix, filter[oc*cin:(oc+1)*cin], q.InputOffset, q.FilterOffset)
					if bias != nil {
						acc += bias[oc]
					}
					output[o+oc] = int8(q.Requantize(acc, oc))
				}
			}
		}
	}
	return nil
}
