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

package qnn

// EffectiveKernel returns the extent of a dilated kernel.
func EffectiveKernel(k, dilation int) int {
	return (k-1)*dilation + 1
}

// OutputSize returns the number of output positions along one dimension.
func OutputSize(p Padding, in, k, stride, dilation int) int {
	eff := EffectiveKernel(k, dilation)
	if p == PaddingSame {
		return (in + stride - 1) / stride
	}
	return max(0, (in-eff+stride)/stride)
}

// ComputePadding returns the output size, total padding and the padding
// placed before the first element along one dimension. Padding after is
// total - before, so an odd total puts the extra element at the end.
func ComputePadding(p Padding, in, k, stride, dilation int) (out, total, before int) {
	out = OutputSize(p, in, k, stride, dilation)
	if p == PaddingValid {
		return out, 0, 0
	}
	total = max(0, (out-1)*stride+EffectiveKernel(k, dilation)-in)
	return out, total, total / 2
}

// Pad2D is the border around the spatial dimensions of an NHWC tensor.
type Pad2D struct {
	Top, Bottom, Left, Right int
}

// WindowPadding returns the output size and border for a 2D window.
func WindowPadding(p Padding, h, w, kh, kw, sh, sw, dh, dw int) (outH, outW int, pad Pad2D) {
	outH, th, top := ComputePadding(p, h, kh, sh, dh)
	outW, tw, left := ComputePadding(p, w, kw, sw, dw)
	return outH, outW, Pad2D{Top: top, Bottom: th - top, Left: left, Right: tw - left}
}

// Padded returns the shape of s after adding pad.
func (pad Pad2D) Padded(s Shape4) Shape4 {
	return Shape4{N: s.N, H: s.H + pad.Top + pad.Bottom, W: s.W + pad.Left + pad.Right, C: s.C}
}

// PadImage writes src + offset into dst with a zero border, so that a
// window over dst reads exactly the offset-corrected values a bounds-checked
// window over src would, including the zero contribution of out-of-range
// taps. dst must hold pad.Padded(s).Size() elements and use a type wide
// enough for any src + offset.
func PadImage[S, D Integer](dst []D, src []S, s Shape4, offset int32, pad Pad2D) {
	ps := pad.Padded(s)
	if len(dst) < ps.Size() {
		panic("qnn: PadImage dst too short")
	}
	if len(src) < s.Size() {
		panic("qnn: PadImage src too short")
	}

	rowLen := ps.W * s.C
	lanes := NumLanes[D]()
	off := D(offset)
	for n := range s.N {
		for y := range ps.H {
			row := dst[ps.Offset(n, y, 0, 0) : ps.Offset(n, y, 0, 0)+rowLen]
			sy := y - pad.Top
			if sy < 0 || sy >= s.H {
				clear(row)
				continue
			}
			clear(row[:pad.Left*s.C])
			clear(row[(pad.Left+s.W)*s.C:])

			in := src[s.Offset(n, sy, 0, 0) : s.Offset(n, sy, 0, 0)+s.W*s.C]
			body := row[pad.Left*s.C : (pad.Left+s.W)*s.C]
			i := 0
			for ; i+lanes <= len(in); i += lanes {
				for j := range lanes {
					body[i+j] = D(in[i+j]) + off
				}
			}

			// Scalar tail
			for ; i < len(in); i++ {
				body[i] = D(in[i]) + off
			}
		}
	}
}
