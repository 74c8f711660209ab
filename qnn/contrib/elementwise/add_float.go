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

package elementwise

import "github.com/qnnkit/qnn/qnn"

// AddFloat32 adds a and b into out with act fused. An operand of length 1
// is broadcast.
func AddFloat32(a, b, out []float32, act qnn.Activation) {
	checkOperands("elementwise.AddFloat32", len(a), len(b), len(out))
	lo, hi := qnn.ActivationRangeFloat(act)
	if len(a) == len(out) && len(b) == len(out) {
		lanes := qnn.NumLanes[float32]()
		i := 0
		for ; i+lanes <= len(out); i += lanes {
			for j := range lanes {
				out[i+j] = qnn.Clamp(a[i+j]+b[i+j], lo, hi)
			}
		}

		// Scalar tail
		for ; i < len(out); i++ {
			out[i] = qnn.Clamp(a[i]+b[i], lo, hi)
		}
		return
	}
	for i := range out {
		out[i] = qnn.Clamp(a[pick(len(a), i)]+b[pick(len(b), i)], lo, hi)
	}
}

// BroadcastShape returns the shape two operands broadcast to. Each
// dimension must match or be 1 in one of them.
func BroadcastShape(a, b qnn.Shape4) (qnn.Shape4, bool) {
	dim := func(x, y int) (int, bool) {
		switch {
		case x == y, y == 1:
			return x, true
		case x == 1:
			return y, true
		default:
			return 0, false
		}
	}
	var s qnn.Shape4
	var ok [4]bool
	s.N, ok[0] = dim(a.N, b.N)
	s.H, ok[1] = dim(a.H, b.H)
	s.W, ok[2] = dim(a.W, b.W)
	s.C, ok[3] = dim(a.C, b.C)
	return s, ok[0] && ok[1] && ok[2] && ok[3]
}

// AddFloat32Broadcast adds operands of shapes as and bs, broadcasting
// dimensions of size 1, and returns the output shape. It panics if the
// shapes are incompatible.
func AddFloat32Broadcast(as qnn.Shape4, a []float32, bs qnn.Shape4, b []float32, out []float32, act qnn.Activation) qnn.Shape4 {
	outShape, ok := BroadcastShape(as, bs)
	if !ok {
		panic("elementwise: cannot broadcast " + as.String() + " with " + bs.String())
	}
	if len(a) < as.Size() || len(b) < bs.Size() || len(out) < outShape.Size() {
		panic("elementwise: AddFloat32Broadcast slice too short")
	}
	lo, hi := qnn.ActivationRangeFloat(act)
	for n := range outShape.N {
		for y := range outShape.H {
			for x := range outShape.W {
				for c := range outShape.C {
					av := a[broadcastOffset(as, n, y, x, c)]
					bv := b[broadcastOffset(bs, n, y, x, c)]
					out[outShape.Offset(n, y, x, c)] = qnn.Clamp(av+bv, lo, hi)
				}
			}
		}
	}
	return outShape
}

func broadcastOffset(s qnn.Shape4, n, y, x, c int) int {
	return s.Offset(min(n, s.N-1), min(y, s.H-1), min(x, s.W-1), min(c, s.C-1))
}

// MulFloat32 multiplies a and b into out with act fused. An operand of
// length 1 is broadcast.
func MulFloat32(a, b, out []float32, act qnn.Activation) {
	checkOperands("elementwise.MulFloat32", len(a), len(b), len(out))
	lo, hi := qnn.ActivationRangeFloat(act)
	for i := range out {
		out[i] = qnn.Clamp(a[pick(len(a), i)]*b[pick(len(b), i)], lo, hi)
	}
}
