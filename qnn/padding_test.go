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

import "testing"

func TestComputePadding(t *testing.T) {
	tests := []struct {
		name                      string
		pad                       Padding
		in, k, stride, dilation   int
		wantOut, wantTotal, wantB int
	}{
		{"valid 3x3 stride 1", PaddingValid, 5, 3, 1, 1, 3, 0, 0},
		{"valid 2 stride 2", PaddingValid, 4, 2, 2, 1, 2, 0, 0},
		{"valid kernel larger than input", PaddingValid, 2, 3, 1, 1, 0, 0, 0},
		{"same 3x3 stride 1 even total", PaddingSame, 5, 3, 1, 1, 5, 2, 1},
		{"same 2x2 stride 1 odd total", PaddingSame, 4, 2, 1, 1, 4, 1, 0},
		{"same 3x3 stride 2 odd input", PaddingSame, 5, 3, 2, 1, 3, 2, 1},
		{"same 3x3 stride 2 even input odd total", PaddingSame, 6, 3, 2, 1, 3, 1, 0},
		{"same 4 stride 1 odd total", PaddingSame, 7, 4, 1, 1, 7, 3, 1},
		{"same dilated", PaddingSame, 6, 3, 1, 2, 6, 4, 2},
		{"valid dilated", PaddingValid, 6, 2, 1, 3, 3, 0, 0},
		{"same stride larger than kernel", PaddingSame, 7, 1, 3, 1, 3, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, total, before := ComputePadding(tt.pad, tt.in, tt.k, tt.stride, tt.dilation)
			if out != tt.wantOut || total != tt.wantTotal || before != tt.wantB {
				t.Errorf("got (out=%d, total=%d, before=%d), want (%d, %d, %d)",
					out, total, before, tt.wantOut, tt.wantTotal, tt.wantB)
			}
		})
	}
}

func TestWindowPaddingPutsExtraAfter(t *testing.T) {
	outH, outW, pad := WindowPadding(PaddingSame, 4, 4, 2, 2, 1, 1, 1, 1)
	if outH != 4 || outW != 4 {
		t.Fatalf("got out %dx%d, want 4x4", outH, outW)
	}
	want := Pad2D{Top: 0, Bottom: 1, Left: 0, Right: 1}
	if pad != want {
		t.Errorf("got %+v, want %+v", pad, want)
	}
}

func TestPadImage(t *testing.T) {
	s := Shape4{N: 1, H: 2, W: 2, C: 2}
	src := []int8{1, 2, 3, 4, 5, 6, -128, 127}
	pad := Pad2D{Top: 1, Bottom: 0, Left: 0, Right: 1}
	ps := pad.Padded(s)
	if ps != (Shape4{N: 1, H: 3, W: 3, C: 2}) {
		t.Fatalf("padded shape %v", ps)
	}

	dst := make([]int16, ps.Size())
	for i := range dst {
		dst[i] = 99
	}
	PadImage(dst, src, s, 128, pad)

	want := []int16{
		0, 0, 0, 0, 0, 0,
		129, 130, 131, 132, 0, 0,
		133, 134, 0, 255, 0, 0,
	}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("index %d: got %d, want %d", i, dst[i], want[i])
		}
	}
}

func TestPadImageInt16Wide(t *testing.T) {
	s := Shape4{N: 2, H: 1, W: 3, C: 1}
	src := []int16{32767, -32768, 0, 1, 2, 3}
	pad := Pad2D{Left: 2, Right: 1}
	dst := make([]int32, pad.Padded(s).Size())
	PadImage(dst, src, s, 1, pad)

	want := []int32{0, 0, 32768, -32767, 1, 0, 0, 0, 2, 3, 4, 0}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("index %d: got %d, want %d", i, dst[i], want[i])
		}
	}
}
