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

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qnnkit/qnn/qnn"
)

func TestAddInt16Saturates(t *testing.T) {
	a := []int16{1, -5, 32000, -32000, 100, 7, 8, 9, 10}
	b := []int16{2, 5, 1000, -1000, -300, 7, 8, 9, 10}
	out := make([]int16, len(a))
	AddInt16(a, b, out)
	want := []int16{3, 0, 32767, -32768, -200, 14, 16, 18, 20}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("AddInt16 mismatch (-want +got):\n%s", diff)
	}
}

func TestAddInt32Saturates(t *testing.T) {
	a := []int32{-2, 2147483646, -1, 1146622854}
	b := []int32{3, 1, -2147483647, -726978367}
	out := make([]int32, 4)
	AddInt32(a, b, out)
	assert.Equal(t, []int32{1, 2147483647, -2147483648, 419644487}, out)

	AddInt32([]int32{math.MaxInt32}, []int32{math.MaxInt32}, out[:1])
	assert.Equal(t, int32(math.MaxInt32), out[0])
}

func TestAddBroadcastsLengthOne(t *testing.T) {
	out16 := make([]int16, 3)
	AddInt16([]int16{10, 20, 32767}, []int16{5}, out16)
	assert.Equal(t, []int16{15, 25, 32767}, out16)
	AddInt16([]int16{-32768}, []int16{1, -1, 7}, out16)
	assert.Equal(t, []int16{-32767, -32768, -32761}, out16)

	out32 := make([]int32, 2)
	AddInt32([]int32{math.MaxInt32}, []int32{1, -1}, out32)
	assert.Equal(t, []int32{math.MaxInt32, math.MaxInt32 - 1}, out32)

	assert.PanicsWithValue(t, "elementwise.AddInt16: input too short", func() {
		AddInt16([]int16{1, 2}, []int16{1, 2, 3}, out16)
	})
}

func TestAddInt8Quantized(t *testing.T) {
	tests := []struct {
		name   string
		act    qnn.Activation
		scales [3]float64
		zps    [3]int32
		a, b   []int8
		want   []int8
	}{
		{
			name:   "no activation",
			scales: [3]float64{0.25, 0.5, 1.0},
			zps:    [3]int32{-10, 4, 13},
			a:      []int8{-18, -14, -10, -6},
			b:      []int8{6, 8, 10, 12},
			want:   []int8{12, 14, 16, 18},
		},
		{
			name:   "relu_n1_to_1",
			act:    qnn.ActReluN1To1,
			scales: [3]float64{0.25, 0.5, 1.0},
			zps:    [3]int32{-10, 4, 13},
			a:      []int8{-18, -14, -10, -6},
			b:      []int8{6, 8, 10, 12},
			want:   []int8{12, 14, 14, 14},
		},
		{
			name:   "mixed scales",
			scales: [3]float64{0.1, 0.05, 0.1},
			zps:    [3]int32{-9, 5, 14},
			a:      []int8{-29, -7, -2, -1, 2, 11},
			b:      []int8{7, 9, 11, 15, 27, 7},
			want:   []int8{-5, 18, 24, 27, 36, 35},
		},
		{
			name:   "scalar broadcast",
			scales: [3]float64{0.1, 0.05, 0.05},
			zps:    [3]int32{-8, 4, 12},
			a:      []int8{-28, -6, -1, 0, 3, 12},
			b:      []int8{6},
			want:   []int8{-26, 18, 28, 30, 36, 54},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewAddParams(qnn.Int8, tt.act, tt.scales[0], tt.zps[0], tt.scales[1], tt.zps[1], tt.scales[2], tt.zps[2])
			require.Equal(t, int32(20), p.LeftShift)
			out := make([]int8, len(tt.want))
			AddInt8Quantized(&p, tt.a, tt.b, out)
			if diff := cmp.Diff(tt.want, out); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAddInt16Quantized(t *testing.T) {
	p := NewAddParams(qnn.Int16, qnn.ActNone, 0.25, 0, 0.5, 0, 1.0, 0)
	require.Equal(t, int32(15), p.LeftShift)
	out := make([]int16, 4)
	AddInt16Quantized(&p, []int16{-8, -4, 0, 4}, []int16{2, 4, 6, 8}, out)
	assert.Equal(t, []int16{-1, 1, 3, 5}, out)
}

func TestAddQuantizedSymmetric(t *testing.T) {
	// Swapping operands with their encodings gives the same result.
	p := NewAddParams(qnn.Int8, qnn.ActNone, 0.1, -9, 0.05, 5, 0.1, 14)
	q := NewAddParams(qnn.Int8, qnn.ActNone, 0.05, 5, 0.1, -9, 0.1, 14)
	a := []int8{-29, -7, -2, -1, 2, 11, 127, -128}
	b := []int8{7, 9, 11, 15, 27, 7, -128, 127}
	ab, ba := make([]int8, len(a)), make([]int8, len(a))
	AddInt8Quantized(&p, a, b, ab)
	AddInt8Quantized(&q, b, a, ba)
	assert.Equal(t, ab, ba)
}

func TestMulInt16(t *testing.T) {
	p := NewMulParams(qnn.Int16, qnn.ActNone, 1.0/256, 0, 1.0/256, 0, 1.0/256, 0)
	a := []int16{512, 3, -300, 32767, -32768}
	b := []int16{768, 1, 200, 32767, 32767}
	out := make([]int16, len(a))
	MulInt16(&p, a, b, out)
	assert.Equal(t, []int16{1536, 0, -234, 32767, -32768}, out)
}

func TestMulInt8(t *testing.T) {
	p := NewMulParams(qnn.Int8, qnn.ActNone, 0.1, 0, 0.2, 0, 0.05, 0)
	out := make([]int8, 3)
	MulInt8(&p, []int8{10, -7, 50}, []int8{20, 9, 50}, out)
	assert.Equal(t, []int8{80, -25, 127}, out)

	// Zero points shift both operands and the result.
	p = NewMulParams(qnn.Int8, qnn.ActNone, 0.1, 3, 0.2, -2, 0.05, 5)
	assert.Equal(t, int32(-3), p.Offset1)
	assert.Equal(t, int32(2), p.Offset2)
	MulInt8(&p, []int8{13}, []int8{18, 8}, out[:2])
	assert.Equal(t, []int8{85, 45}, out[:2])
}

func TestAddFloat32(t *testing.T) {
	a := []float32{-2, 0.2, 0.7, 0.8}
	b := []float32{0.1, 0.2, 0.3, 0.5}
	out := make([]float32, 4)
	AddFloat32(a, b, out, qnn.ActNone)
	assert.InDeltaSlice(t, []float32{-1.9, 0.4, 1.0, 1.3}, out, 1e-6)

	AddFloat32(a, b, out, qnn.ActReluN1To1)
	assert.InDeltaSlice(t, []float32{-1, 0.4, 1, 1}, out, 1e-6)

	a = []float32{-2, 0.2, 0.7, 0.8, 1.1, 2.0}
	out = make([]float32, len(a))
	AddFloat32(a, []float32{0.1}, out, qnn.ActNone)
	assert.InDeltaSlice(t, []float32{-1.9, 0.3, 0.8, 0.9, 1.2, 2.1}, out, 1e-6)
}

func TestAddFloat32Broadcast(t *testing.T) {
	a := []float32{-0.3, 2.3, 0.9, 0.5, 0.8, -1.1, 1.2, 2.8, -1.6, 0.0, 0.7, -2.2}
	b := []float32{0.2, 0.3, -0.4, 0.5, 1.0, 0.9}
	as := qnn.Shape4{N: 2, H: 3, W: 1, C: 2}

	tests := []struct {
		bs   qnn.Shape4
		want []float32
	}{
		{
			bs: qnn.Shape4{N: 1, H: 1, W: 3, C: 2},
			want: []float32{-0.1, 2.6, -0.7, 2.8, 0.7, 3.2, 1.1, 0.8, 0.5, 1.0, 1.9, 1.4,
				1.0, -0.8, 0.4, -0.6, 1.8, -0.2, 1.4, 3.1, 0.8, 3.3, 2.2, 3.7,
				-1.4, 0.3, -2.0, 0.5, -0.6, 0.9, 0.9, -1.9, 0.3, -1.7, 1.7, -1.3},
		},
		{
			bs:   qnn.Shape4{N: 1, H: 3, W: 1, C: 2},
			want: []float32{-0.1, 2.6, 0.5, 1.0, 1.8, -0.2, 1.4, 3.1, -2.0, 0.5, 1.7, -1.3},
		},
		{
			bs: qnn.Shape4{N: 2, H: 1, W: 3, C: 1},
			want: []float32{-0.1, 2.5, 0.0, 2.6, -0.7, 1.9, 1.1, 0.7, 1.2, 0.8, 0.5, 0.1,
				1.0, -0.9, 1.1, -0.8, 0.4, -1.5, 1.7, 3.3, 2.2, 3.8, 2.1, 3.7,
				-1.1, 0.5, -0.6, 1.0, -0.7, 0.9, 1.2, -1.7, 1.7, -1.2, 1.6, -1.3},
		},
		{
			bs:   qnn.Shape4{N: 2, H: 3, W: 1, C: 1},
			want: []float32{-0.1, 2.5, 1.2, 0.8, 0.4, -1.5, 1.7, 3.3, -0.6, 1.0, 1.6, -1.3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.bs.String(), func(t *testing.T) {
			shape, ok := BroadcastShape(as, tt.bs)
			require.True(t, ok)
			require.Equal(t, len(tt.want), shape.Size())
			out := make([]float32, shape.Size())
			got := AddFloat32Broadcast(as, a, tt.bs, b, out, qnn.ActNone)
			assert.Equal(t, shape, got)
			assert.InDeltaSlice(t, tt.want, out, 1e-5)
		})
	}
}

func TestBroadcastShapeRejectsMismatch(t *testing.T) {
	_, ok := BroadcastShape(qnn.Shape4{N: 1, H: 2, W: 3, C: 4}, qnn.Shape4{N: 1, H: 3, W: 3, C: 4})
	assert.False(t, ok)
	assert.Panics(t, func() {
		AddFloat32Broadcast(qnn.Shape4{N: 1, H: 1, W: 1, C: 2}, []float32{1, 2},
			qnn.Shape4{N: 1, H: 1, W: 1, C: 3}, []float32{1, 2, 3}, make([]float32, 3), qnn.ActNone)
	})
}

func BenchmarkAddInt8Quantized(b *testing.B) {
	p := NewAddParams(qnn.Int8, qnn.ActNone, 0.1, -9, 0.05, 5, 0.1, 14)
	x, y, out := make([]int8, 4096), make([]int8, 4096), make([]int8, 4096)
	for i := range x {
		x[i], y[i] = int8(i), int8(i*7)
	}
	b.SetBytes(int64(len(x)))
	for b.Loop() {
		AddInt8Quantized(&p, x, y, out)
	}
}

func TestMulFloat32(t *testing.T) {
	out := make([]float32, 4)
	MulFloat32([]float32{1, -2, 3, 0.5}, []float32{2, 2, -1, 4}, out, qnn.ActNone)
	assert.Equal(t, []float32{2, -4, -3, 2}, out)

	MulFloat32([]float32{1, -2, 3, 0.5}, []float32{0.5}, out, qnn.ActRelu)
	assert.Equal(t, []float32{0.5, 0, 1.5, 0.25}, out)
}
