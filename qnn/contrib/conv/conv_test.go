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

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/qnnkit/qnn/qnn"
)

var (
	simpleInput  = []float32{1, 1, 1, 1, 2, 2, 2, 2, 1, 2, 3, 4, 1, 2, 3, 4}
	simpleFilter = []float32{1, 2, 3, 4, -1, 1, -1, 1, -1, -1, 1, 1}
	simpleParams = Params{
		Input:       qnn.Shape4{N: 2, H: 2, W: 4, C: 1},
		OutChannels: 3,
		KernelH:     2,
		KernelW:     2,
		StrideH:     2,
		StrideW:     2,
		Padding:     qnn.PaddingValid,
	}
	pointwiseInput  = []float32{1, 1, 1, 1, 2, 2, 2, 2, 1, 2, 3, 4, 1, 2, 3, 4}
	pointwiseParams = Params{
		Input:       qnn.Shape4{N: 1, H: 2, W: 2, C: 4},
		OutChannels: 3,
		KernelH:     1,
		KernelW:     1,
		StrideH:     1,
		StrideW:     1,
	}
)

type goldenCase struct {
	name   string
	params Params
	input  []float32
	filter []float32
	bias   []float32
	act    qnn.Activation
	golden []float32

	inScale, outScale float64
	inZP, outZP       int32
}

func goldenCases() []goldenCase {
	dilated := simpleParams
	dilated.Input = qnn.Shape4{N: 2, H: 4, W: 6, C: 1}
	dilated.DilationH, dilated.DilationW = 2, 3
	dilated.OutputH, dilated.OutputW = 2, 2

	sameWH := simpleParams
	sameWH.KernelH, sameWH.KernelW = 2, 4
	sameWH.OutChannels = 1

	return []goldenCase{
		{
			name:   "simple",
			params: simpleParams,
			input:  simpleInput, filter: simpleFilter, bias: []float32{1, 2, 3},
			golden:  []float32{18, 2, 5, 18, 2, 5, 17, 4, 3, 37, 4, 3},
			inScale: 0.5, outScale: 1,
		},
		{
			name:   "input and filter same width height",
			params: sameWH,
			input:  simpleInput, filter: []float32{1, 2, 3, 4, -1, -1, 1, 1}, bias: []float32{0},
			golden:  []float32{10, 34},
			inScale: 0.5, outScale: 1,
		},
		{
			name:   "dilated",
			params: dilated,
			input: []float32{
				1, 1, 1, 1, 1, 1, 2, 2, 2, 2, 2, 2, 3, 3, 3, 3, 3, 3, 4, 4, 4, 4, 4, 4,
				1, 2, 3, 4, 5, 6, 2, 6, 2, 4, 4, 2, 3, 2, 6, 5, 1, 4, 1, 2, 1, 4, 6, 3,
			},
			filter: simpleFilter, bias: []float32{1, 2, 3},
			golden:  []float32{25, 2, 7, 25, 2, 7, 10, 2, -3, 10, 2, -3, 39, 7, 6, 50, 3, 4, 14, 4, -5, 15, 0, -7},
			inScale: 0.5, outScale: 1,
		},
		{
			name:   "relu6",
			params: simpleParams,
			input:  simpleInput, filter: simpleFilter, bias: []float32{1, 2, -3},
			act:     qnn.ActRelu6,
			golden:  []float32{6, 2, 0, 6, 2, 0, 6, 4, 0, 6, 4, 0},
			inScale: 0.023529, outScale: 0.023529, inZP: -128, outZP: -128,
		},
		{
			name:   "pointwise",
			params: pointwiseParams,
			input:  pointwiseInput, filter: simpleFilter, bias: []float32{1, 2, 3},
			golden:  []float32{11, 2, 3, 21, 2, 3, 31, 4, 7, 31, 4, 7},
			inScale: 0.5, outScale: 1,
		},
		{
			name:   "pointwise relu6",
			params: pointwiseParams,
			input:  pointwiseInput, filter: simpleFilter, bias: []float32{1, 2, -3},
			act:     qnn.ActRelu6,
			golden:  []float32{6, 2, 0, 6, 2, 0, 6, 4, 1, 6, 4, 1},
			inScale: 0.023529, outScale: 0.023529, inZP: -128, outZP: -128,
		},
	}
}

func TestFloat32Golden(t *testing.T) {
	for _, tt := range goldenCases() {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.params
			got := make([]float32, p.Output().Size())
			require.Len(t, got, len(tt.golden))
			require.NoError(t, Float32(&p, tt.input, tt.filter, tt.bias, got, tt.act))
			for i := range got {
				if math.Abs(float64(got[i]-tt.golden[i])) > 1e-5 {
					t.Errorf("index %d: got %f, want %f", i, got[i], tt.golden[i])
				}
			}
		})
	}
}

// quantizeCase builds symmetric per-channel int8 operands for a float case.
func quantizeCase(tt goldenCase) (input, filter []int8, bias []int32, q qnn.PerChannelQuant, golden []int8) {
	input = make([]int8, len(tt.input))
	for i, v := range tt.input {
		input[i] = int8(qnn.Quantize(float64(v), tt.inScale, tt.inZP, qnn.Int8))
	}
	filter, scales := qnn.QuantizeFilterPerChannel(tt.filter, tt.params.OutChannels)
	bias = qnn.QuantizeBias(tt.bias, tt.inScale, scales)
	mult, shift := qnn.PerChannelScales(tt.inScale, scales, tt.outScale)
	lo, hi := qnn.ActivationRange(tt.act, qnn.Int8, tt.outScale, tt.outZP)
	q = qnn.PerChannelQuant{
		InputOffset:  -tt.inZP,
		OutputOffset: tt.outZP,
		Multiplier:   mult,
		Shift:        shift,
		ActMin:       lo,
		ActMax:       hi,
	}
	golden = make([]int8, len(tt.golden))
	for i, v := range tt.golden {
		golden[i] = int8(qnn.Clamp(qnn.Quantize(float64(v), tt.outScale, tt.outZP, qnn.Int8), lo, hi))
	}
	return input, filter, bias, q, golden
}

func TestInt8PerChannelGolden(t *testing.T) {
	for _, tt := range goldenCases() {
		t.Run(tt.name, func(t *testing.T) {
			input, filter, bias, q, golden := quantizeCase(tt)
			p := tt.params
			g := p.Geometry()

			run := func(name string, fn func(out []int8) error) {
				got := make([]int8, len(golden))
				require.NoError(t, fn(got), name)
				for i := range got {
					if d := int(got[i]) - int(golden[i]); d < -1 || d > 1 {
						t.Errorf("%s index %d: got %d, want %d", name, i, got[i], golden[i])
					}
				}
			}

			run("dispatch", func(out []int8) error {
				return Int8(&p, input, filter, bias, out, &q, qnn.NewDefaultArena())
			})
			for _, s := range Strategies {
				if !s.Supports(&g) {
					continue
				}
				run(s.Name(), func(out []int8) error {
					return RunInt8(s, &p, input, filter, bias, out, &q, nil)
				})
			}
		})
	}
}

func TestInt16PerChannelRelu6(t *testing.T) {
	tt := goldenCases()[3]
	const scale = 0.023529

	input := make([]int16, len(tt.input))
	for i, v := range tt.input {
		input[i] = int16(qnn.Quantize(float64(v), scale, 0, qnn.Int16))
	}
	filter, scales := qnn.QuantizeFilterPerChannel(tt.filter, 3)
	bias32 := qnn.QuantizeBias(tt.bias, scale, scales)
	bias64 := make([]int64, len(bias32))
	for i, b := range bias32 {
		bias64[i] = int64(b)
	}
	mult, shift := qnn.PerChannelScales(scale, scales, scale)
	lo, hi := qnn.ActivationRange(qnn.ActRelu6, qnn.Int16, scale, 0)
	q := qnn.PerChannelQuant{Multiplier: mult, Shift: shift, ActMin: lo, ActMax: hi}

	p := simpleParams
	got32 := make([]int16, 12)
	got64 := make([]int16, 12)
	require.NoError(t, Int16(&p, input, filter, bias32, got32, &q))
	require.NoError(t, Int16(&p, input, filter, bias64, got64, &q))
	if diff := cmp.Diff(got32, got64); diff != "" {
		t.Errorf("int32 and int64 bias disagree (-32 +64):\n%s", diff)
	}
	for i, v := range tt.golden {
		want := qnn.Clamp(qnn.Quantize(float64(v), scale, 0, qnn.Int16), lo, hi)
		if d := int32(got64[i]) - want; d < -1 || d > 1 {
			t.Errorf("index %d: got %d, want %d", i, got64[i], want)
		}
	}
}

func TestInt8PackedInt4(t *testing.T) {
	// Filter values are small integers, so a unit filter scale represents
	// them exactly in 4 bits.
	tt := goldenCases()[0]
	input := make([]int8, len(tt.input))
	for i, v := range tt.input {
		input[i] = int8(qnn.Quantize(float64(v), 0.5, 0, qnn.Int8))
	}
	raw := make([]int8, len(tt.filter))
	for i, v := range tt.filter {
		raw[i] = int8(v)
	}
	scales := []float64{1, 1, 1}
	mult, shift := qnn.PerChannelScales(0.5, scales, 1)
	q := qnn.PerChannelQuant{Multiplier: mult, Shift: shift, ActMin: -128, ActMax: 127}
	bias := qnn.QuantizeBias(tt.bias, 0.5, scales)

	p := tt.params
	want := make([]int8, 12)
	require.NoError(t, Int8(&p, input, raw, bias, want, &q, nil))

	got := make([]int8, 12)
	require.NoError(t, Int8PackedInt4(&p, input, qnn.PackInt4(raw), bias, got, &q, qnn.NewArena(1024)))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("int4 filter mismatch (-int8 +int4):\n%s", diff)
	}
	for i, v := range tt.golden {
		if int(got[i]) != int(v) {
			t.Errorf("index %d: got %d, want %v", i, got[i], v)
		}
	}

	// Not even the unpacked filter fits.
	out := []int8{9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9}
	err := Int8PackedInt4(&p, input, qnn.PackInt4(raw), bias, out, &q, qnn.NewArena(8))
	require.ErrorIs(t, err, qnn.ErrWorkingSetTooLarge)
	for i, v := range out {
		require.Equal(t, int8(9), v, "index %d written on failure", i)
	}
}

type randomConv struct {
	p      Params
	input  []int8
	filter []int8
	bias   []int32
	q      qnn.PerChannelQuant
}

func newRandomConv(r *rand.Rand, p Params) randomConv {
	g := p.Geometry()
	c := randomConv{
		p:      p,
		input:  make([]int8, g.In.Size()),
		filter: make([]int8, g.FilterSize()),
		bias:   make([]int32, g.Out.C),
	}
	for i := range c.input {
		c.input[i] = int8(r.IntN(256) - 128)
	}
	for i := range c.filter {
		c.filter[i] = int8(r.IntN(255) - 127)
	}
	for i := range c.bias {
		c.bias[i] = r.Int32N(20000) - 10000
	}
	c.q = qnn.PerChannelQuant{
		InputOffset:  r.Int32N(256) - 127,
		OutputOffset: r.Int32N(41) - 20,
		Multiplier:   make([]int32, g.Out.C),
		Shift:        make([]int32, g.Out.C),
		ActMin:       -128,
		ActMax:       127,
	}
	if r.IntN(4) == 0 {
		c.q.FilterOffset = r.Int32N(11) - 5
	}
	if r.IntN(3) == 0 {
		c.q.ActMin = c.q.OutputOffset
	}
	for i := range c.q.Multiplier {
		c.q.Multiplier[i] = 1<<30 + r.Int32N(1<<30)
		c.q.Shift[i] = -r.Int32N(8) - 6
	}
	return c
}

func randomParams(r *rand.Rand) Params {
	k := []int{1, 2, 3, 3, 3, 4, 5}[r.IntN(7)]
	kw := k
	if r.IntN(4) == 0 {
		kw = 1 + r.IntN(5)
	}
	p := Params{
		KernelH:     k,
		KernelW:     kw,
		StrideH:     1 + r.IntN(3),
		StrideW:     1 + r.IntN(3),
		DilationH:   1,
		DilationW:   1,
		Padding:     qnn.Padding(r.IntN(2)),
		OutChannels: 1 + r.IntN(9),
	}
	if r.IntN(2) == 0 {
		p.StrideW = p.StrideH
	}
	if r.IntN(5) == 0 {
		p.DilationH, p.DilationW = 1+r.IntN(2), 1+r.IntN(3)
	}
	effH := qnn.EffectiveKernel(p.KernelH, p.DilationH)
	effW := qnn.EffectiveKernel(p.KernelW, p.DilationW)
	p.Input = qnn.Shape4{
		N: 1 + r.IntN(2),
		H: effH + r.IntN(7),
		W: effW + r.IntN(7),
		C: 1 + r.IntN(10),
	}
	return p
}

func TestStrategiesMatchGeneric(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 7))
	hits := map[string]int{}
	arena := qnn.NewArena(1 << 20)

	params := make([]Params, 0, 400)
	for range 300 {
		params = append(params, randomParams(r))
	}
	// Make sure every fixed-shape variant sees odd and even sizes.
	for _, hw := range [][2]int{{3, 3}, {4, 5}, {7, 6}, {8, 8}, {9, 4}} {
		for _, v := range []struct {
			s   int
			pad qnn.Padding
		}{{1, qnn.PaddingSame}, {1, qnn.PaddingValid}, {2, qnn.PaddingValid}} {
			params = append(params, Params{
				Input:       qnn.Shape4{N: 1, H: hw[0], W: hw[1], C: 1 + r.IntN(6)},
				OutChannels: 1 + r.IntN(6),
				KernelH:     3,
				KernelW:     3,
				StrideH:     v.s,
				StrideW:     v.s,
				Padding:     v.pad,
			})
		}
	}

	for _, p := range params {
		c := newRandomConv(r, p)
		g := p.Geometry()
		if g.Out.Size() == 0 {
			continue
		}
		want := make([]int8, g.Out.Size())
		require.NoError(t, RunInt8(Generic, &p, c.input, c.filter, c.bias, want, &c.q, nil))

		for _, s := range Strategies {
			if s == Generic || !s.Supports(&g) {
				continue
			}
			hits[s.Name()]++
			got := make([]int8, len(want))
			require.NoError(t, RunInt8(s, &p, c.input, c.filter, c.bias, got, &c.q, arena))
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("%s differs from generic for %v (-generic +%s):\n%s", s.Name(), &g, s.Name(), diff)
			}
		}
	}

	for _, s := range Strategies {
		if s != Generic && hits[s.Name()] == 0 {
			t.Errorf("strategy %s never exercised", s.Name())
		}
	}
}

func TestPaddingParityMaterializedMatchesVirtual(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 5))
	for _, tc := range []struct {
		name   string
		h, w   int
		kh, kw int
		s      int
	}{
		{"even total both", 5, 5, 3, 3, 1},
		{"odd total both", 4, 4, 2, 2, 1},
		{"odd rows even cols", 4, 5, 2, 3, 1},
		{"even rows odd cols", 6, 4, 3, 4, 1},
		{"strided odd", 6, 6, 3, 3, 2},
		{"strided even", 7, 7, 5, 5, 2},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p := Params{
				Input:       qnn.Shape4{N: 1, H: tc.h, W: tc.w, C: 3},
				OutChannels: 4,
				KernelH:     tc.kh,
				KernelW:     tc.kw,
				StrideH:     tc.s,
				StrideW:     tc.s,
				Padding:     qnn.PaddingSame,
			}
			c := newRandomConv(r, p)
			want := make([]int8, p.Output().Size())
			got := make([]int8, len(want))
			require.NoError(t, RunInt8(Generic, &p, c.input, c.filter, c.bias, want, &c.q, nil))
			require.NoError(t, RunInt8(Materialized, &p, c.input, c.filter, c.bias, got, &c.q, nil))
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("materialized differs (-virtual +materialized):\n%s", diff)
			}
		})
	}
}

func TestMaterializedWorkingSetTooLarge(t *testing.T) {
	p := Params{
		Input:       qnn.Shape4{N: 1, H: 16, W: 16, C: 8},
		OutChannels: 8,
		KernelH:     3,
		KernelW:     3,
		Padding:     qnn.PaddingSame,
	}
	c := newRandomConv(rand.New(rand.NewPCG(1, 1)), p)
	out := make([]int8, p.Output().Size())
	for i := range out {
		out[i] = 55
	}
	err := RunInt8(Materialized, &p, c.input, c.filter, c.bias, out, &c.q, qnn.NewArena(256))
	require.ErrorIs(t, err, qnn.ErrWorkingSetTooLarge)
	for i, v := range out {
		if v != 55 {
			t.Fatalf("index %d written on failure", i)
		}
	}

	// Dispatch falls back instead of failing.
	g := p.Geometry()
	require.Equal(t, "conv3x3_s1_same", Select(&g, 256).Name())
	require.NoError(t, Int8(&p, c.input, c.filter, c.bias, out, &c.q, qnn.NewArena(256)))
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name   string
		p      Params
		budget int
		want   string
	}{
		{"1x1", pointwiseParams, 0, "pointwise"},
		{"3x3 same", Params{Input: qnn.Shape4{N: 1, H: 8, W: 8, C: 2}, OutChannels: 2, KernelH: 3, KernelW: 3, Padding: qnn.PaddingSame}, 0, "conv3x3_s1_same"},
		{"3x3 valid", Params{Input: qnn.Shape4{N: 1, H: 8, W: 8, C: 2}, OutChannels: 2, KernelH: 3, KernelW: 3}, 0, "conv3x3_s1_valid"},
		{"3x3 s2 valid", Params{Input: qnn.Shape4{N: 1, H: 9, W: 9, C: 2}, OutChannels: 2, KernelH: 3, KernelW: 3, StrideH: 2, StrideW: 2}, 0, "conv3x3_s2_valid"},
		{"2x2 fits", simpleParams, 1 << 16, "materialized"},
		{"2x2 does not fit", simpleParams, 16, "generic"},
		{"dilated", Params{Input: qnn.Shape4{N: 1, H: 8, W: 8, C: 2}, OutChannels: 2, KernelH: 3, KernelW: 3, DilationH: 2, DilationW: 2}, 1 << 16, "generic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := tt.p.Geometry()
			if got := Select(&g, tt.budget).Name(); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRunRejectsUnsupportedTypes(t *testing.T) {
	p := simpleParams
	q := qnn.PerChannelQuant{Multiplier: []int32{1 << 30, 1 << 30, 1 << 30}, Shift: []int32{1, 1, 1}, ActMin: -128, ActMax: 127}
	tests := []struct {
		name string
		ops  Operands
		want qnn.DType
	}{
		{"int16 input with int4 filter", Operands{Input: make([]int16, 16), Filter: make(qnn.PackedInt4, 6), Output: make([]int16, 12)}, qnn.Int4},
		{"float input with int8 filter", Operands{Input: make([]float32, 16), Filter: make([]int8, 12), Output: make([]float32, 12)}, qnn.Int8},
		{"int8 input with int64 bias", Operands{Input: make([]int8, 16), Filter: make([]int8, 12), Bias: make([]int64, 3), Output: make([]int8, 12)}, qnn.Int64},
		{"int8 input with int16 output", Operands{Input: make([]int8, 16), Filter: make([]int8, 12), Output: make([]int16, 12)}, qnn.Int16},
		{"int32 input", Operands{Input: make([]int32, 16), Filter: make([]int8, 12), Output: make([]int32, 12)}, qnn.Int32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.ops.Quant = &q
			err := Run(&p, tt.ops, nil)
			require.ErrorIs(t, err, qnn.ErrUnsupportedType)
			var qe *qnn.Error
			require.True(t, errors.As(err, &qe))
			require.Equal(t, tt.want, qe.DType)
		})
	}

	// Supported combinations go through.
	out := make([]float32, 12)
	require.NoError(t, Run(&p, Operands{Input: simpleInput, Filter: simpleFilter, Bias: []float32{1, 2, 3}, Output: out}, nil))
	require.InDelta(t, 37, out[9], 1e-5)
}

func TestTransformWeightsAndPatch(t *testing.T) {
	// Two output channels of a 1x2x2 filter.
	filter := []int8{1, 2, 3, 4, 5, 6, 7, 8}
	dst := make([]int16, len(filter))
	TransformWeights(dst, filter, 2, 1, 2, 2, 1)
	want := []int16{2, 6, 3, 7, 4, 8, 5, 9}
	if diff := cmp.Diff(want, dst); diff != "" {
		t.Errorf("TransformWeights (-want +got):\n%s", diff)
	}

	ps := qnn.Shape4{N: 1, H: 3, W: 3, C: 1}
	padded := []int16{1, 2, 3, 4, 5, 6, 7, 8, 9}
	patch := make([]int16, 4)
	ExtractPatch(patch, padded, ps, 0, 1, 1, 2, 2)
	if diff := cmp.Diff([]int16{5, 6, 8, 9}, patch); diff != "" {
		t.Errorf("ExtractPatch (-want +got):\n%s", diff)
	}
}

func BenchmarkInt8Strategies(b *testing.B) {
	p := Params{
		Input:       qnn.Shape4{N: 1, H: 25, W: 5, C: 64},
		OutChannels: 64,
		KernelH:     3,
		KernelW:     3,
		Padding:     qnn.PaddingSame,
	}
	c := newRandomConv(rand.New(rand.NewPCG(9, 9)), p)
	out := make([]int8, p.Output().Size())
	arena := qnn.NewArena(1 << 20)
	g := p.Geometry()
	for _, s := range Strategies {
		if !s.Supports(&g) {
			continue
		}
		b.Run(s.Name(), func(b *testing.B) {
			for b.Loop() {
				_ = RunInt8(s, &p, c.input, c.filter, c.bias, out, &c.q, arena)
			}
		})
	}
}
