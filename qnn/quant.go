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

import "math"

// Requant reduces an accumulator to an output value with a single
// multiplier/shift pair.
type Requant struct {
	Multiplier   int32
	Shift        int32
	OutputOffset int32
	ActMin       int32
	ActMax       int32
}

// Apply returns clamp(MultiplyByQuantizedMultiplier(acc) + OutputOffset).
func (r Requant) Apply(acc int32) int32 {
	return offsetClamp(MultiplyByQuantizedMultiplier(acc, r.Multiplier, r.Shift), r.OutputOffset, r.ActMin, r.ActMax)
}

// Apply64 is Apply for int64 accumulators.
func (r Requant) Apply64(acc int64) int32 {
	return offsetClamp(MultiplyByQuantizedMultiplier64(acc, r.Multiplier, r.Shift), r.OutputOffset, r.ActMin, r.ActMax)
}

// Bounded returns r with the activation range narrowed to dt.
func (r Requant) Bounded(dt DType) Requant {
	lo, hi := dt.Range()
	r.ActMin = max(r.ActMin, lo)
	r.ActMax = min(r.ActMax, hi)
	return r
}

// PerChannelQuant carries the quantization parameters of a convolution.
//
// InputOffset is added to every input value (minus the input zero point).
// FilterOffset is added to every weight and is 0 for symmetric filters.
// OutputOffset is the output zero point. Multiplier and Shift hold one
// entry per output channel.
type PerChannelQuant struct {
	InputOffset  int32
	FilterOffset int32
	OutputOffset int32
	Multiplier   []int32
	Shift        []int32
	ActMin       int32
	ActMax       int32
}

// Requantize reduces the accumulator of output channel c.
func (q *PerChannelQuant) Requantize(acc int32, c int) int32 {
	return offsetClamp(MultiplyByQuantizedMultiplier(acc, q.Multiplier[c], q.Shift[c]), q.OutputOffset, q.ActMin, q.ActMax)
}

// Requantize64 is Requantize for int64 accumulators.
func (q *PerChannelQuant) Requantize64(acc int64, c int) int32 {
	return offsetClamp(MultiplyByQuantizedMultiplier64(acc, q.Multiplier[c], q.Shift[c]), q.OutputOffset, q.ActMin, q.ActMax)
}

// Bounded returns a copy of q with the activation range narrowed to dt.
func (q *PerChannelQuant) Bounded(dt DType) PerChannelQuant {
	b := *q
	lo, hi := dt.Range()
	b.ActMin = max(b.ActMin, lo)
	b.ActMax = min(b.ActMax, hi)
	return b
}

func offsetClamp(r, offset, lo, hi int32) int32 {
	return int32(Clamp(int64(r)+int64(offset), int64(lo), int64(hi)))
}

// PerChannelScales derives the per-channel multiplier and shift for
// effective scale inputScale*filterScale[c]/outputScale.
func PerChannelScales(inputScale float64, filterScales []float64, outputScale float64) (multiplier, shift []int32) {
	multiplier = make([]int32, len(filterScales))
	shift = make([]int32, len(filterScales))
	for c, fs := range filterScales {
		multiplier[c], shift[c] = QuantizeMultiplier(inputScale * fs / outputScale)
	}
	return multiplier, shift
}

// ActivationRange returns the quantized clamp bounds of a fused activation
// for an output with the given scale and zero point.
func ActivationRange(act Activation, dt DType, scale float64, zeroPoint int32) (lo, hi int32) {
	lo, hi = dt.Range()
	q := func(x float64) int32 {
		return zeroPoint + int32(math.Round(x/scale))
	}
	switch act {
	case ActRelu:
		lo = max(lo, q(0))
	case ActRelu6:
		lo = max(lo, q(0))
		hi = min(hi, q(6))
	case ActReluN1To1:
		lo = max(lo, q(-1))
		hi = min(hi, q(1))
	}
	return lo, hi
}

// ActivationRangeFloat returns the float clamp bounds of a fused activation.
func ActivationRangeFloat(act Activation) (lo, hi float32) {
	switch act {
	case ActRelu:
		return 0, math.MaxFloat32
	case ActRelu6:
		return 0, 6
	case ActReluN1To1:
		return -1, 1
	default:
		return -math.MaxFloat32, math.MaxFloat32
	}
}

// Quantize maps x to dt with the given scale and zero point, rounding half
// away from zero and saturating.
func Quantize(x, scale float64, zeroPoint int32, dt DType) int32 {
	lo, hi := dt.Range()
	v := math.Round(x/scale) + float64(zeroPoint)
	return int32(Clamp(v, float64(lo), float64(hi)))
}

// Dequantize maps q back to a real value.
func Dequantize(q int32, scale float64, zeroPoint int32) float64 {
	return float64(q-zeroPoint) * scale
}

// QuantizeFilterPerChannel quantizes a (Cout, ...) float filter to int8
// symmetrically per output channel, with scale max|f|/127.
func QuantizeFilterPerChannel(f []float32, cout int) (q []int8, scales []float64) {
	per := len(f) / cout
	q = make([]int8, len(f))
	scales = make([]float64, cout)
	for c := range cout {
		ch := f[c*per : (c+1)*per]
		var m float64
		for _, v := range ch {
			m = max(m, math.Abs(float64(v)))
		}
		scales[c] = m / 127
		if m == 0 {
			scales[c] = 1
		}
		for i, v := range ch {
			q[c*per+i] = int8(Quantize(float64(v), scales[c], 0, Int8))
		}
	}
	return q, scales
}

// QuantizeBias quantizes a float bias to int32 with scale
// inputScale*filterScale[c].
func QuantizeBias(b []float32, inputScale float64, filterScales []float64) []int32 {
	q := make([]int32, len(b))
	for c, v := range b {
		q[c] = int32(math.Round(float64(v) / (inputScale * filterScales[c])))
	}
	return q
}

// QuantizeBias64 is QuantizeBias for the int64 bias of int16 layers.
func QuantizeBias64(b []float32, inputScale float64, filterScales []float64) []int64 {
	q := make([]int64, len(b))
	for c, v := range b {
		q[c] = int64(math.Round(float64(v) / (inputScale * filterScales[c])))
	}
	return q
}

// ChooseEncoding picks a scale and zero point covering [lo, hi] in dt. The
// range is widened to include zero so that zero is exact. Int8 encodings
// are asymmetric; int16 encodings are symmetric with zero point 0.
func ChooseEncoding(lo, hi float64, dt DType) (scale float64, zeroPoint int32) {
	lo, hi = min(lo, 0), max(hi, 0)
	qmin, qmax := dt.Range()
	if dt == Int16 {
		m := max(-lo, hi)
		if m == 0 {
			return 1, 0
		}
		return m / float64(qmax), 0
	}
	if hi == lo {
		return 1, 0
	}
	scale = (hi - lo) / float64(qmax-qmin)
	zp := math.Round(float64(qmin) - lo/scale)
	return scale, int32(Clamp(zp, float64(qmin), float64(qmax)))
}
