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

import (
	"math"
	"math/bits"
)

// MultiplyByQuantizedMultiplier returns
//
//	round_half_away_from_zero(x * multiplier * 2^(shift-31))
//
// saturated to int32. The product is formed exactly in 64 bits and rounded
// once.
func MultiplyByQuantizedMultiplier(x, multiplier, shift int32) int32 {
	p := int64(x) * int64(multiplier)
	return SaturateInt32(RoundingShiftRight(p, 31-int(shift)))
}

// MultiplyByQuantizedMultiplier64 is MultiplyByQuantizedMultiplier for
// int64 accumulators. The product is formed in 128 bits.
func MultiplyByQuantizedMultiplier64(x int64, multiplier, shift int32) int32 {
	neg := (x < 0) != (multiplier < 0)
	hi, lo := bits.Mul64(absU64(x), absU64(int64(multiplier)))

	s := 31 - int(shift)
	if s <= 0 {
		l := uint(-s)
		switch {
		case hi != 0:
			return saturateMag(neg, 1, 0)
		case l >= 64:
			if lo != 0 {
				return saturateMag(neg, 1, 0)
			}
			return 0
		case l > 0 && lo>>(64-l) != 0:
			return saturateMag(neg, 1, 0)
		}
		return saturateMag(neg, 0, lo<<l)
	}

	qhi, qlo := shr128(hi, lo, uint(s))
	_, rlo := shr128(hi, lo, uint(s-1))
	var carry uint64
	qlo, carry = bits.Add64(qlo, rlo&1, 0)
	qhi += carry
	return saturateMag(neg, qhi, qlo)
}

// RoundingShiftRight returns round_half_away_from_zero(p / 2^s). A negative
// s shifts left, saturating to the int64 range.
func RoundingShiftRight(p int64, s int) int64 {
	if s <= 0 {
		l := -s
		switch {
		case p == 0:
			return 0
		case l >= 63 || p > math.MaxInt64>>l:
			if p > 0 {
				return math.MaxInt64
			}
			if l >= 63 {
				return math.MinInt64
			}
		}
		if p < math.MinInt64>>l {
			return math.MinInt64
		}
		return p << l
	}

	neg := p < 0
	mag := absU64(p)
	var r uint64
	switch {
	case s > 64:
		r = 0
	case s == 64:
		r = mag >> 63
	default:
		r = mag>>s + (mag>>(s-1))&1
	}
	if neg {
		return -int64(r)
	}
	return int64(r)
}

// SaturatingRoundingDoublingHighMul returns the high 32 bits of 2*a*b with
// rounding, as in gemmlowp.
func SaturatingRoundingDoublingHighMul(a, b int32) int32 {
	if a == b && a == math.MinInt32 {
		return math.MaxInt32
	}
	ab := int64(a) * int64(b)
	nudge := int64(1 << 30)
	if ab < 0 {
		nudge = 1 - (1 << 30)
	}
	return int32((ab + nudge) / (1 << 31))
}

// RoundingDivideByPOT divides by 2^exponent rounding half away from zero.
func RoundingDivideByPOT(x int32, exponent int) int32 {
	if exponent == 0 {
		return x
	}
	mask := int64(1)<<exponent - 1
	remainder := int64(x) & mask
	threshold := mask >> 1
	if x < 0 {
		threshold++
	}
	r := int64(x) >> exponent
	if remainder > threshold {
		r++
	}
	return int32(r)
}

// MultiplyByQuantizedMultiplierDoubleRounding is the two-step form used by
// reference integer inference: a doubling high multiply followed by a
// rounding shift. It can differ from MultiplyByQuantizedMultiplier by one
// at exact halfway points.
func MultiplyByQuantizedMultiplierDoubleRounding(x, multiplier, shift int32) int32 {
	left, right := max(shift, 0), max(-shift, 0)
	scaled := SaturateInt32(int64(x) << left)
	return RoundingDivideByPOT(SaturatingRoundingDoublingHighMul(scaled, multiplier), int(right))
}

// QuantizeMultiplier splits a positive real scale into a Q31 multiplier in
// [2^30, 2^31) and a power-of-two shift such that
// real ≈ multiplier * 2^(shift-31).
func QuantizeMultiplier(real float64) (multiplier, shift int32) {
	if real == 0 {
		return 0, 0
	}
	q, exp := math.Frexp(real)
	qFixed := int64(math.Round(q * (1 << 31)))
	if qFixed == 1<<31 {
		qFixed /= 2
		exp++
	}
	if exp < -31 {
		return 0, 0
	}
	if exp > 30 {
		return math.MaxInt32, 30
	}
	return int32(qFixed), int32(exp)
}

// QuantizeMultiplierGreaterThanOne is QuantizeMultiplier for real > 1. The
// returned shift is a non-negative left shift.
func QuantizeMultiplierGreaterThanOne(real float64) (multiplier, leftShift int32) {
	if real <= 1 {
		panic("qnn: QuantizeMultiplierGreaterThanOne needs real > 1")
	}
	return QuantizeMultiplier(real)
}

func absU64(x int64) uint64 {
	if x < 0 {
		return uint64(-x)
	}
	return uint64(x)
}

// shr128 shifts the 128-bit value hi:lo right by s.
func shr128(hi, lo uint64, s uint) (uint64, uint64) {
	switch {
	case s == 0:
		return hi, lo
	case s >= 128:
		return 0, 0
	case s >= 64:
		return 0, hi >> (s - 64)
	default:
		return hi >> s, lo>>s | hi<<(64-s)
	}
}

// saturateMag applies sign to a 128-bit magnitude and saturates to int32.
func saturateMag(neg bool, hi, lo uint64) int32 {
	if neg {
		if hi != 0 || lo >= 1<<31 {
			return math.MinInt32
		}
		return int32(-int64(lo))
	}
	if hi != 0 || lo > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(lo)
}
