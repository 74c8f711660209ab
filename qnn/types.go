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

import "fmt"

// DType identifies the element type of a tensor operand.
type DType int

const (
	Float32 DType = iota
	Int4
	Int8
	Int16
	Int32
	Int64
)

func (d DType) String() string {
	switch d {
	case Float32:
		return "float32"
	case Int4:
		return "int4"
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	default:
		return fmt.Sprintf("DType(%d)", int(d))
	}
}

// Range returns the representable range of an integer dtype. Float32
// returns the full int32 range so it never narrows a clamp.
func (d DType) Range() (lo, hi int32) {
	switch d {
	case Int4:
		return -8, 7
	case Int8:
		return -128, 127
	case Int16:
		return -32768, 32767
	default:
		return -1 << 31, 1<<31 - 1
	}
}

// Padding selects how output size and border are derived.
type Padding int

const (
	// PaddingValid uses only in-bounds windows.
	PaddingValid Padding = iota
	// PaddingSame produces ceil(in/stride) outputs per spatial dimension.
	PaddingSame
)

func (p Padding) String() string {
	if p == PaddingSame {
		return "same"
	}
	return "valid"
}

// Activation is a fused activation applied by clamping.
type Activation int

const (
	ActNone Activation = iota
	ActRelu
	ActReluN1To1
	ActRelu6
	// ActTanh and ActLogistic are only meaningful for float activation calls.
	ActTanh
	ActLogistic
)

func (a Activation) String() string {
	switch a {
	case ActNone:
		return "none"
	case ActRelu:
		return "relu"
	case ActReluN1To1:
		return "relu_n1_to_1"
	case ActRelu6:
		return "relu6"
	case ActTanh:
		return "tanh"
	case ActLogistic:
		return "logistic"
	default:
		return fmt.Sprintf("Activation(%d)", int(a))
	}
}

// Shape4 holds NHWC dimensions.
type Shape4 struct {
	N, H, W, C int
}

// Size returns the element count.
func (s Shape4) Size() int {
	return s.N * s.H * s.W * s.C
}

// Offset returns the flat index of (n, y, x, c).
func (s Shape4) Offset(n, y, x, c int) int {
	return ((n*s.H+y)*s.W+x)*s.C + c
}

func (s Shape4) String() string {
	return fmt.Sprintf("[%d %d %d %d]", s.N, s.H, s.W, s.C)
}

// PackedInt4 holds signed 4-bit values two per byte, low nibble first.
// See UnpackInt4.
type PackedInt4 []int8

// DTypeOf returns the dtype of a tensor slice.
func DTypeOf(v any) (DType, bool) {
	switch v.(type) {
	case []float32:
		return Float32, true
	case PackedInt4:
		return Int4, true
	case []int8:
		return Int8, true
	case []int16:
		return Int16, true
	case []int32:
		return Int32, true
	case []int64:
		return Int64, true
	default:
		return 0, false
	}
}
