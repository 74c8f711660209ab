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

package nn

import (
	"fmt"

	"github.com/qnnkit/qnn/qnn"
)

// Tensor is an NHWC activation. Data is []float32, []int8 or []int16.
type Tensor struct {
	Shape qnn.Shape4
	Data  any
}

// NewTensor allocates a zeroed tensor.
func NewTensor(s qnn.Shape4, dt qnn.DType) (Tensor, error) {
	n := s.Size()
	switch dt {
	case qnn.Float32:
		return Tensor{Shape: s, Data: make([]float32, n)}, nil
	case qnn.Int8:
		return Tensor{Shape: s, Data: make([]int8, n)}, nil
	case qnn.Int16:
		return Tensor{Shape: s, Data: make([]int16, n)}, nil
	default:
		return Tensor{}, qnn.Unsupported("nn.NewTensor", dt)
	}
}

// DType returns the element type of t.
func (t Tensor) DType() qnn.DType {
	dt, ok := qnn.DTypeOf(t.Data)
	if !ok {
		return qnn.DType(-1)
	}
	return dt
}

// Len returns the number of elements in Data.
func (t Tensor) Len() int {
	switch d := t.Data.(type) {
	case []float32:
		return len(d)
	case []int8:
		return len(d)
	case []int16:
		return len(d)
	default:
		return 0
	}
}

// Float64s dequantizes t with the given encoding. Float tensors are
// returned as is and scale and zeroPoint are ignored.
func (t Tensor) Float64s(scale float64, zeroPoint int32) []float64 {
	out := make([]float64, 0, t.Len())
	switch d := t.Data.(type) {
	case []float32:
		for _, v := range d {
			out = append(out, float64(v))
		}
	case []int8:
		for _, v := range d {
			out = append(out, qnn.Dequantize(int32(v), scale, zeroPoint))
		}
	case []int16:
		for _, v := range d {
			out = append(out, qnn.Dequantize(int32(v), scale, zeroPoint))
		}
	}
	return out
}

func (t Tensor) String() string {
	return fmt.Sprintf("%v %v", t.DType(), t.Shape)
}
