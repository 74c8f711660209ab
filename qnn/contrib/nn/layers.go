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
	"github.com/qnnkit/qnn/qnn/contrib/activation"
	"github.com/qnnkit/qnn/qnn/contrib/conv"
	"github.com/qnnkit/qnn/qnn/contrib/depthwise"
	"github.com/qnnkit/qnn/qnn/contrib/elementwise"
	"github.com/qnnkit/qnn/qnn/contrib/fc"
	"github.com/qnnkit/qnn/qnn/contrib/pool"
)

// ModelInput refers to the model input as the operand of a binary layer.
const ModelInput = -1

// Layer is one kernel call with its constant operands.
type Layer interface {
	// Kind names the operation, e.g. "conv".
	Kind() string

	// Output returns the output shape and type for an input, or an error
	// when no kernel accepts the input type.
	Output(in qnn.Shape4, dt qnn.DType) (qnn.Shape4, qnn.DType, error)

	// Forward reads f.In and writes f.Out.
	Forward(f *Frame) error
}

// Planner is implemented by layers that choose a loop strategy. Plan
// returns the strategy name and the scratch bytes it reserves.
type Planner interface {
	Plan(in qnn.Shape4, dt qnn.DType, budget int) (strategy string, workspace int)
}

// Frame is the state a layer runs against.
type Frame struct {
	In, Out Tensor
	Arena   *qnn.Arena

	// acts holds the model input followed by every finished layer output.
	acts []Tensor
}

// Operand returns the model input for ModelInput, or the output of layer i.
func (f *Frame) Operand(i int) Tensor {
	return f.acts[i+1]
}

// binary is implemented by layers with a second operand.
type binary interface {
	operand() int
}

// Conv is an ordinary 2D convolution. Filter is []int8, qnn.PackedInt4 or
// []float32 in (OutChannels, KernelH, KernelW, Cin) order.
type Conv struct {
	OutChannels      int
	KernelH, KernelW int
	StrideH, StrideW int
	DilationH        int
	DilationW        int
	Padding          qnn.Padding

	Filter     any
	Bias       any
	Quant      *qnn.PerChannelQuant
	Activation qnn.Activation
}

func (l *Conv) Kind() string { return "conv" }

func (l *Conv) params(in qnn.Shape4) conv.Params {
	return conv.Params{
		Input:       in,
		OutChannels: l.OutChannels,
		KernelH:     l.KernelH,
		KernelW:     l.KernelW,
		StrideH:     l.StrideH,
		StrideW:     l.StrideW,
		DilationH:   l.DilationH,
		DilationW:   l.DilationW,
		Padding:     l.Padding,
	}
}

func (l *Conv) Output(in qnn.Shape4, dt qnn.DType) (qnn.Shape4, qnn.DType, error) {
	if err := conv.Validate(dt, operandType(l.Filter), biasType(l.Bias, dt)); err != nil {
		return qnn.Shape4{}, 0, err
	}
	if dt != qnn.Float32 && l.Quant == nil {
		return qnn.Shape4{}, 0, fmt.Errorf("conv: %v input needs Quant", dt)
	}
	p := l.params(in)
	return p.Output(), dt, nil
}

func (l *Conv) Plan(in qnn.Shape4, dt qnn.DType, budget int) (string, int) {
	if dt != qnn.Int8 {
		return "generic", 0
	}
	p := l.params(in)
	g := p.Geometry()
	unpacked := 0
	if _, ok := l.Filter.(qnn.PackedInt4); ok {
		unpacked = qnn.SizeOf(g.FilterSize(), 1)
	}
	s := conv.Select(&g, budget-unpacked)
	return s.Name(), s.Workspace(&g) + unpacked
}

func (l *Conv) Forward(f *Frame) error {
	p := l.params(f.In.Shape)
	return conv.Run(&p, conv.Operands{
		Input:      f.In.Data,
		Filter:     l.Filter,
		Bias:       l.Bias,
		Output:     f.Out.Data,
		Quant:      l.Quant,
		Activation: l.Activation,
	}, f.Arena)
}

// Depthwise is a depthwise convolution. Filter is []int8, qnn.PackedInt4 or
// []float32 in (KernelH, KernelW, Cin*DepthMultiplier) order.
type Depthwise struct {
	DepthMultiplier  int
	KernelH, KernelW int
	StrideH, StrideW int
	DilationH        int
	DilationW        int
	Padding          qnn.Padding

	Filter     any
	Bias       any
	Quant      *qnn.PerChannelQuant
	Activation qnn.Activation
}

func (l *Depthwise) Kind() string { return "depthwise" }

func (l *Depthwise) params(in qnn.Shape4) depthwise.Params {
	return depthwise.Params{
		Input:           in,
		DepthMultiplier: l.DepthMultiplier,
		KernelH:         l.KernelH,
		KernelW:         l.KernelW,
		StrideH:         l.StrideH,
		StrideW:         l.StrideW,
		DilationH:       l.DilationH,
		DilationW:       l.DilationW,
		Padding:         l.Padding,
	}
}

func (l *Depthwise) Output(in qnn.Shape4, dt qnn.DType) (qnn.Shape4, qnn.DType, error) {
	if err := conv.Validate(dt, operandType(l.Filter), biasType(l.Bias, dt)); err != nil {
		return qnn.Shape4{}, 0, err
	}
	if dt != qnn.Float32 && l.Quant == nil {
		return qnn.Shape4{}, 0, fmt.Errorf("depthwise: %v input needs Quant", dt)
	}
	p := l.params(in)
	return p.Output(), dt, nil
}

func (l *Depthwise) Plan(in qnn.Shape4, dt qnn.DType, budget int) (string, int) {
	if dt != qnn.Int8 {
		return "generic", 0
	}
	p := l.params(in)
	g := p.Geometry()
	unpacked := 0
	if _, ok := l.Filter.(qnn.PackedInt4); ok {
		unpacked = qnn.SizeOf(g.FilterSize(), 1)
	}
	v := depthwise.Select(&g, budget-unpacked)
	return v.String(), v.Workspace(&g) + unpacked
}

func (l *Depthwise) Forward(f *Frame) error {
	p := l.params(f.In.Shape)
	switch in := f.In.Data.(type) {
	case []float32:
		b, _ := l.Bias.([]float32)
		return depthwise.Float32(&p, in, l.Filter.([]float32), b, f.Out.Data.([]float32), l.Activation)
	case []int8:
		b, _ := l.Bias.([]int32)
		if w, ok := l.Filter.(qnn.PackedInt4); ok {
			return depthwise.Int8PackedInt4(&p, in, w, b, f.Out.Data.([]int8), l.Quant, f.Arena)
		}
		return depthwise.Int8(&p, in, l.Filter.([]int8), b, f.Out.Data.([]int8), l.Quant, f.Arena)
	case []int16:
		if b, ok := l.Bias.([]int64); ok {
			return depthwise.Int16(&p, in, l.Filter.([]int8), b, f.Out.Data.([]int16), l.Quant)
		}
		b, _ := l.Bias.([]int32)
		return depthwise.Int16(&p, in, l.Filter.([]int8), b, f.Out.Data.([]int16), l.Quant)
	default:
		return qnn.Unsupported("depthwise", f.In.DType())
	}
}

// PoolKind selects the pooling reduction.
type PoolKind int

const (
	MaxPool PoolKind = iota
	AveragePool
)

func (k PoolKind) String() string {
	if k == AveragePool {
		return "avgpool"
	}
	return "maxpool"
}

// Pool is max or average pooling. Zero ActMin and ActMax mean the full
// range of the input type.
type Pool struct {
	PoolKind         PoolKind
	KernelH, KernelW int
	StrideH, StrideW int
	Padding          qnn.Padding
	ActMin, ActMax   int32
	Activation       qnn.Activation
	Rescale          *pool.Rescale
}

func (l *Pool) Kind() string { return l.PoolKind.String() }

func (l *Pool) params(in qnn.Shape4, dt qnn.DType) pool.Params {
	p := pool.Params{
		Input:      in,
		KernelH:    l.KernelH,
		KernelW:    l.KernelW,
		StrideH:    l.StrideH,
		StrideW:    l.StrideW,
		Padding:    l.Padding,
		ActMin:     l.ActMin,
		ActMax:     l.ActMax,
		Activation: l.Activation,
		Rescale:    l.Rescale,
	}
	if p.ActMin == 0 && p.ActMax == 0 {
		p.ActMin, p.ActMax = dt.Range()
	}
	return p
}

func (l *Pool) Output(in qnn.Shape4, dt qnn.DType) (qnn.Shape4, qnn.DType, error) {
	switch dt {
	case qnn.Float32, qnn.Int8, qnn.Int16:
	default:
		return qnn.Shape4{}, 0, qnn.Unsupported(l.Kind(), dt)
	}
	p := l.params(in, dt)
	return p.Output(), dt, nil
}

func (l *Pool) Forward(f *Frame) error {
	p := l.params(f.In.Shape, f.In.DType())
	switch in := f.In.Data.(type) {
	case []float32:
		if l.PoolKind == AveragePool {
			pool.AverageFloat32(&p, in, f.Out.Data.([]float32))
		} else {
			pool.MaxFloat32(&p, in, f.Out.Data.([]float32))
		}
	case []int8:
		if l.PoolKind == AveragePool {
			pool.AverageInt8(&p, in, f.Out.Data.([]int8))
		} else {
			pool.MaxInt8(&p, in, f.Out.Data.([]int8))
		}
	case []int16:
		if l.PoolKind == AveragePool {
			pool.AverageInt16(&p, in, f.Out.Data.([]int16))
		} else {
			pool.MaxInt16(&p, in, f.Out.Data.([]int16))
		}
	default:
		return qnn.Unsupported(l.Kind(), f.In.DType())
	}
	return nil
}

// ReLU is a ReLU-family activation. Quantized inputs use Params; float
// inputs use Activation.
type ReLU struct {
	Activation qnn.Activation
	Params     *activation.ReLU
}

func (l *ReLU) Kind() string { return "relu" }

func (l *ReLU) Output(in qnn.Shape4, dt qnn.DType) (qnn.Shape4, qnn.DType, error) {
	switch {
	case dt == qnn.Float32:
	case (dt == qnn.Int8 || dt == qnn.Int16) && l.Params != nil:
	default:
		return qnn.Shape4{}, 0, qnn.Unsupported(l.Kind(), dt)
	}
	return in, dt, nil
}

func (l *ReLU) Forward(f *Frame) error {
	switch in := f.In.Data.(type) {
	case []float32:
		activation.Float32(l.Activation, in, f.Out.Data.([]float32))
	case []int8:
		activation.ReLUInt8(l.Params, in, f.Out.Data.([]int8))
	case []int16:
		activation.ReLUInt16(l.Params, in, f.Out.Data.([]int16))
	default:
		return qnn.Unsupported(l.Kind(), f.In.DType())
	}
	return nil
}

// Logistic is the sigmoid. Int8 inputs need Int8 params and produce scale
// 1/256, zero point -128; int16 inputs need Int16 params and produce Q0.15.
type Logistic struct {
	Int8  *activation.LogisticInt8Params
	Int16 *activation.Int16Params
}

func (l *Logistic) Kind() string { return "logistic" }

func (l *Logistic) Output(in qnn.Shape4, dt qnn.DType) (qnn.Shape4, qnn.DType, error) {
	switch {
	case dt == qnn.Float32:
	case dt == qnn.Int8 && l.Int8 != nil:
	case dt == qnn.Int16 && l.Int16 != nil:
	default:
		return qnn.Shape4{}, 0, qnn.Unsupported(l.Kind(), dt)
	}
	return in, dt, nil
}

func (l *Logistic) Forward(f *Frame) error {
	switch in := f.In.Data.(type) {
	case []float32:
		activation.Float32(qnn.ActLogistic, in, f.Out.Data.([]float32))
	case []int8:
		activation.LogisticInt8(l.Int8, in, f.Out.Data.([]int8))
	case []int16:
		activation.LogisticInt16(l.Int16, in, f.Out.Data.([]int16))
	default:
		return qnn.Unsupported(l.Kind(), f.In.DType())
	}
	return nil
}

// Tanh is the hyperbolic tangent on float or int16 input.
type Tanh struct {
	Int16 *activation.Int16Params
}

func (l *Tanh) Kind() string { return "tanh" }

func (l *Tanh) Output(in qnn.Shape4, dt qnn.DType) (qnn.Shape4, qnn.DType, error) {
	if dt != qnn.Float32 && (dt != qnn.Int16 || l.Int16 == nil) {
		return qnn.Shape4{}, 0, qnn.Unsupported(l.Kind(), dt)
	}
	return in, dt, nil
}

func (l *Tanh) Forward(f *Frame) error {
	switch in := f.In.Data.(type) {
	case []float32:
		activation.Float32(qnn.ActTanh, in, f.Out.Data.([]float32))
	case []int16:
		activation.TanhInt16(l.Int16, in, f.Out.Data.([]int16))
	default:
		return qnn.Unsupported(l.Kind(), f.In.DType())
	}
	return nil
}

// FullyConnected flattens each batch entry to H*W*C values and produces a
// [N, 1, 1, Units] tensor. Weights is []int8 or []float32 in (Units, Depth)
// order.
type FullyConnected struct {
	Units      int
	Weights    any
	Bias       any
	Quant      *fc.Quant
	Activation qnn.Activation
}

func (l *FullyConnected) Kind() string { return "fc" }

func (l *FullyConnected) Output(in qnn.Shape4, dt qnn.DType) (qnn.Shape4, qnn.DType, error) {
	w, b := operandType(l.Weights), biasType(l.Bias, dt)
	switch {
	case dt == qnn.Float32 && w == qnn.Float32 && b == qnn.Float32:
	case dt == qnn.Int8 && w == qnn.Int8 && b == qnn.Int32:
	case dt == qnn.Int16 && w == qnn.Int8 && (b == qnn.Int32 || b == qnn.Int64):
	default:
		return qnn.Shape4{}, 0, qnn.Unsupported(l.Kind(), dt)
	}
	if dt != qnn.Float32 && l.Quant == nil {
		return qnn.Shape4{}, 0, fmt.Errorf("fc: %v input needs Quant", dt)
	}
	return qnn.Shape4{N: in.N, H: 1, W: 1, C: l.Units}, dt, nil
}

func (l *FullyConnected) Forward(f *Frame) error {
	in := f.In.Shape
	d := fc.Dims{Batches: in.N, Depth: in.H * in.W * in.C, Units: l.Units}
	switch x := f.In.Data.(type) {
	case []float32:
		b, _ := l.Bias.([]float32)
		fc.Float32(d, x, l.Weights.([]float32), b, f.Out.Data.([]float32), l.Activation)
	case []int8:
		b, _ := l.Bias.([]int32)
		fc.Int8(d, x, l.Weights.([]int8), b, f.Out.Data.([]int8), l.Quant)
	case []int16:
		if b, ok := l.Bias.([]int64); ok {
			fc.Int16(d, x, l.Weights.([]int8), b, f.Out.Data.([]int16), l.Quant)
			break
		}
		b, _ := l.Bias.([]int32)
		fc.Int16(d, x, l.Weights.([]int8), b, f.Out.Data.([]int16), l.Quant)
	default:
		return qnn.Unsupported(l.Kind(), f.In.DType())
	}
	return nil
}

// Add adds the layer input to the tensor From refers to. Quantized inputs
// with Params are rescaled; int16 inputs without Params use a saturating
// add; float inputs use Activation.
type Add struct {
	From       int
	Params     *elementwise.AddParams
	Activation qnn.Activation
}

func (l *Add) Kind() string { return "add" }
func (l *Add) operand() int { return l.From }

func (l *Add) Output(in qnn.Shape4, dt qnn.DType) (qnn.Shape4, qnn.DType, error) {
	switch {
	case dt == qnn.Float32, dt == qnn.Int16:
	case dt == qnn.Int8 && l.Params != nil:
	default:
		return qnn.Shape4{}, 0, qnn.Unsupported(l.Kind(), dt)
	}
	return in, dt, nil
}

func (l *Add) Forward(f *Frame) error {
	other := f.Operand(l.From).Data
	switch a := f.In.Data.(type) {
	case []float32:
		elementwise.AddFloat32(a, other.([]float32), f.Out.Data.([]float32), l.Activation)
	case []int8:
		elementwise.AddInt8Quantized(l.Params, a, other.([]int8), f.Out.Data.([]int8))
	case []int16:
		if l.Params != nil {
			elementwise.AddInt16Quantized(l.Params, a, other.([]int16), f.Out.Data.([]int16))
		} else {
			elementwise.AddInt16(a, other.([]int16), f.Out.Data.([]int16))
		}
	default:
		return qnn.Unsupported(l.Kind(), f.In.DType())
	}
	return nil
}

// Mul multiplies the layer input by the tensor From refers to. Quantized
// inputs need Params; float inputs use Activation.
type Mul struct {
	From       int
	Params     *elementwise.MulParams
	Activation qnn.Activation
}

func (l *Mul) Kind() string { return "mul" }
func (l *Mul) operand() int { return l.From }

func (l *Mul) Output(in qnn.Shape4, dt qnn.DType) (qnn.Shape4, qnn.DType, error) {
	switch {
	case dt == qnn.Float32:
	case (dt == qnn.Int8 || dt == qnn.Int16) && l.Params != nil:
	default:
		return qnn.Shape4{}, 0, qnn.Unsupported(l.Kind(), dt)
	}
	return in, dt, nil
}

func (l *Mul) Forward(f *Frame) error {
	other := f.Operand(l.From).Data
	switch a := f.In.Data.(type) {
	case []float32:
		elementwise.MulFloat32(a, other.([]float32), f.Out.Data.([]float32), l.Activation)
	case []int8:
		elementwise.MulInt8(l.Params, a, other.([]int8), f.Out.Data.([]int8))
	case []int16:
		elementwise.MulInt16(l.Params, a, other.([]int16), f.Out.Data.([]int16))
	default:
		return qnn.Unsupported(l.Kind(), f.In.DType())
	}
	return nil
}

// operandType maps a constant operand to its dtype, or an invalid dtype.
func operandType(v any) qnn.DType {
	if dt, ok := qnn.DTypeOf(v); ok {
		return dt
	}
	return qnn.DType(-1)
}

// biasType treats a nil bias as the accumulator type of in.
func biasType(v any, in qnn.DType) qnn.DType {
	if v != nil {
		return operandType(v)
	}
	if in == qnn.Float32 {
		return qnn.Float32
	}
	return qnn.Int32
}
