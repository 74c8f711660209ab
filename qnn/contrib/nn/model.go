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
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/samber/lo"

	"github.com/qnnkit/qnn/qnn"
	"github.com/qnnkit/qnn/qnn/contrib/workerpool"
)

// Model is a validated sequence of layers over a fixed input shape and type.
type Model struct {
	input  qnn.Shape4
	dtype  qnn.DType
	layers []Layer
	shapes []qnn.Shape4
	dtypes []qnn.DType

	arenaSize int
	log       logr.Logger
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the logger Run reports per-layer timing to.
func WithLogger(log logr.Logger) Option {
	return func(m *Model) { m.log = log }
}

// WithArenaSize sets the size of the arenas Run and RunBatch allocate when
// the caller passes none. The default comes from qnn.ArenaSizeFromEnv.
func WithArenaSize(bytes int) Option {
	return func(m *Model) { m.arenaSize = bytes }
}

// LayerStat is the profile of one layer of one run.
type LayerStat struct {
	Index    int
	Kind     string
	Strategy string
	Output   qnn.Shape4
	Elapsed  time.Duration
}

// New validates that every layer accepts its input and derives the
// intermediate shapes. Errors name the offending layer.
func New(input qnn.Shape4, dt qnn.DType, layers []Layer, opts ...Option) (*Model, error) {
	m := &Model{
		input:     input,
		dtype:     dt,
		layers:    layers,
		arenaSize: qnn.ArenaSizeFromEnv(),
		log:       logr.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("nn: model has no layers")
	}

	shape, typ := input, dt
	for i, l := range layers {
		out, outType, err := l.Output(shape, typ)
		if err != nil {
			return nil, fmt.Errorf("layer %d (%s): %w", i, l.Kind(), err)
		}
		if b, ok := l.(binary); ok {
			if err := m.checkOperand(i, b.operand(), out, outType); err != nil {
				return nil, fmt.Errorf("layer %d (%s): %w", i, l.Kind(), err)
			}
		}
		m.shapes = append(m.shapes, out)
		m.dtypes = append(m.dtypes, outType)
		shape, typ = out, outType
	}
	return m, nil
}

func (m *Model) checkOperand(i, ref int, out qnn.Shape4, dt qnn.DType) error {
	if ref < ModelInput || ref >= i {
		return fmt.Errorf("operand %d is not an earlier layer", ref)
	}
	s, t := m.input, m.dtype
	if ref != ModelInput {
		s, t = m.shapes[ref], m.dtypes[ref]
	}
	if t != dt {
		return fmt.Errorf("operand %d is %v, want %v", ref, t, dt)
	}
	if s.Size() != out.Size() && s.Size() != 1 {
		return fmt.Errorf("operand %d has shape %v, want %v", ref, s, out)
	}
	return nil
}

// Input returns the input shape and type.
func (m *Model) Input() (qnn.Shape4, qnn.DType) {
	return m.input, m.dtype
}

// Output returns the output shape and type.
func (m *Model) Output() (qnn.Shape4, qnn.DType) {
	last := len(m.layers) - 1
	return m.shapes[last], m.dtypes[last]
}

// Layers returns the layers in execution order.
func (m *Model) Layers() []Layer {
	return m.layers
}

// Workspace returns the largest scratch reservation of any layer for an
// arena of the configured size.
func (m *Model) Workspace() int {
	return lo.Max(lo.Map(m.layers, func(l Layer, i int) int {
		_, ws := m.plan(i, l)
		return ws
	}))
}

// Strategies returns the strategy each layer runs with for an arena of the
// configured size. Layers without a choice report their kind.
func (m *Model) Strategies() []string {
	return lo.Map(m.layers, func(l Layer, i int) string {
		s, _ := m.plan(i, l)
		return s
	})
}

func (m *Model) plan(i int, l Layer) (string, int) {
	p, ok := l.(Planner)
	if !ok {
		return l.Kind(), 0
	}
	in, dt := m.input, m.dtype
	if i > 0 {
		in, dt = m.shapes[i-1], m.dtypes[i-1]
	}
	return p.Plan(in, dt, m.arenaSize)
}

// Run executes the model on input, which must be a slice of the input type
// holding at least the input shape. A nil arena allocates one for this run.
// ctx is checked between layers.
func (m *Model) Run(ctx context.Context, input any, arena *qnn.Arena) (Tensor, error) {
	acts, _, err := m.run(ctx, input, arena, false)
	if err != nil {
		return Tensor{}, err
	}
	return acts[len(acts)-1], nil
}

// Profile is Run that also returns per-layer statistics.
func (m *Model) Profile(ctx context.Context, input any, arena *qnn.Arena) (Tensor, []LayerStat, error) {
	out, stats, err := m.run(ctx, input, arena, true)
	if err != nil {
		return Tensor{}, stats, err
	}
	return out[len(out)-1], stats, nil
}

// Activations runs the model and returns the output of every layer, as
// needed to calibrate quantization ranges.
func (m *Model) Activations(ctx context.Context, input any, arena *qnn.Arena) ([]Tensor, error) {
	acts, _, err := m.run(ctx, input, arena, false)
	if err != nil {
		return nil, err
	}
	return acts[1:], nil
}

// run returns the model input followed by every layer output.
func (m *Model) run(ctx context.Context, input any, arena *qnn.Arena, profile bool) ([]Tensor, []LayerStat, error) {
	in := Tensor{Shape: m.input, Data: input}
	if dt := in.DType(); dt != m.dtype {
		return nil, nil, fmt.Errorf("nn: input is %v, want %v", dt, m.dtype)
	}
	if in.Len() < m.input.Size() {
		return nil, nil, fmt.Errorf("nn: input has %d values, want %d", in.Len(), m.input.Size())
	}
	if arena == nil {
		arena = qnn.NewArena(m.arenaSize)
	}

	f := Frame{Arena: arena, acts: make([]Tensor, 1, len(m.layers)+1)}
	f.acts[0] = in
	var stats []LayerStat
	for i, l := range m.layers {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		out, err := NewTensor(m.shapes[i], m.dtypes[i])
		if err != nil {
			return nil, stats, fmt.Errorf("layer %d (%s): %w", i, l.Kind(), err)
		}
		f.In, f.Out = f.acts[i], out

		strategy := l.Kind()
		if p, ok := l.(Planner); ok && (profile || m.log.V(1).Enabled()) {
			strategy, _ = p.Plan(f.In.Shape, f.In.DType(), arena.Cap())
		}
		start := time.Now()
		if err := l.Forward(&f); err != nil {
			return nil, stats, fmt.Errorf("layer %d (%s): %w", i, l.Kind(), err)
		}
		elapsed := time.Since(start)

		m.log.V(1).Info("layer", "index", i, "kind", l.Kind(), "strategy", strategy,
			"output", out.Shape.String(), "elapsed", elapsed)
		if profile {
			stats = append(stats, LayerStat{Index: i, Kind: l.Kind(), Strategy: strategy, Output: out.Shape, Elapsed: elapsed})
		}
		f.acts = append(f.acts, out)
	}
	return f.acts, stats, nil
}

// RunBatch runs the model on every input across pool, giving each worker
// slot its own arena. The first error stops the remaining inputs and is
// returned with the index of the input that caused it. A nil pool runs the
// inputs in order.
func (m *Model) RunBatch(ctx context.Context, pool workerpool.Executor, inputs []any) ([]Tensor, error) {
	if pool == nil {
		pool = (*workerpool.Pool)(nil)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	arenas := lo.Times(pool.NumWorkers(), func(int) *qnn.Arena {
		return qnn.NewArena(m.arenaSize)
	})
	outputs := make([]Tensor, len(inputs))
	var (
		once  sync.Once
		first error
	)
	pool.ParallelForSlots(len(inputs), func(slot, i int) {
		if ctx.Err() != nil {
			return
		}
		out, err := m.Run(ctx, inputs[i], arenas[slot])
		if err != nil {
			once.Do(func() {
				first = fmt.Errorf("input %d: %w", i, err)
				cancel()
			})
			return
		}
		outputs[i] = out
	})
	if first != nil {
		return nil, first
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outputs, nil
}

// TotalElapsed sums the elapsed time of stats.
func TotalElapsed(stats []LayerStat) time.Duration {
	return lo.SumBy(stats, func(s LayerStat) time.Duration { return s.Elapsed })
}
