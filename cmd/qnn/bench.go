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

package main

import (
	"context"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/qnnkit/qnn/examples/denoise"
	"github.com/qnnkit/qnn/examples/kws"
	"github.com/qnnkit/qnn/qnn"
	"github.com/qnnkit/qnn/qnn/contrib/nn"
	"github.com/qnnkit/qnn/qnn/contrib/workerpool"
)

// benchModel builds a model and one input for it.
type benchModel func(ctx context.Context, seed uint64, opts []nn.Option) (*nn.Model, any, error)

var benchModels = map[string]benchModel{
	"kws": func(ctx context.Context, seed uint64, opts []nn.Option) (*nn.Model, any, error) {
		net, err := kws.Build(ctx, seed, 4, opts...)
		if err != nil {
			return nil, nil, err
		}
		return net.Int8, kws.QuantizeInput(kws.Features(seed)), nil
	},
	"kws-float": func(ctx context.Context, seed uint64, opts []nn.Option) (*nn.Model, any, error) {
		net, err := kws.Build(ctx, seed, 1, opts...)
		if err != nil {
			return nil, nil, err
		}
		return net.Float, kws.Features(seed), nil
	},
	"denoise": func(_ context.Context, seed uint64, opts []nn.Option) (*nn.Model, any, error) {
		net, err := denoise.Build(seed, opts...)
		if err != nil {
			return nil, nil, err
		}
		return net.Int16, denoise.QuantizeFrame(denoise.Frame(seed)), nil
	},
}

func benchModelNames() []string {
	names := lo.Keys(benchModels)
	slices.Sort(names)
	return names
}

func newBenchCmd(o *options) *cobra.Command {
	var (
		model      string
		iterations int
		parallel   int
	)
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time a network per layer, across goroutines and through a worker pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			build, ok := benchModels[model]
			if !ok {
				return fmt.Errorf("unknown model %q, want one of %v", model, benchModelNames())
			}
			if iterations < 1 || parallel < 1 {
				return fmt.Errorf("--iterations and --parallel must be positive")
			}
			ctx := cmd.Context()
			m, input, err := build(ctx, o.seed, o.modelOptions(cmd))
			if err != nil {
				return err
			}
			b := bench{model: m, input: input, arena: o.arena, iterations: iterations, parallel: parallel}
			return b.run(ctx, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&model, "model", "kws", fmt.Sprintf("model to run, one of %v", benchModelNames()))
	cmd.Flags().IntVar(&iterations, "iterations", 20, "runs per goroutine")
	cmd.Flags().IntVar(&parallel, "parallel", defaultParallelism(), "concurrent goroutines and pool workers")
	return cmd
}

type bench struct {
	model      *nn.Model
	input      any
	arena      int
	iterations int
	parallel   int
}

func (b *bench) run(ctx context.Context, w io.Writer) error {
	if err := b.profile(ctx, w); err != nil {
		return err
	}
	if err := b.goroutines(ctx, w); err != nil {
		return err
	}
	return b.batch(ctx, w)
}

// profile prints the per-layer breakdown of one run.
func (b *bench) profile(ctx context.Context, w io.Writer) error {
	_, stats, err := b.model.Profile(ctx, b.input, qnn.NewArena(b.arena))
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LAYER\tKIND\tSTRATEGY\tOUTPUT\tELAPSED")
	for _, s := range stats {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%v\t%v\n", s.Index, s.Kind, s.Strategy, s.Output, s.Elapsed)
	}
	fmt.Fprintf(tw, "\t\t\ttotal\t%v\n", nn.TotalElapsed(stats))
	return tw.Flush()
}

// goroutines runs the model iterations times on each of parallel
// goroutines, each with its own arena.
func (b *bench) goroutines(ctx context.Context, w io.Writer) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.parallel)
	start := time.Now()
	for range b.parallel {
		g.Go(func() error {
			arena := qnn.NewArena(b.arena)
			for range b.iterations {
				if _, err := b.model.Run(ctx, b.input, arena); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	report(w, "goroutines", b.parallel*b.iterations, b.parallel, time.Since(start))
	return nil
}

// batch pushes the same number of inputs through RunBatch on a worker pool.
func (b *bench) batch(ctx context.Context, w io.Writer) error {
	pool := workerpool.New(b.parallel)
	defer pool.Close()
	inputs := lo.Times(b.parallel*b.iterations, func(int) any { return b.input })
	start := time.Now()
	if _, err := b.model.RunBatch(ctx, pool, inputs); err != nil {
		return err
	}
	report(w, "RunBatch", len(inputs), pool.NumWorkers(), time.Since(start))
	return nil
}

func report(w io.Writer, name string, runs, workers int, elapsed time.Duration) {
	fmt.Fprintf(w, "%s: %d runs on %d workers in %v (%.0f runs/s)\n",
		name, runs, workers, elapsed.Round(time.Microsecond), float64(runs)/elapsed.Seconds())
}
