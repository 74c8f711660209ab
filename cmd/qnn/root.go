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
	"fmt"
	"log"
	"runtime"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/qnnkit/qnn/examples/denoise"
	"github.com/qnnkit/qnn/examples/kws"
	"github.com/qnnkit/qnn/internal/cpuinfo"
	"github.com/qnnkit/qnn/qnn"
	"github.com/qnnkit/qnn/qnn/contrib/nn"
)

// options are the flags shared by every model command.
type options struct {
	verbose int
	arena   int
	seed    uint64
}

func (o *options) flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("model", pflag.ContinueOnError)
	fs.IntVarP(&o.verbose, "verbose", "v", 0, "log verbosity; 1 logs every layer")
	fs.IntVar(&o.arena, "arena", qnn.ArenaSizeFromEnv(), "scratch arena size in bytes")
	fs.Uint64Var(&o.seed, "seed", 1, "seed for weights and inputs")
	return fs
}

func (o *options) logger(cmd *cobra.Command) logr.Logger {
	stdr.SetVerbosity(o.verbose)
	return stdr.New(log.New(cmd.ErrOrStderr(), "", log.LstdFlags))
}

func (o *options) modelOptions(cmd *cobra.Command) []nn.Option {
	return []nn.Option{nn.WithLogger(o.logger(cmd)), nn.WithArenaSize(o.arena)}
}

func newRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:          "qnn",
		Short:        "Run quantized networks on the qnn kernels",
		SilenceUsage: true,
	}
	root.PersistentFlags().AddFlagSet(o.flags())
	root.AddCommand(newInfoCmd(), newKWSCmd(o), newDenoiseCmd(o), newBenchCmd(o))
	return root
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print the dispatch level and CPU features",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cpuinfo.Write(cmd.OutOrStdout())
		},
	}
}

func newKWSCmd(o *options) *cobra.Command {
	var inputs, calibration int
	cmd := &cobra.Command{
		Use:   "kws",
		Short: "Classify synthetic features with the int8 keyword-spotting network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			net, err := kws.Build(ctx, o.seed, calibration, o.modelOptions(cmd)...)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			results := make([]kws.Result, 0, inputs)
			for i := range inputs {
				r, err := net.Classify(ctx, kws.Features(o.seed+1000+uint64(i)))
				if err != nil {
					return fmt.Errorf("input %d: %w", i, err)
				}
				fmt.Fprintf(w, "input %d: %-8s float: %-8s score %.3f\n", i, r.Label, kws.Labels[r.FloatIndex], r.Scores[r.Index])
				results = append(results, r)
			}
			fmt.Fprintf(w, "agreement: %d/%d\n", lo.CountBy(results, kws.Result.Agree), len(results))
			return nil
		},
	}
	cmd.Flags().IntVar(&inputs, "inputs", 4, "number of feature maps to classify")
	cmd.Flags().IntVar(&calibration, "calibration", 8, "number of calibration inputs")
	return cmd
}

func newDenoiseCmd(o *options) *cobra.Command {
	var frames int
	cmd := &cobra.Command{
		Use:   "denoise",
		Short: "Run the int16 spectral mask network and report its SNR",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			net, err := denoise.Build(o.seed, o.modelOptions(cmd)...)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			snrs := make([]float64, 0, frames)
			for i := range frames {
				r, err := net.Denoise(ctx, denoise.Frame(o.seed+uint64(i)))
				if err != nil {
					return fmt.Errorf("frame %d: %w", i, err)
				}
				fmt.Fprintf(w, "frame %d: SNR %.1f dB\n", i, r.SNR)
				snrs = append(snrs, r.SNR)
			}
			if len(snrs) > 0 {
				fmt.Fprintf(w, "mean SNR: %.1f dB\n", lo.Sum(snrs)/float64(len(snrs)))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&frames, "frames", 4, "number of frames")
	return cmd
}

func defaultParallelism() int {
	return runtime.GOMAXPROCS(0)
}
