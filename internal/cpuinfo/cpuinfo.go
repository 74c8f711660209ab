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

// Package cpuinfo reports the CPU features the qnn dispatch level is
// derived from, for the qnn info command.
package cpuinfo

import (
	"fmt"
	"io"
	"runtime"

	"golang.org/x/sys/cpu"

	"github.com/qnnkit/qnn/qnn"
)

// Feature is one CPU feature flag.
type Feature struct {
	Name    string
	Present bool
	Note    string
}

// Features returns the flags relevant to the current GOARCH, or nil on
// architectures without detection.
func Features() []Feature {
	switch runtime.GOARCH {
	case "arm64":
		return []Feature{
			{"ASIMD", cpu.ARM64.HasASIMD, "NEON baseline"},
			{"ASIMDDP", cpu.ARM64.HasASIMDDP, "int8 dot product"},
			{"ASIMDHP", cpu.ARM64.HasASIMDHP, "FP16 NEON"},
			{"SVE", cpu.ARM64.HasSVE, "Scalable Vector Extension"},
			{"SVE2", cpu.ARM64.HasSVE2, ""},
			{"ASIMDFHM", cpu.ARM64.HasASIMDFHM, "FP16 FMA"},
		}
	case "amd64":
		return []Feature{
			{"SSE2", cpu.X86.HasSSE2, "baseline"},
			{"SSE41", cpu.X86.HasSSE41, ""},
			{"AVX2", cpu.X86.HasAVX2, ""},
			{"FMA", cpu.X86.HasFMA, ""},
			{"AVX512F", cpu.X86.HasAVX512F, ""},
			{"AVX512BW", cpu.X86.HasAVX512BW, "byte/word lanes"},
			{"AVX512VNNI", cpu.X86.HasAVX512VNNI, "int8 dot product"},
			{"AVX512VL", cpu.X86.HasAVX512VL, ""},
		}
	default:
		return nil
	}
}

// Write prints the platform, dispatch level and feature flags.
func Write(w io.Writer) error {
	ew := &errWriter{w: w}
	ew.printf("GOOS: %s\n", runtime.GOOS)
	ew.printf("GOARCH: %s\n", runtime.GOARCH)
	ew.printf("NumCPU: %d\n", runtime.NumCPU())
	ew.printf("\n")
	ew.printf("Dispatch level: %s\n", qnn.CurrentLevel())
	ew.printf("Dispatch width: %d bytes\n", qnn.CurrentWidth())
	ew.printf("Lanes: int8=%d int16=%d int32=%d float32=%d\n",
		qnn.NumLanes[int8](), qnn.NumLanes[int16](), qnn.NumLanes[int32](), qnn.NumLanes[float32]())
	ew.printf("QNN_NO_SIMD: %v\n", qnn.NoSimdEnv())
	ew.printf("Arena size: %d bytes\n", qnn.ArenaSizeFromEnv())

	if fs := Features(); len(fs) > 0 {
		ew.printf("\n=== golang.org/x/sys/cpu (%s) ===\n", runtime.GOARCH)
		for _, f := range fs {
			if f.Note != "" {
				ew.printf("  Has%-11s %v (%s)\n", f.Name+":", f.Present, f.Note)
			} else {
				ew.printf("  Has%-11s %v\n", f.Name+":", f.Present)
			}
		}
	}
	return ew.err
}

// errWriter keeps the first write error so Write can print unconditionally.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
