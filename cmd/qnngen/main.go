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

// Command qnngen generates fixed-shape convolution strategies.
//
// Usage:
//
//	qnngen -kernel conv3x3 -output z_conv3x3.gen.go -variants s1same,s1valid,s2valid
//
// Or via go:generate:
//
//	//go:generate go run ../../../cmd/qnngen -kernel conv3x3 -output z_conv3x3.gen.go -variants s1same,s1valid,s2valid
//
// Each variant "s<stride><padding>" becomes one conv.Strategy whose loops
// have the kernel size and stride folded into constants. Same-padded
// variants check each window for the border and fall back to per-tap bounds
// checks there; valid-padded variants have no border.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

var (
	kernel   = flag.String("kernel", "conv3x3", "Kernel to generate, conv<k>x<k>")
	output   = flag.String("output", "", "Output file (required)")
	variants = flag.String("variants", "s1same,s1valid,s2valid", "Comma-separated variants, s<stride>same or s<stride>valid")
	pkg      = flag.String("pkg", os.Getenv("GOPACKAGE"), "Output package name (default: $GOPACKAGE, else conv)")
)

func main() {
	flag.Parse()

	if *output == "" {
		fmt.Fprintf(os.Stderr, "Error: -output flag is required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	gen, err := NewGenerator(*kernel, *pkg, parseList(*variants))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := gen.WriteFile(*output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully generated %d %s variants into %s\n", len(gen.Variants), gen.Kernel, *output)
}

func parseList(s string) []string {
	var result []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}
