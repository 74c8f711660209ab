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
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/tools/imports"
)

var (
	kernelRE  = regexp.MustCompile(`^conv([1-9])x([1-9])$`)
	variantRE = regexp.MustCompile(`^s([1-9])(same|valid)$`)
)

// Generator renders the strategies of one square kernel.
type Generator struct {
	Kernel   string
	Package  string
	K        int
	Variants []Variant
}

// Variant is one stride and padding combination.
type Variant struct {
	Kernel  string
	K       int
	Stride  int
	Padding string
}

// Row is one kernel row of the unrolled dot product.
type Row struct {
	Base string
	Prev string
	Lo   string
	Hi   string
}

// NewGenerator parses the kernel and variant names.
func NewGenerator(kernel, pkg string, variants []string) (*Generator, error) {
	m := kernelRE.FindStringSubmatch(kernel)
	if m == nil || m[1] != m[2] {
		return nil, fmt.Errorf("kernel %q: want conv<k>x<k>", kernel)
	}
	k, _ := strconv.Atoi(m[1])
	if pkg == "" {
		pkg = "conv"
	}
	g := &Generator{Kernel: kernel, Package: pkg, K: k}
	if len(variants) == 0 {
		return nil, fmt.Errorf("no variants")
	}
	for _, v := range variants {
		vm := variantRE.FindStringSubmatch(v)
		if vm == nil {
			return nil, fmt.Errorf("variant %q: want s<stride>same or s<stride>valid", v)
		}
		stride, _ := strconv.Atoi(vm[1])
		g.Variants = append(g.Variants, Variant{Kernel: kernel, K: k, Stride: stride, Padding: vm[2]})
	}
	return g, nil
}

var title = cases.Title(language.English)

// VarName is the exported Strategy variable, e.g. Conv3x3S1Same.
func (v Variant) VarName() string {
	return title.String(v.Kernel) + v.suffix()
}

// TypeName is the unexported implementation type, e.g. conv3x3S1SameStrategy.
func (v Variant) TypeName() string {
	return v.Kernel + v.suffix() + "Strategy"
}

// StrategyName is the value Name returns, e.g. conv3x3_s1_same.
func (v Variant) StrategyName() string {
	return fmt.Sprintf("%s_s%d_%s", v.Kernel, v.Stride, v.Padding)
}

func (v Variant) suffix() string {
	return title.String("s"+strconv.Itoa(v.Stride)) + title.String(v.Padding)
}

// Same reports whether the variant handles a border.
func (v Variant) Same() bool {
	return v.Padding == "same"
}

// Rows returns the unrolled kernel rows.
func (v Variant) Rows() []Row {
	rows := make([]Row, v.K)
	for i := range rows {
		r := Row{Base: "b" + strconv.Itoa(i)}
		if i > 0 {
			r.Prev = "b" + strconv.Itoa(i-1)
		}
		switch i {
		case 0:
			r.Lo, r.Hi = "0", "row"
		case 1:
			r.Lo, r.Hi = "row", "2*row"
		default:
			r.Lo, r.Hi = strconv.Itoa(i)+"*row", strconv.Itoa(i+1)+"*row"
		}
		rows[i] = r
	}
	return rows
}

// Render returns the formatted Go source.
func (g *Generator) Render() ([]byte, error) {
	var buf bytes.Buffer
	if err := strategyTemplate.Execute(&buf, g); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}
	name := "z_" + g.Kernel + ".gen.go"
	out, err := imports.Process(name, buf.Bytes(), nil)
	if err != nil {
		return nil, fmt.Errorf("formatting %s: %w\n%s", name, err, buf.String())
	}
	return out, nil
}

// WriteFile renders into path.
func (g *Generator) WriteFile(path string) error {
	src, err := g.Render()
	if err != nil {
		return err
	}
	return os.WriteFile(path, src, 0o644)
}

var strategyTemplate = template.Must(template.New("strategy").Funcs(template.FuncMap{
	"last": func(i int, rows []Row) bool { return i == len(rows)-1 },
}).Parse(strategySource))
