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

const strategySource = `// Code generated by qnngen. DO NOT EDIT.

package {{.Package}}

import "github.com/qnnkit/qnn/qnn"

var (
{{- range .Variants}}
	{{.VarName}} Strategy = {{.TypeName}}{}
{{- end}}
)
{{range .Variants}}
type {{.TypeName}} struct{}

func ({{.TypeName}}) Name() string { return "{{.StrategyName}}" }

func ({{.TypeName}}) Supports(g *Geometry) bool {
	return g.KH == {{.K}} && g.KW == {{.K}} && g.DH == 1 && g.DW == 1 &&
{{- if .Same}}
		g.SH == {{.Stride}} && g.SW == {{.Stride}} && g.Padding == qnn.PaddingSame
{{- else}}
		g.SH == {{.Stride}} && g.SW == {{.Stride}} && g.Padding == qnn.PaddingValid && g.Pad == qnn.Pad2D{}
{{- end}}
}

func ({{.TypeName}}) Workspace(*Geometry) int { return 0 }

func ({{.TypeName}}) convInt8(g *Geometry, input, filter []int8, bias []int32, output []int8, q *qnn.PerChannelQuant, _ *qnn.Arena) error {
	const kh, kw, sh, sw = {{.K}}, {{.K}}, {{.Stride}}, {{.Stride}}
	in, out := g.In, g.Out
	row := kw * in.C
	stride := in.W * in.C
	kSize := kh * row
	for n := range out.N {
		for oy := range out.H {
{{- if .Same}}
			iy0 := oy*sh - g.Pad.Top
			for ox := range out.W {
				ix0 := ox*sw - g.Pad.Left
				o := out.Offset(n, oy, ox, 0)
				interior := iy0 >= 0 && iy0+kh <= in.H && ix0 >= 0 && ix0+kw <= in.W
				for oc := range out.C {
					f := filter[oc*kSize : (oc+1)*kSize]
					var acc int32
					if interior {
{{- template "bases" .}}
						acc = {{template "dots" .}}
					} else {
						acc = borderTapsInt8(g, input, f, n, iy0, ix0, q)
					}
{{- else}}
			iy0 := oy * sh
			for ox := range out.W {
				ix0 := ox * sw
				o := out.Offset(n, oy, ox, 0)
{{- template "bases" .}}
				for oc := range out.C {
					f := filter[oc*kSize : (oc+1)*kSize]
					acc := {{template "dots" .}}
{{- end}}
					if bias != nil {
						acc += bias[oc]
					}
					output[o+oc] = int8(q.Requantize(acc, oc))
				}
			}
		}
	}
	return nil
}
{{end}}
{{- define "bases"}}
{{- range .Rows}}
{{- if .Prev}}
	{{.Base}} := {{.Prev}} + stride
{{- else}}
	{{.Base}} := in.Offset(n, iy0, ix0, 0)
{{- end}}
{{- end}}
{{- end}}
{{- define "dots"}}
{{- $rows := .Rows}}
{{- range $i, $r := $rows}}
{{- if $i}}
	{{end}}qnn.DotInt8(input[{{$r.Base}}:{{$r.Base}}+row], f[{{$r.Lo}}:{{$r.Hi}}], q.InputOffset, q.FilterOffset)
{{- if not (last $i $rows)}} +{{end}}
{{- end}}
{{- end}}
`
