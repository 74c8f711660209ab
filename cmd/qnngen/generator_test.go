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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMatchesCheckedIn(t *testing.T) {
	gen, err := NewGenerator("conv3x3", "conv", parseList("s1same, s1valid,s2valid"))
	require.NoError(t, err)
	got, err := gen.Render()
	require.NoError(t, err)

	want, err := os.ReadFile(filepath.Join("..", "..", "qnn", "contrib", "conv", "z_conv3x3.gen.go"))
	require.NoError(t, err)
	if diff := cmp.Diff(strings.Fields(string(want)), strings.Fields(string(got))); diff != "" {
		t.Errorf("z_conv3x3.gen.go is stale, run go generate (-checked-in +rendered):\n%s", diff)
	}
}

func TestVariantNames(t *testing.T) {
	gen, err := NewGenerator("conv3x3", "", []string{"s2valid"})
	require.NoError(t, err)
	assert.Equal(t, "conv", gen.Package)
	v := gen.Variants[0]
	assert.Equal(t, "Conv3x3S2Valid", v.VarName())
	assert.Equal(t, "conv3x3S2ValidStrategy", v.TypeName())
	assert.Equal(t, "conv3x3_s2_valid", v.StrategyName())
	assert.False(t, v.Same())
}

func TestRenderLargerKernel(t *testing.T) {
	gen, err := NewGenerator("conv5x5", "conv", []string{"s1same"})
	require.NoError(t, err)
	src, err := gen.Render()
	require.NoError(t, err)
	s := string(src)
	assert.Contains(t, s, "const kh, kw, sh, sw = 5, 5, 1, 1")
	assert.Contains(t, s, "b4 := b3 + stride")
	assert.Contains(t, s, "f[4*row:5*row]")
	assert.Contains(t, s, `return "conv5x5_s1_same"`)
	assert.NotContains(t, s, "b5")
}

func TestNewGeneratorRejects(t *testing.T) {
	for _, tt := range []struct {
		kernel   string
		variants []string
		want     string
	}{
		{"conv3x5", []string{"s1same"}, "want conv<k>x<k>"},
		{"pool3x3", []string{"s1same"}, "want conv<k>x<k>"},
		{"conv3x3", []string{"s1causal"}, `variant "s1causal"`},
		{"conv3x3", nil, "no variants"},
	} {
		_, err := NewGenerator(tt.kernel, "conv", tt.variants)
		assert.ErrorContains(t, err, tt.want, tt.kernel)
	}
}

func TestWriteFile(t *testing.T) {
	gen, err := NewGenerator("conv3x3", "conv", []string{"s1valid"})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "z_conv3x3.gen.go")
	require.NoError(t, gen.WriteFile(path))

	src, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(src), "// Code generated by qnngen. DO NOT EDIT.\n\npackage conv\n"))
	assert.Contains(t, string(src), "Conv3x3S1Valid Strategy = conv3x3S1ValidStrategy{}")
}
