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

package conv

import (
	"fmt"

	"github.com/qnnkit/qnn/qnn"
)

// Strategy is one inner-loop structure for int8 convolution. All strategies
// produce identical output for every call they support.
type Strategy interface {
	Name() string

	// Supports reports whether the strategy handles this geometry.
	Supports(g *Geometry) bool

	// Workspace returns the scratch bytes the strategy reserves.
	Workspace(g *Geometry) int

	convInt8(g *Geometry, input, filter []int8, bias []int32, output []int8, q *qnn.PerChannelQuant, a *qnn.Arena) error
}

var (
	Generic      Strategy = genericStrategy{}
	Materialized Strategy = materializedStrategy{}
	Pointwise    Strategy = pointwiseStrategy{}
)

// Strategies lists every strategy in selection order. Generic is last and
// supports everything.
var Strategies = []Strategy{
	Pointwise,
	Conv3x3S1Same,
	Conv3x3S1Valid,
	Conv3x3S2Valid,
	Materialized,
	Generic,
}

// Select returns the first strategy that supports g and whose workspace
// fits in budget bytes.
func Select(g *Geometry, budget int) Strategy {
	for _, s := range Strategies {
		if s.Supports(g) && s.Workspace(g) <= budget {
			return s
		}
	}
	return Generic
}

// StrategyByName looks a strategy up by its Name.
func StrategyByName(name string) (Strategy, bool) {
	for _, s := range Strategies {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// RunInt8 runs s directly, bypassing selection. It panics if s does not
// support the geometry.
func RunInt8(s Strategy, p *Params, input, filter []int8, bias []int32, output []int8, q *qnn.PerChannelQuant, arena *qnn.Arena) error {
	g := p.Geometry()
	if !s.Supports(&g) {
		panic(fmt.Sprintf("conv: strategy %s does not support %v", s.Name(), &g))
	}
	g.checkLengths("conv."+s.Name(), len(input), len(filter), len(bias), len(output))

	need := s.Workspace(&g)
	a := qnn.Scratch(arena, need)
	if err := a.Check("conv."+s.Name(), need); err != nil {
		return err
	}
	bq := q.Bounded(qnn.Int8)
	return s.convInt8(&g, input, filter, bias, output, &bq, a)
}

type genericStrategy struct{}

func (genericStrategy) Name() string { return "generic" }
func (genericStrategy) Supports(*Geometry) bool { return true }
func (genericStrategy) Workspace(*Geometry) int { return 0 }

func (genericStrategy) convInt8(g *Geometry, input, filter []int8, bias []int32, output []int8, q *qnn.PerChannelQuant, _ *qnn.Arena) error {
	BaseGenericInt8(g, input, filter, bias, output, q)
	return nil
}

// budget returns the scratch bytes available for strategy selection. A nil
// arena is treated as one of the default size.
func budget(a *qnn.Arena) int {
	if a == nil {
		return qnn.DefaultArenaSize
	}
	return a.Cap()
}
