// Package logic provides boolean gates over two gate inputs.
package logic

import (
	"pipelined.dev/rack/internal/dsp"
	"pipelined.dev/rack/module"
)

// Type is the catalog type tag.
const Type = "logic"

const (
	outAnd = iota
	outOr
	outXor
	outNot
)

// Descriptor of the logic module.
var Descriptor = module.Descriptor{
	Type: Type,
	Inputs: []module.PortSpec{
		{Name: "a", Kind: module.Gate},
		{Name: "b", Kind: module.Gate},
	},
	Outputs: []module.PortSpec{
		{Name: "and", Kind: module.Gate},
		{Name: "or", Kind: module.Gate},
		{Name: "xor", Kind: module.Gate},
		{Name: "not", Kind: module.Gate},
	},
	New: New,
}

type logic struct{}

// New returns logic kernel.
func New(module.Config) module.Kernel {
	return logic{}
}

func (logic) Process(io *module.IO) {
	a, b := io.In[0], io.In[1]
	for i := range a {
		x, y := a[i] >= dsp.GateThreshold, b[i] >= dsp.GateThreshold
		io.Out[outAnd][i] = gate(x && y)
		io.Out[outOr][i] = gate(x || y)
		io.Out[outXor][i] = gate(x != y)
		io.Out[outNot][i] = gate(!x)
	}
}

func (logic) Reset() {}

func gate(v bool) float32 {
	if v {
		return dsp.GateHigh
	}
	return 0
}
