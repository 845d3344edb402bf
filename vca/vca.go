// Package vca provides a voltage-controlled amplifier.
package vca

import (
	"pipelined.dev/rack/internal/dsp"
	"pipelined.dev/rack/module"
)

// Type is the catalog type tag.
const Type = "vca"

// Descriptor of the amplifier. Unpatched control input is fully open.
var Descriptor = module.Descriptor{
	Type: Type,
	Params: []module.ParamSpec{
		{Name: "gain", Min: 0, Max: 1, Default: 1, Unit: module.Normalized},
	},
	Inputs: []module.PortSpec{
		{Name: "in", Kind: module.Audio},
		{Name: "cv", Kind: module.CV, Default: 10},
	},
	Outputs: []module.PortSpec{
		{Name: "out", Kind: module.Audio},
	},
	New: New,
}

type vca struct{}

// New returns amplifier kernel.
func New(module.Config) module.Kernel {
	return vca{}
}

func (vca) Process(io *module.IO) {
	in, cv, out := io.In[0], io.In[1], io.Out[0]
	gain := float32(io.Params[0])
	for i := range out {
		g := dsp.Clamp32(cv[i]/10, 0, 1) * gain
		out[i] = dsp.Clamp32(in[i]*g, -dsp.AudioLimit, dsp.AudioLimit)
	}
}

func (vca) Reset() {}
