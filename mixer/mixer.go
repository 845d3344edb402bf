// Package mixer provides a four channel audio mixer.
package mixer

import (
	"pipelined.dev/rack/internal/dsp"
	"pipelined.dev/rack/module"
)

// Type is the catalog type tag.
const Type = "mixer"

const channels = 4

// Descriptor of the mixer.
var Descriptor = module.Descriptor{
	Type: Type,
	Params: []module.ParamSpec{
		{Name: "level1", Min: 0, Max: 1, Default: 1, Unit: module.Normalized},
		{Name: "level2", Min: 0, Max: 1, Default: 1, Unit: module.Normalized},
		{Name: "level3", Min: 0, Max: 1, Default: 1, Unit: module.Normalized},
		{Name: "level4", Min: 0, Max: 1, Default: 1, Unit: module.Normalized},
		{Name: "master", Min: 0, Max: 1, Default: 0.8, Unit: module.Normalized},
	},
	Inputs: []module.PortSpec{
		{Name: "in1", Kind: module.Audio},
		{Name: "in2", Kind: module.Audio},
		{Name: "in3", Kind: module.Audio},
		{Name: "in4", Kind: module.Audio},
	},
	Outputs: []module.PortSpec{
		{Name: "mix", Kind: module.Audio},
	},
	New: New,
}

type mixer struct{}

// New returns mixer kernel.
func New(module.Config) module.Kernel {
	return mixer{}
}

func (mixer) Process(io *module.IO) {
	out := io.Out[0]
	master := io.Params[channels]
	for i := range out {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += io.Params[c] * dsp.Clamp(float64(io.In[c][i]), -100, 100)
		}
		out[i] = float32(dsp.SoftClip(master*sum, dsp.AudioLimit))
	}
}

func (mixer) Reset() {}
