// Package sampleandhold samples its input on trigger and provides a
// white noise source.
package sampleandhold

import (
	"pipelined.dev/rack/internal/dsp"
	"pipelined.dev/rack/module"
)

// Type is the catalog type tag.
const Type = "sampleandhold"

// Descriptor of the sample and hold.
var Descriptor = module.Descriptor{
	Type: Type,
	Inputs: []module.PortSpec{
		{Name: "in", Kind: module.CV},
		{Name: "trigger", Kind: module.Gate},
	},
	Outputs: []module.PortSpec{
		{Name: "out", Kind: module.CV},
		{Name: "noise", Kind: module.Audio},
	},
	New: New,
}

type sampleAndHold struct {
	trigger dsp.Trigger
	held    float32
	noise   dsp.Random
}

// New returns sample and hold kernel.
func New(module.Config) module.Kernel {
	return &sampleAndHold{
		trigger: dsp.Trigger{Threshold: dsp.GateThreshold},
	}
}

func (s *sampleAndHold) Process(io *module.IO) {
	in, trigger := io.In[0], io.In[1]
	out, noise := io.Out[0], io.Out[1]
	for i := range out {
		if s.trigger.Process(trigger[i]) {
			s.held = dsp.Clamp32(in[i], -dsp.AudioLimit, dsp.AudioLimit)
		}
		out[i] = s.held
		noise[i] = float32(5 * s.noise.Float())
	}
}

func (s *sampleAndHold) Reset() {
	s.held = 0
	s.trigger.Reset()
}
