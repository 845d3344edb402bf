// Package output provides the module which feeds the audio device.
// Audio voltages are scaled to full scale: ±5 V is ±1.0.
package output

import (
	"math"

	"pipelined.dev/rack/internal/dsp"
	"pipelined.dev/rack/module"
)

// Type is the catalog type tag.
const Type = "output"

const (
	fullScale = 5.0
	// outputs are limited slightly below full scale.
	limit = 1.0
	// peak hold decay per second.
	peakDecay = 0.25
)

// Descriptor of the output.
var Descriptor = module.Descriptor{
	Type: Type,
	Params: []module.ParamSpec{
		{Name: "level", Min: 0, Max: 1, Default: 0.8, Unit: module.Normalized},
	},
	Inputs: []module.PortSpec{
		{Name: "left", Kind: module.Audio},
		{Name: "right", Kind: module.Audio},
	},
	Outputs: []module.PortSpec{
		{Name: "left", Kind: module.Audio},
		{Name: "right", Kind: module.Audio},
	},
	LEDs: []string{"left", "right"},
	New:  New,
}

type output struct {
	decay float64
	peaks [2]float64
}

// New returns output kernel.
func New(cfg module.Config) module.Kernel {
	return &output{
		decay: math.Pow(peakDecay, float64(cfg.BlockSize)/cfg.SampleRate),
	}
}

func (o *output) Process(io *module.IO) {
	level := io.Params[0]
	for c := range io.Out {
		in, out := io.In[c], io.Out[c]
		peak := o.peaks[c] * o.decay
		for i := range out {
			v := dsp.SoftClip(level*dsp.Clamp(float64(in[i]), -100, 100)/fullScale, limit)
			out[i] = float32(v)
			if a := math.Abs(v); a > peak {
				peak = a
			}
		}
		o.peaks[c] = peak
		io.LEDs[c] = peak
	}
}

func (o *output) Reset() {
	o.peaks = [2]float64{}
}
