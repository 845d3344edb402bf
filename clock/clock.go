// Package clock provides a pulse generator with exponential rate
// control.
package clock

import (
	"math"

	"pipelined.dev/rack/internal/dsp"
	"pipelined.dev/rack/module"
)

// Type is the catalog type tag.
const Type = "clock"

const (
	inRate = iota
	inPause
	inReset
)

const (
	paramRate = iota
	paramWidth
)

const (
	minRate = 0.5
	maxRate = 4000.0
	// pause input halts the clock above this level.
	pauseLevel = 2
)

// Descriptor of the clock.
var Descriptor = module.Descriptor{
	Type: Type,
	Params: []module.ParamSpec{
		{Name: "rate", Min: 0, Max: 1, Default: 0.3, Unit: module.Normalized},
		{Name: "width", Min: 0.1, Max: 0.9, Default: 0.5, Unit: module.Normalized},
	},
	Inputs: []module.PortSpec{
		{Name: "rate", Kind: module.CV},
		{Name: "pause", Kind: module.Gate},
		{Name: "reset", Kind: module.Gate},
	},
	Outputs: []module.PortSpec{
		{Name: "clock", Kind: module.Gate},
	},
	LEDs: []string{"hz"},
	New:  New,
}

// Rate maps normalized knob position to frequency in Hz.
func Rate(v float64) float64 {
	return minRate * dsp.FastExp2(dsp.Clamp(v, 0, 1)*math.Log2(maxRate/minRate))
}

type clock struct {
	sampleRate float64
	phase      float64
	reset      dsp.Trigger
}

// New returns clock kernel.
func New(cfg module.Config) module.Kernel {
	return &clock{
		sampleRate: cfg.SampleRate,
		reset:      dsp.Trigger{Threshold: dsp.GateThreshold},
	}
}

func (c *clock) Process(io *module.IO) {
	rate, pause, reset := io.In[inRate], io.In[inPause], io.In[inReset]
	out := io.Out[0]
	base := Rate(io.Params[paramRate])
	width := io.Params[paramWidth]
	maxFreq := c.sampleRate / 4
	freq := base
	for i := range out {
		if c.reset.Process(reset[i]) {
			c.phase = 0
		}
		if c.phase < width {
			out[i] = dsp.GateHigh
		} else {
			out[i] = 0
		}
		if pause[i] > pauseLevel {
			continue
		}
		freq = dsp.Clamp(base*math.Exp2(dsp.Clamp(float64(rate[i]), -10, 10)), 0, maxFreq)
		c.phase += freq / c.sampleRate
		if c.phase >= 1 {
			c.phase -= math.Floor(c.phase)
		}
	}
	io.LEDs[0] = freq
}

func (c *clock) Reset() {
	c.phase = 0
	c.reset.Reset()
}
