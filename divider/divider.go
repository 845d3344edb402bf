// Package divider provides a clock divider and multiplier.
//
// Division by N passes every N-th input pulse starting with the first
// one. Multiplication by N passes every input pulse and inserts N-1
// pulses evenly spaced over the last measured input period, so the
// output stays phase-locked to the input.
package divider

import (
	"pipelined.dev/rack/internal/dsp"
	"pipelined.dev/rack/module"
)

// Type is the catalog type tag.
const Type = "divider"

const (
	inClock = iota
	inReset
)

// modes are divisions 8 to 2, unity and multiplications 2 to 8.
const (
	maxFactor = 8
	unity     = maxFactor - 1
	maxMode   = 2 * unity
	// pulse width of multiplied pulses relative to their period.
	duty = 0.25
	// width of multiplied pulses until the input period is measured.
	initialWidth = 0.001
)

// Descriptor of the divider.
var Descriptor = module.Descriptor{
	Type: Type,
	Params: []module.ParamSpec{
		{Name: "mode", Min: 0, Max: maxMode, Default: unity, Unit: module.Mode},
	},
	Inputs: []module.PortSpec{
		{Name: "clock", Kind: module.Gate},
		{Name: "reset", Kind: module.Gate},
	},
	Outputs: []module.PortSpec{
		{Name: "out", Kind: module.Gate},
	},
	New: New,
}

// Factor returns division or multiplication factor of the mode. Division
// is returned as a negative number, unity as 1.
func Factor(mode int) int {
	switch {
	case mode < unity:
		return -(maxFactor - mode)
	case mode > unity:
		return mode - unity + 1
	}
	return 1
}

type divider struct {
	sampleRate float64
	clock      dsp.Trigger
	reset      dsp.Trigger

	// division state
	count int
	pass  bool

	// multiplication state
	since     int     // samples since the last input edge
	period    int     // last measured input period
	next      float64 // position of the next inserted pulse
	inserted  int
	remaining int // samples left of the current pulse
	level     float32
}

// New returns divider kernel.
func New(cfg module.Config) module.Kernel {
	return &divider{
		sampleRate: cfg.SampleRate,
		clock:      dsp.Trigger{Threshold: dsp.GateThreshold},
		reset:      dsp.Trigger{Threshold: dsp.GateThreshold},
	}
}

func (d *divider) Process(io *module.IO) {
	clock, reset := io.In[inClock], io.In[inReset]
	out := io.Out[0]
	factor := Factor(int(io.Params[0]))
	for i := range out {
		if d.reset.Process(reset[i]) {
			d.count = 0
			d.pass = false
			d.remaining = 0
			d.inserted = 0
			d.next = 0
		}
		v := dsp.Finite(clock[i])
		edge := d.clock.Process(v)
		if factor <= 1 {
			out[i] = d.divide(v, edge, -factor)
		} else {
			out[i] = d.multiply(v, edge, factor)
		}
	}
}

func (d *divider) divide(v float32, edge bool, n int) float32 {
	if n < 1 {
		n = 1
	}
	if edge {
		d.pass = d.count%n == 0
		d.count++
	}
	if d.pass && d.clock.High() {
		return dsp.Clamp32(v, 0, dsp.AudioLimit)
	}
	d.pass = d.pass && d.clock.High()
	return 0
}

func (d *divider) multiply(v float32, edge bool, n int) float32 {
	d.since++
	if edge {
		if d.count > 0 {
			d.period = d.since
		}
		d.count++
		d.since = 0
		d.level = dsp.Clamp32(v, 0, dsp.AudioLimit)
		d.start(n)
		d.inserted = 0
		d.next = float64(d.period) / float64(n)
	} else if d.period > 0 && d.inserted < n-1 && float64(d.since) >= d.next {
		d.start(n)
		d.inserted++
		d.next += float64(d.period) / float64(n)
	}
	if d.remaining > 0 {
		d.remaining--
		return d.level
	}
	return 0
}

// start begins an output pulse.
func (d *divider) start(n int) {
	width := int(initialWidth * d.sampleRate)
	if d.period > 0 {
		width = int(duty * float64(d.period) / float64(n))
	}
	if width < 1 {
		width = 1
	}
	d.remaining = width
}

func (d *divider) Reset() {
	*d = divider{
		sampleRate: d.sampleRate,
		clock:      dsp.Trigger{Threshold: dsp.GateThreshold},
		reset:      dsp.Trigger{Threshold: dsp.GateThreshold},
	}
}
