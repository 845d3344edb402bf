// Package oscillator provides a voltage-controlled oscillator with
// sine, triangle, saw and pulse outputs.
package oscillator

import (
	"math"

	"pipelined.dev/rack/internal/dsp"
	"pipelined.dev/rack/module"
)

// Type is the catalog type tag.
const Type = "oscillator"

// Port and parameter indices.
const (
	inPitch = iota
	inFM
	inSync
	inPW
)

const (
	paramTune = iota
	paramFine
	paramPW
)

const (
	outSine = iota
	outTriangle
	outSaw
	outPulse
)

const amplitude = 5

// Descriptor of the oscillator.
var Descriptor = module.Descriptor{
	Type: Type,
	Params: []module.ParamSpec{
		{Name: "tune", Min: -24, Max: 24, Default: 0, Unit: module.Semitones},
		{Name: "fine", Min: -1, Max: 1, Default: 0, Unit: module.Semitones},
		{Name: "pw", Min: 0.05, Max: 0.95, Default: 0.5, Unit: module.Normalized},
	},
	Inputs: []module.PortSpec{
		{Name: "pitch", Kind: module.CV},
		{Name: "fm", Kind: module.CV},
		{Name: "sync", Kind: module.Gate},
		{Name: "pw", Kind: module.CV, Default: 5},
	},
	Outputs: []module.PortSpec{
		{Name: "sine", Kind: module.Audio},
		{Name: "triangle", Kind: module.Audio},
		{Name: "saw", Kind: module.Audio},
		{Name: "pulse", Kind: module.Audio},
	},
	New: New,
}

type oscillator struct {
	sampleRate float64
	maxFreq    float64
	phase      float64
	sync       dsp.Trigger
}

// New returns oscillator kernel.
func New(cfg module.Config) module.Kernel {
	return &oscillator{
		sampleRate: cfg.SampleRate,
		maxFreq:    cfg.SampleRate * 0.45,
		sync:       dsp.Trigger{Threshold: dsp.GateThreshold},
	}
}

func (o *oscillator) Process(io *module.IO) {
	pitch, fm, sync, pwIn := io.In[inPitch], io.In[inFM], io.In[inSync], io.In[inPW]
	sine, tri, saw, pulse := io.Out[outSine], io.Out[outTriangle], io.Out[outSaw], io.Out[outPulse]
	offset := (io.Params[paramTune] + io.Params[paramFine]) / 12
	for i := range sine {
		if o.sync.Process(sync[i]) {
			o.phase = 0
		}
		v := dsp.Clamp(float64(pitch[i])+offset, -10, 10)
		mod := dsp.Clamp(float64(fm[i]), -10, 10)
		freq := dsp.Clamp(dsp.VoltToHz(v)*(1+mod/amplitude), 0, o.maxFreq)
		dt := freq / o.sampleRate
		width := dsp.Clamp(io.Params[paramPW]+float64(pwIn[i])/10-0.5, 0.05, 0.95)

		p := o.phase
		sine[i] = float32(amplitude * math.Sin(2*math.Pi*p))
		tri[i] = float32(amplitude * triangle(p))

		s := 2*p - 1 - dsp.PolyBLEP(p, dt)
		saw[i] = float32(dsp.Clamp(amplitude*s, -dsp.AudioLimit, dsp.AudioLimit))

		q := -1.0
		if p < width {
			q = 1
		}
		q += dsp.PolyBLEP(p, dt)
		q -= dsp.PolyBLEP(wrap(p+1-width), dt)
		pulse[i] = float32(dsp.Clamp(amplitude*q, -dsp.AudioLimit, dsp.AudioLimit))

		o.phase = wrap(p + dt)
	}
}

func (o *oscillator) Reset() {
	o.phase = 0
	o.sync.Reset()
}

// triangle is aligned with sine: zero at phase 0, peak at 0.25.
func triangle(p float64) float64 {
	p = wrap(p + 0.25)
	return 1 - 2*math.Abs(2*p-1)
}

func wrap(p float64) float64 {
	p -= math.Floor(p)
	if p >= 1 || p != p {
		return 0
	}
	return p
}
