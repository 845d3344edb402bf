// Package filter provides a resonant four-pole ladder filter with
// lowpass, bandpass and highpass outputs.
package filter

import (
	"math"

	"pipelined.dev/rack/internal/dsp"
	"pipelined.dev/rack/module"
)

// Type is the catalog type tag.
const Type = "filter"

const (
	inAudio = iota
	inCutoff
	inResonance
)

const (
	paramCutoff = iota
	paramResonance
	paramDrive
)

const (
	outLowpass = iota
	outBandpass
	outHighpass
)

const (
	minCutoff = 20.0
	maxCutoff = 20000.0
	// feedback gain at full resonance. The loop self-oscillates above
	// gain of about 4.
	maxFeedback = 4.5
	// cutoff slew time constant in seconds.
	slew   = 0.001
	dither = 1e-6
	scale  = 5.0
)

// Descriptor of the filter.
var Descriptor = module.Descriptor{
	Type: Type,
	Params: []module.ParamSpec{
		{Name: "cutoff", Min: 0, Max: 1, Default: 0.5, Unit: module.Normalized},
		{Name: "resonance", Min: 0, Max: 1, Default: 0, Unit: module.Normalized},
		{Name: "drive", Min: 0, Max: 1, Default: 0, Unit: module.Normalized},
	},
	Inputs: []module.PortSpec{
		{Name: "in", Kind: module.Audio},
		{Name: "cutoff", Kind: module.CV},
		{Name: "resonance", Kind: module.CV},
	},
	Outputs: []module.PortSpec{
		{Name: "lowpass", Kind: module.Audio},
		{Name: "bandpass", Kind: module.Audio},
		{Name: "highpass", Kind: module.Audio},
	},
	New: New,
}

type ladder struct {
	sampleRate float64
	maxCutoff  float64
	smooth     float64
	cutoff     float64 // slewed cutoff in Hz
	s          [4]float64
	noise      dsp.Random
}

// New returns filter kernel.
func New(cfg module.Config) module.Kernel {
	return &ladder{
		sampleRate: cfg.SampleRate,
		maxCutoff:  math.Min(maxCutoff, cfg.SampleRate*0.45),
		smooth:     dsp.OnePole(slew, cfg.SampleRate),
	}
}

func (f *ladder) Process(io *module.IO) {
	in, cutoff, res := io.In[inAudio], io.In[inCutoff], io.In[inResonance]
	lp, bp, hp := io.Out[outLowpass], io.Out[outBandpass], io.Out[outHighpass]
	base := minCutoff * math.Pow(maxCutoff/minCutoff, io.Params[paramCutoff])
	gain := 1 + 3*io.Params[paramDrive]
	for i := range in {
		target := dsp.Clamp(base*math.Exp2(dsp.Clamp(float64(cutoff[i]), -10, 10)), minCutoff, f.maxCutoff)
		if f.cutoff == 0 {
			f.cutoff = target
		}
		f.cutoff += (target - f.cutoff) * f.smooth
		g := 1 - math.Exp(-2*math.Pi*f.cutoff/f.sampleRate)
		k := maxFeedback * dsp.Clamp(io.Params[paramResonance]+float64(res[i])/10, 0, 1)

		x := gain * dsp.Clamp(float64(in[i]), -100, 100) / scale
		u := math.Tanh(x - k*math.Tanh(f.s[3]) + dither*f.noise.Float())
		f.s[0] = dsp.Flush(f.s[0] + g*(u-f.s[0]))
		f.s[1] = dsp.Flush(f.s[1] + g*(f.s[0]-f.s[1]))
		f.s[2] = dsp.Flush(f.s[2] + g*(f.s[1]-f.s[2]))
		f.s[3] = dsp.Flush(f.s[3] + g*(f.s[2]-f.s[3]))

		s1, s2, s3, s4 := f.s[0], f.s[1], f.s[2], f.s[3]
		lp[i] = output(s4)
		bp[i] = output(4*s2 - 8*s3 + 4*s4)
		hp[i] = output(u - 4*s1 + 6*s2 - 4*s3 + s4)
	}
}

func (f *ladder) Reset() {
	f.s = [4]float64{}
	f.cutoff = 0
}

func output(v float64) float32 {
	return float32(dsp.SoftClip(scale*v, dsp.AudioLimit))
}
