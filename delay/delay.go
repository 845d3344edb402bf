// Package delay provides a feedback delay effect.
package delay

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/delay"

	"pipelined.dev/rack/internal/dsp"
	"pipelined.dev/rack/module"
)

// Type is the catalog type tag.
const Type = "delay"

const (
	inAudio = iota
	inTime
)

const (
	paramTime = iota
	paramFeedback
	paramMix
)

const (
	minTime = 0.001
	maxTime = 1.0
	// delay time slew in seconds.
	slew = 0.05
	// interpolation reads up to three samples around the tap.
	guard = 4
)

// Descriptor of the delay.
var Descriptor = module.Descriptor{
	Type: Type,
	Params: []module.ParamSpec{
		{Name: "time", Min: 0, Max: 1, Default: 0.5, Unit: module.Normalized},
		{Name: "feedback", Min: 0, Max: 0.95, Default: 0.3, Unit: module.Normalized},
		{Name: "mix", Min: 0, Max: 1, Default: 0.5, Unit: module.Normalized},
	},
	Inputs: []module.PortSpec{
		{Name: "in", Kind: module.Audio},
		{Name: "time", Kind: module.CV},
	},
	Outputs: []module.PortSpec{
		{Name: "out", Kind: module.Audio},
	},
	New: New,
}

// Time maps normalized knob position to delay time in seconds.
func Time(v float64) float64 {
	return minTime * math.Pow(maxTime/minTime, dsp.Clamp(v, 0, 1))
}

type effect struct {
	sampleRate float64
	line       *delay.Line
	smooth     float64
	samples    float64 // slewed delay in samples
}

// New returns delay kernel.
func New(cfg module.Config) module.Kernel {
	line, err := delay.New(int(math.Ceil(maxTime*cfg.SampleRate)) + guard)
	if err != nil {
		panic(err)
	}
	return &effect{
		sampleRate: cfg.SampleRate,
		line:       line,
		smooth:     dsp.OnePole(slew, cfg.SampleRate),
	}
}

func (e *effect) Process(io *module.IO) {
	in, tm, out := io.In[inAudio], io.In[inTime], io.Out[0]
	feedback := io.Params[paramFeedback]
	mix := io.Params[paramMix]
	for i := range out {
		target := Time(io.Params[paramTime]+dsp.Clamp(float64(tm[i]), -10, 10)/10) * e.sampleRate
		if e.samples == 0 {
			e.samples = target
		}
		e.samples += (target - e.samples) * e.smooth

		x := dsp.Clamp(float64(in[i]), -100, 100)
		wet := dsp.Flush(e.line.ReadFractional(e.samples))
		e.line.Write(dsp.SoftClip(x+feedback*wet, 2*dsp.AudioLimit))
		out[i] = float32(dsp.Clamp((1-mix)*x+mix*wet, -dsp.AudioLimit, dsp.AudioLimit))
	}
}

func (e *effect) Reset() {
	e.line.Reset()
	e.samples = 0
}
