// Package envelope provides an ADSR envelope generator.
//
// Attack is an exponential approach towards 12 V which is cut at 10 V,
// so it reaches the peak in the attack time. Decay and release are
// exponential approaches to the sustain level and zero. When release
// reaches zero, a short end-of-cycle pulse is emitted.
package envelope

import (
	"math"

	"pipelined.dev/rack/internal/dsp"
	"pipelined.dev/rack/module"
)

// Type is the catalog type tag.
const Type = "envelope"

const (
	inGate = iota
	inRetrig
	inAttack
	inDecay
	inRelease
)

const (
	paramAttack = iota
	paramDecay
	paramSustain
	paramRelease
)

const (
	outEnv = iota
	outInv
	outEOC
)

// Stage of the envelope.
type Stage int

// Envelope stages, reported by the stage telemetry.
const (
	Idle Stage = iota
	Attack
	Decay
	Sustain
	Release
)

const (
	minTime = 0.001
	maxTime = 10.0
	// attack target relative to peak.
	overshoot = 1.2
	// decay and release stop at this distance from the target.
	floor = 1e-4
	// time constants per stage time, decay and release reach floor in
	// their stage time.
	settle   = 9.2103 // -ln(floor)
	eocTime  = 0.001
	peak     = 10.0
	smoothUp = 0.005
)

// Descriptor of the envelope.
var Descriptor = module.Descriptor{
	Type: Type,
	Params: []module.ParamSpec{
		{Name: "attack", Min: 0, Max: 1, Default: 0.25, Unit: module.Normalized},
		{Name: "decay", Min: 0, Max: 1, Default: 0.5, Unit: module.Normalized},
		{Name: "sustain", Min: 0, Max: 1, Default: 0.5, Unit: module.Normalized},
		{Name: "release", Min: 0, Max: 1, Default: 0.5, Unit: module.Normalized},
	},
	Inputs: []module.PortSpec{
		{Name: "gate", Kind: module.Gate},
		{Name: "retrig", Kind: module.Gate},
		{Name: "attack", Kind: module.CV},
		{Name: "decay", Kind: module.CV},
		{Name: "release", Kind: module.CV},
	},
	Outputs: []module.PortSpec{
		{Name: "env", Kind: module.CV},
		{Name: "inv", Kind: module.CV},
		{Name: "eoc", Kind: module.Gate},
	},
	LEDs: []string{"stage"},
	New:  New,
}

type adsr struct {
	sampleRate float64
	eocLength  int
	stage      Stage
	level      float64
	eoc        int
	gate       dsp.Trigger
	retrig     dsp.Trigger
}

// New returns envelope kernel.
func New(cfg module.Config) module.Kernel {
	return &adsr{
		sampleRate: cfg.SampleRate,
		eocLength:  int(math.Ceil(eocTime * cfg.SampleRate)),
		gate:       dsp.Trigger{Threshold: dsp.GateThreshold},
		retrig:     dsp.Trigger{Threshold: dsp.GateThreshold},
	}
}

// StageTime maps normalized knob position to stage time in seconds.
func StageTime(v float64) float64 {
	v = dsp.Clamp(v, 0, 1)
	return minTime * dsp.FastExp2(v*math.Log2(maxTime/minTime))
}

func (e *adsr) coefficient(param float64, cv float32, rate float64) float64 {
	t := StageTime(param + dsp.Clamp(float64(cv), -10, 10)/10)
	return 1 - math.Exp(-rate/(t*e.sampleRate))
}

func (e *adsr) Process(io *module.IO) {
	gate, retrig := io.In[inGate], io.In[inRetrig]
	env, inv, eoc := io.Out[outEnv], io.Out[outInv], io.Out[outEOC]
	// coefficients are updated once per block
	attack := e.coefficient(io.Params[paramAttack], io.In[inAttack][0], math.Log(overshoot/(overshoot-1)))
	decay := e.coefficient(io.Params[paramDecay], io.In[inDecay][0], settle)
	release := e.coefficient(io.Params[paramRelease], io.In[inRelease][0], settle)
	sustain := io.Params[paramSustain]
	smooth := dsp.OnePole(smoothUp, e.sampleRate)

	for i := range env {
		wasHigh := e.gate.High()
		if e.gate.Process(gate[i]) {
			e.stage = Attack
		} else if wasHigh && !e.gate.High() && e.stage != Idle {
			e.stage = Release
		}
		if e.retrig.Process(retrig[i]) && e.gate.High() {
			e.stage = Attack
		}

		switch e.stage {
		case Attack:
			e.level += (overshoot - e.level) * attack
			if e.level >= 1 {
				e.level = 1
				e.stage = Decay
			}
		case Decay:
			e.level += (sustain - e.level) * decay
			if math.Abs(e.level-sustain) < floor {
				e.level = sustain
				e.stage = Sustain
			}
		case Sustain:
			e.level += (sustain - e.level) * smooth
		case Release:
			e.level += -e.level * release
			if e.level < floor {
				e.level = 0
				e.stage = Idle
				e.eoc = e.eocLength
			}
		}
		e.level = dsp.Flush(e.level)

		env[i] = float32(peak * e.level)
		inv[i] = float32(peak * (1 - e.level))
		if e.eoc > 0 {
			e.eoc--
			eoc[i] = dsp.GateHigh
		} else {
			eoc[i] = 0
		}
	}
	io.LEDs[0] = float64(e.stage)
}

func (e *adsr) Reset() {
	e.stage = Idle
	e.level = 0
	e.eoc = 0
	e.gate.Reset()
	e.retrig.Reset()
}
