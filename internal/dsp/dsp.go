// Package dsp contains helpers shared by the rack kernels.
package dsp

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/meko-christian/algo-approx"
)

// C4 is the frequency of 0 V on a 1 V/oct input.
const C4 = 261.6256

const (
	// GateHigh is the output level of an active gate.
	GateHigh = 10
	// GateThreshold is the level at which gate inputs are high.
	GateThreshold = 1
	// AudioLimit bounds audio outputs.
	AudioLimit = 10
)

// Finite returns v with NaN replaced by zero and infinities clamped to
// the largest float32.
func Finite(v float32) float32 {
	switch {
	case v != v:
		return 0
	case v > math.MaxFloat32:
		return math.MaxFloat32
	case v < -math.MaxFloat32:
		return -math.MaxFloat32
	}
	return v
}

// Clamp limits v to [lo, hi]. NaN is mapped to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return core.Clamp(v, lo, hi)
}

// Clamp32 limits v to [lo, hi]. NaN is mapped to zero if it's within the
// range and lo otherwise.
func Clamp32(v, lo, hi float32) float32 {
	if v != v {
		if lo <= 0 && hi >= 0 {
			return 0
		}
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Flush converts denormal values to zero. NaN and infinities are
// flushed too, so kernel state never gets stuck in a non-finite value.
func Flush(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return core.FlushDenormals(v)
}

// SoftClip saturates v smoothly towards ±limit.
func SoftClip(v, limit float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return limit * math.Tanh(v/limit)
}

// VoltToHz converts 1 V/oct pitch to frequency.
func VoltToHz(v float64) float64 {
	return C4 * math.Exp2(v)
}

// FastExp2 returns approximation of 2**x. It's used for rate laws where
// exact tuning doesn't matter.
func FastExp2(x float64) float64 {
	const ln2 = 0.693147180559945309417232121458
	if x > 60 {
		x = 60
	} else if x < -60 {
		x = -60
	}
	return approx.FastExp(x * ln2)
}

// OnePole returns the coefficient of one-pole smoothing with time
// constant tau seconds.
func OnePole(tau, sampleRate float64) float64 {
	if tau <= 0 {
		return 1
	}
	return 1 - math.Exp(-1/(tau*sampleRate))
}

// PolyBLEP returns the band-limited step correction for phase t in [0, 1)
// advancing dt per sample.
func PolyBLEP(t, dt float64) float64 {
	switch {
	case t < dt:
		t /= dt
		return t + t - t*t - 1
	case t > 1-dt:
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}

// Trigger detects rising edges. The first sample is compared against the
// last sample of the previous block.
type Trigger struct {
	Threshold float32
	high      bool
}

// Process returns true if v crosses the threshold upwards. Hysteresis of
// 10% avoids retriggering on noisy signals.
func (t *Trigger) Process(v float32) bool {
	if t.high {
		if v < t.Threshold*0.9 || v != v {
			t.high = false
		}
		return false
	}
	if v >= t.Threshold {
		t.high = true
		return true
	}
	return false
}

// High returns current state of the trigger.
func (t *Trigger) High() bool {
	return t.high
}

// Reset returns the trigger to low state.
func (t *Trigger) Reset() {
	t.high = false
}

// Random is a xorshift generator.
type Random uint32

// Float returns a uniformly distributed value in [-1, 1).
func (r *Random) Float() float64 {
	x := uint32(*r)
	if x == 0 {
		x = 2463534242
	}
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	*r = Random(x)
	return float64(x)/2147483648 - 1
}
