// Package meter measures level and dominant frequency of a signal. The
// signal is passed through, limited to the audio range.
package meter

import (
	"math"
	"math/cmplx"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-dsp/dsp/window"

	"pipelined.dev/rack/internal/dsp"
	"pipelined.dev/rack/module"
)

// Type is the catalog type tag.
const Type = "meter"

// FFTSize is the number of samples analysed for the frequency readout.
const FFTSize = 1024

const (
	ledRMS = iota
	ledPeak
	ledFreq
)

// peak hold decay per second.
const peakDecay = 0.5

// Descriptor of the meter.
var Descriptor = module.Descriptor{
	Type: Type,
	Inputs: []module.PortSpec{
		{Name: "in", Kind: module.Audio},
	},
	Outputs: []module.PortSpec{
		{Name: "thru", Kind: module.Audio},
	},
	LEDs: []string{"rms", "peak", "freq"},
	New:  New,
}

type meter struct {
	sampleRate float64
	decay      float64
	peak       float64
	freq       float64

	plan   *algofft.Plan[complex128]
	window []float64
	ring   []float64
	filled int
	in     []complex128
	out    []complex128
}

// New returns meter kernel.
func New(cfg module.Config) module.Kernel {
	plan, err := algofft.NewPlan64(FFTSize)
	if err != nil {
		panic(err)
	}
	return &meter{
		sampleRate: cfg.SampleRate,
		decay:      math.Pow(peakDecay, float64(cfg.BlockSize)/cfg.SampleRate),
		plan:       plan,
		window:     window.Generate(window.TypeHann, FFTSize, window.WithPeriodic()),
		ring:       make([]float64, FFTSize),
		in:         make([]complex128, FFTSize),
		out:        make([]complex128, FFTSize),
	}
}

func (m *meter) Process(io *module.IO) {
	in, thru := io.In[0], io.Out[0]
	sum := 0.0
	peak := m.peak * m.decay
	for i := range in {
		v := float64(dsp.Clamp32(in[i], -dsp.AudioLimit, dsp.AudioLimit))
		thru[i] = float32(v)
		sum += v * v
		if a := math.Abs(v); a > peak {
			peak = a
		}
		m.ring[m.filled] = v
		m.filled++
		if m.filled == FFTSize {
			m.analyse()
			m.filled = 0
		}
	}
	m.peak = peak
	io.LEDs[ledRMS] = math.Sqrt(sum / float64(len(in)))
	io.LEDs[ledPeak] = m.peak
	io.LEDs[ledFreq] = m.freq
}

// analyse finds the strongest bin of the windowed frame and refines it
// with parabolic interpolation.
func (m *meter) analyse() {
	for i, v := range m.ring {
		m.in[i] = complex(v*m.window[i], 0)
	}
	if err := m.plan.Forward(m.out, m.in); err != nil {
		return
	}
	best, magnitude := 0, 0.0
	for k := 1; k < FFTSize/2; k++ {
		if a := cmplx.Abs(m.out[k]); a > magnitude {
			best, magnitude = k, a
		}
	}
	if best == 0 || magnitude < 1e-6 {
		m.freq = 0
		return
	}
	l, c, r := cmplx.Abs(m.out[best-1]), magnitude, cmplx.Abs(m.out[best+1])
	shift := 0.0
	if d := l - 2*c + r; d != 0 {
		shift = 0.5 * (l - r) / d
	}
	m.freq = (float64(best) + shift) * m.sampleRate / FFTSize
}

func (m *meter) Reset() {
	m.peak = 0
	m.freq = 0
	m.filled = 0
	for i := range m.ring {
		m.ring[i] = 0
	}
}
