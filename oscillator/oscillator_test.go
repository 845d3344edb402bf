package oscillator_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"pipelined.dev/rack/module"
	"pipelined.dev/rack/oscillator"
)

var cfg = module.Config{SampleRate: 48000, BlockSize: 64}

// render processes the oscillator for provided number of samples and
// returns the output port.
func render(t *testing.T, inst *module.Instance, output string, samples int) []float32 {
	t.Helper()
	var result []float32
	for n := 0; n < samples; n += cfg.BlockSize {
		inst.Process(nil)
		out, ok := inst.Output(output)
		assert.True(t, ok)
		result = append(result, out...)
	}
	return result
}

func crossings(signal []float32) int {
	n := 0
	for i := 1; i < len(signal); i++ {
		if signal[i-1] < 0 && signal[i] >= 0 {
			n++
		}
	}
	return n
}

func withInput(inst *module.Instance, port string, v float32) {
	buf := make(module.Buffer, cfg.BlockSize)
	buf.Fill(v)
	inst.Bind(inst.Descriptor().Input(port), buf)
}

func TestOctave(t *testing.T) {
	tests := []struct {
		pitch    float32
		expected float64
	}{
		{pitch: 0, expected: 261.6256},
		{pitch: 1, expected: 523.2511},
		{pitch: -2, expected: 65.4064},
		{pitch: 0.75, expected: 440},
	}
	for _, test := range tests {
		inst := module.NewInstance("osc", 0, oscillator.Descriptor, cfg)
		withInput(inst, "pitch", test.pitch)
		for _, output := range []string{"sine", "triangle", "saw", "pulse"} {
			inst.Reset()
			signal := render(t, inst, output, int(cfg.SampleRate))
			assert.InDelta(t, test.expected, float64(crossings(signal)), 1.5, "pitch %v output %s", test.pitch, output)
		}
	}
}

func TestTune(t *testing.T) {
	inst := module.NewInstance("osc", 0, oscillator.Descriptor, cfg)
	assert.NoError(t, inst.SetParam("tune", 12))
	signal := render(t, inst, "sine", int(cfg.SampleRate))
	assert.InDelta(t, 523.25, float64(crossings(signal)), 1.5)
}

func TestSync(t *testing.T) {
	inst := module.NewInstance("osc", 0, oscillator.Descriptor, cfg)
	render(t, inst, "saw", 1000)
	sync := make(module.Buffer, cfg.BlockSize)
	sync[0] = 10
	inst.Bind(inst.Descriptor().Input("sync"), sync)
	inst.Process(nil)
	sine, _ := inst.Output("sine")
	assert.Equal(t, float32(0), sine[0])
}

func TestRange(t *testing.T) {
	inputs := []float32{
		float32(math.NaN()),
		float32(math.Inf(1)),
		float32(math.Inf(-1)),
		1e30,
		-1e30,
	}
	for _, v := range inputs {
		inst := module.NewInstance("osc", 0, oscillator.Descriptor, cfg)
		for _, port := range []string{"pitch", "fm", "sync", "pw"} {
			withInput(inst, port, v)
		}
		for i := 0; i < 10; i++ {
			inst.Process(nil)
			for _, out := range inst.Outputs() {
				for _, s := range out {
					assert.False(t, math.IsNaN(float64(s)) || math.IsInf(float64(s), 0))
					assert.LessOrEqual(t, math.Abs(float64(s)), 10.0)
				}
			}
		}
	}
}
