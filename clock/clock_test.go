package clock_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"pipelined.dev/rack/clock"
	"pipelined.dev/rack/module"
)

var cfg = module.Config{SampleRate: 48000, BlockSize: 100}

func render(inst *module.Instance, blocks int) []float32 {
	var result []float32
	for i := 0; i < blocks; i++ {
		inst.Process(nil)
		out, _ := inst.Output("clock")
		result = append(result, out...)
	}
	return result
}

func pulses(s []float32) int {
	n := 0
	high := false
	for _, v := range s {
		if v >= 1 && !high {
			n++
		}
		high = v >= 1
	}
	return n
}

func TestRate(t *testing.T) {
	assert.InEpsilon(t, 0.5, clock.Rate(0), 0.02)
	assert.InEpsilon(t, 4000, clock.Rate(1), 0.02)
}

func TestClock(t *testing.T) {
	inst := module.NewInstance("clk", 0, clock.Descriptor, cfg)
	// 10 Hz
	rate := make(module.Buffer, cfg.BlockSize)
	rate.Fill(float32(math.Log2(10 / clock.Rate(0.3))))
	inst.Bind(clock.Descriptor.Input("rate"), rate)

	signal := render(inst, 480)
	assert.InDelta(t, 10, pulses(signal), 1)
	assert.Equal(t, float32(10), signal[0])
	hz, err := inst.LED("hz")
	assert.NoError(t, err)
	assert.InDelta(t, 10, hz, 0.01)
}

func TestPauseAndReset(t *testing.T) {
	inst := module.NewInstance("clk", 0, clock.Descriptor, cfg)
	pause := make(module.Buffer, cfg.BlockSize)
	pause.Fill(5)
	inst.Bind(clock.Descriptor.Input("pause"), pause)

	assert.NoError(t, inst.SetParam("rate", 1))
	render(inst, 1)
	out, _ := inst.Output("clock")
	// phase is held at zero, the clock stays high
	for _, v := range out {
		assert.Equal(t, float32(10), v)
	}

	pause.Fill(0)
	signal := render(inst, 10)
	assert.Greater(t, pulses(signal), 1)

	reset := make(module.Buffer, cfg.BlockSize)
	reset[0] = 10
	inst.Bind(clock.Descriptor.Input("reset"), reset)
	render(inst, 1)
	out, _ = inst.Output("clock")
	assert.Equal(t, float32(10), out[0])
}
