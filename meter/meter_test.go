package meter_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"pipelined.dev/rack/meter"
	"pipelined.dev/rack/module"
)

var cfg = module.Config{SampleRate: 48000, BlockSize: 256}

func TestMeter(t *testing.T) {
	inst := module.NewInstance("meter", 0, meter.Descriptor, cfg)
	in := make(module.Buffer, cfg.BlockSize)
	inst.Bind(meter.Descriptor.Input("in"), in)

	const freq = 1000.0
	n := 0
	for b := 0; b < 2*meter.FFTSize/cfg.BlockSize; b++ {
		for i := range in {
			in[i] = float32(5 * math.Sin(2*math.Pi*freq*float64(n)/cfg.SampleRate))
			n++
		}
		inst.Process(nil)
	}
	thru, _ := inst.Output("thru")
	assert.Equal(t, in, thru)

	rms, err := inst.LED("rms")
	assert.NoError(t, err)
	assert.InDelta(t, 5/math.Sqrt2, rms, 0.05)
	peak, _ := inst.LED("peak")
	assert.InDelta(t, 5, peak, 0.01)
	f, _ := inst.LED("freq")
	assert.InDelta(t, freq, f, 25)

	inst.Reset()
	f, _ = inst.LED("freq")
	assert.Equal(t, 0.0, f)
}
