package dsp_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"pipelined.dev/rack/internal/dsp"
)

func TestVoltToHz(t *testing.T) {
	tests := []struct {
		volts    float64
		expected float64
	}{
		{volts: 0, expected: dsp.C4},
		{volts: 1, expected: 2 * dsp.C4},
		{volts: -1, expected: dsp.C4 / 2},
		{volts: 0.75, expected: 440},
	}
	for _, test := range tests {
		assert.InEpsilon(t, test.expected, dsp.VoltToHz(test.volts), 0.005)
	}
}

func TestFinite(t *testing.T) {
	assert.Equal(t, float32(0), dsp.Finite(float32(math.NaN())))
	assert.Equal(t, float32(math.MaxFloat32), dsp.Finite(float32(math.Inf(1))))
	assert.Equal(t, float32(-math.MaxFloat32), dsp.Finite(float32(math.Inf(-1))))
	assert.Equal(t, float32(1.5), dsp.Finite(1.5))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, dsp.Clamp(math.NaN(), 0, 1))
	assert.Equal(t, 1.0, dsp.Clamp(math.Inf(1), 0, 1))
	assert.Equal(t, float32(0), dsp.Clamp32(float32(math.NaN()), -1, 1))
	assert.Equal(t, float32(2), dsp.Clamp32(float32(math.NaN()), 2, 3))
	assert.Equal(t, float32(-1), dsp.Clamp32(-5, -1, 1))
}

func TestFlush(t *testing.T) {
	assert.Equal(t, 0.0, dsp.Flush(1e-35))
	assert.Equal(t, 0.0, dsp.Flush(math.NaN()))
	assert.Equal(t, 0.0, dsp.Flush(math.Inf(-1)))
	assert.Equal(t, 0.5, dsp.Flush(0.5))
}

func TestSoftClip(t *testing.T) {
	assert.InDelta(t, 10, dsp.SoftClip(1e6, 10), 1e-9)
	assert.InDelta(t, 0.1, dsp.SoftClip(0.1, 10), 1e-4)
	assert.Equal(t, 0.0, dsp.SoftClip(math.NaN(), 10))
}

func TestTrigger(t *testing.T) {
	trig := dsp.Trigger{Threshold: 1}
	signal := []float32{0, 1, 10, 0.95, 10, 0, 0.5, 1, float32(math.NaN()), 2}
	expected := []bool{false, true, false, false, false, false, false, true, false, true}
	for i, v := range signal {
		assert.Equal(t, expected[i], trig.Process(v), "sample %d", i)
	}
	trig.Reset()
	assert.False(t, trig.High())
}

func TestPolyBLEP(t *testing.T) {
	assert.Equal(t, 0.0, dsp.PolyBLEP(0.5, 0.01))
	assert.InDelta(t, -1, dsp.PolyBLEP(0, 0.01), 1e-9)
	assert.InDelta(t, 1, dsp.PolyBLEP(1, 0.01), 1e-9)
}

func TestRandom(t *testing.T) {
	var r dsp.Random
	sum := 0.0
	for i := 0; i < 10000; i++ {
		v := r.Float()
		assert.True(t, v >= -1 && v < 1)
		sum += v
	}
	assert.InDelta(t, 0, sum/10000, 0.05)
}

func TestFastExp2(t *testing.T) {
	for _, x := range []float64{-10, -1, 0, 0.5, 3, 12} {
		assert.InEpsilon(t, math.Exp2(x), dsp.FastExp2(x), 0.02, "x=%v", x)
	}
}
