package module_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/rack/module"
)

// counter writes block counter into its output and copies its input.
type counter struct {
	blocks float32
}

func (c *counter) Process(io *module.IO) {
	c.blocks++
	for i := range io.Out[0] {
		io.Out[0][i] = c.blocks
		io.Out[1][i] = io.In[0][i] * float32(io.Params[0])
	}
	io.LEDs[0] = float64(c.blocks)
}

func (c *counter) Reset() {
	c.blocks = 0
}

var counterDescriptor = module.Descriptor{
	Type: "counter",
	Params: []module.ParamSpec{
		{Name: "gain", Min: 0, Max: 2, Default: 1, Unit: module.Normalized},
		{Name: "mode", Min: 0, Max: 3, Default: 0, Unit: module.Mode},
	},
	Inputs: []module.PortSpec{
		{Name: "in", Kind: module.CV, Default: 10},
	},
	Outputs: []module.PortSpec{
		{Name: "blocks", Kind: module.CV},
		{Name: "out", Kind: module.CV},
	},
	LEDs: []string{"blocks"},
	New: func(module.Config) module.Kernel {
		return &counter{}
	},
}

var cfg = module.Config{SampleRate: 48000, BlockSize: 16}

func TestDescriptorValidate(t *testing.T) {
	assert.NoError(t, counterDescriptor.Validate())

	tests := map[string]func(d *module.Descriptor){
		"empty type":      func(d *module.Descriptor) { d.Type = "" },
		"no constructor":  func(d *module.Descriptor) { d.New = nil },
		"default range":   func(d *module.Descriptor) { d.Params = []module.ParamSpec{{Name: "x", Min: 0, Max: 1, Default: 2}} },
		"duplicate input": func(d *module.Descriptor) { d.Inputs = []module.PortSpec{{Name: "a"}, {Name: "a"}} },
		"empty led":       func(d *module.Descriptor) { d.LEDs = []string{""} },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			d := counterDescriptor
			mutate(&d)
			err := d.Validate()
			assert.True(t, errors.Is(err, module.ErrInvalidDescriptor), "got %v", err)
		})
	}
}

func TestParamClamp(t *testing.T) {
	p := module.ParamSpec{Name: "mode", Min: 0, Max: 3, Default: 1, Unit: module.Mode}
	assert.Equal(t, 2.0, p.Clamp(1.6))
	assert.Equal(t, 3.0, p.Clamp(10))
	assert.Equal(t, 0.0, p.Clamp(-4))
	assert.Equal(t, 1.0, p.Clamp(math.NaN()))

	n := module.ParamSpec{Name: "level", Min: 0, Max: 1, Default: 0.5}
	assert.Equal(t, 0.25, n.Clamp(0.25))
	assert.Equal(t, 1.0, n.Clamp(math.Inf(1)))
}

func TestInstanceDefaults(t *testing.T) {
	inst := module.NewInstance("c1", 3, counterDescriptor, cfg)
	assert.Equal(t, "c1", inst.ID())
	assert.Equal(t, 3, inst.Seq())
	assert.Equal(t, "counter", inst.Type())

	in, ok := inst.Input("in")
	require.True(t, ok)
	assert.Len(t, in, cfg.BlockSize)
	for _, v := range in {
		assert.Equal(t, float32(10), v)
	}
	gain, ok := inst.Param("gain")
	assert.True(t, ok)
	assert.Equal(t, 1.0, gain)
	_, ok = inst.Param("unknown")
	assert.False(t, ok)
}

func TestInstanceProcessAndReset(t *testing.T) {
	inst := module.NewInstance("c1", 0, counterDescriptor, cfg)
	require.NoError(t, inst.SetParam("gain", 0.5))
	inst.Process(nil)
	inst.Process(nil)

	blocks, _ := inst.Output("blocks")
	out, _ := inst.Output("out")
	assert.Equal(t, float32(2), blocks[0])
	assert.Equal(t, float32(5), out[cfg.BlockSize-1])
	led, err := inst.LED("blocks")
	assert.NoError(t, err)
	assert.Equal(t, 2.0, led)

	// reset keeps buffers, clears values
	inst.Reset()
	after, _ := inst.Output("blocks")
	assert.Equal(t, &blocks[0], &after[0])
	for _, v := range after {
		assert.Equal(t, float32(0), v)
	}
	led, _ = inst.LED("blocks")
	assert.Equal(t, 0.0, led)

	inst.Process(nil)
	assert.Equal(t, float32(1), blocks[0])
}

func TestInstanceBinding(t *testing.T) {
	inst := module.NewInstance("c1", 0, counterDescriptor, cfg)
	assert.False(t, inst.Bound(0))

	foreign := make(module.Buffer, cfg.BlockSize)
	foreign.Fill(2)
	inst.Bind(0, foreign)
	assert.True(t, inst.Bound(0))
	inst.Process(nil)
	out, _ := inst.Output("out")
	assert.Equal(t, float32(2), out[0])

	inst.Release(0)
	assert.False(t, inst.Bound(0))
	in, _ := inst.Input("in")
	assert.Equal(t, float32(10), in[0])
	// foreign buffer is never written
	assert.Equal(t, float32(2), foreign[0])
}

func TestInstanceParams(t *testing.T) {
	inst := module.NewInstance("c1", 0, counterDescriptor, cfg)
	err := inst.SetParam("missing", 1)
	assert.True(t, errors.Is(err, module.ErrUnknownParam))

	assert.NoError(t, inst.SetParam("gain", 7))
	v, _ := inst.Param("gain")
	assert.Equal(t, 2.0, v)

	m, err := inst.ParamMutation("mode", 2.2)
	require.NoError(t, err)
	v, _ = inst.Param("mode")
	assert.Equal(t, 0.0, v, "mutation must not apply before engine does")
	assert.NoError(t, m.Apply())
	v, _ = inst.Param("mode")
	assert.Equal(t, 2.0, v)

	_, err = inst.ParamMutation("missing", 0)
	assert.Error(t, err)
	assert.Equal(t, map[string]float64{"gain": 2, "mode": 2}, inst.Params())

	_, err = inst.LED("missing")
	assert.True(t, errors.Is(err, module.ErrUnknownLED))
}

func TestCatalog(t *testing.T) {
	var c module.Catalog
	c = c.Add(counterDescriptor, module.Descriptor{Type: "another"})
	assert.Equal(t, []string{"another", "counter"}, c.Types())
	d, ok := c.Lookup("counter")
	assert.True(t, ok)
	assert.Equal(t, 0, d.Input("in"))
	assert.Equal(t, 1, d.Output("out"))
	assert.Equal(t, -1, d.Output("in"))
	assert.Equal(t, 0, d.LED("blocks"))
	_, ok = c.Lookup("unknown")
	assert.False(t, ok)
}

func TestKindAndUnitStrings(t *testing.T) {
	assert.Equal(t, "audio", module.Audio.String())
	assert.Equal(t, "gate", module.Gate.String())
	assert.Equal(t, "mode", module.Mode.String())
	assert.True(t, module.Toggle.Discrete())
	assert.False(t, module.Normalized.Discrete())
}
