package logic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pipelined.dev/rack/logic"
	"pipelined.dev/rack/module"
)

func TestLogic(t *testing.T) {
	inst := module.NewInstance("logic", 0, logic.Descriptor, module.Config{SampleRate: 44100, BlockSize: 4})
	inst.Bind(logic.Descriptor.Input("a"), module.Buffer{0, 10, 0, 10})
	inst.Bind(logic.Descriptor.Input("b"), module.Buffer{0, 0, 1, 0.5})
	inst.Process(nil)

	expected := map[string]module.Buffer{
		"and": {0, 0, 0, 0},
		"or":  {0, 10, 10, 10},
		"xor": {0, 10, 10, 10},
		"not": {10, 0, 10, 0},
	}
	for name, e := range expected {
		out, ok := inst.Output(name)
		assert.True(t, ok)
		assert.Equal(t, e, out, name)
	}
}
