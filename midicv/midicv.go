// Package midicv converts controller events into pitch, gate, velocity
// and modulation voltages.
package midicv

import (
	"gitlab.com/gomidi/midi/v2"

	"pipelined.dev/rack/internal/dsp"
	"pipelined.dev/rack/module"
)

// Type is the catalog type tag.
const Type = "midicv"

const (
	outPitch = iota
	outGate
	outVelocity
	outMod
)

const (
	// middle C is 0 V.
	rootNote = 60
	// modulation wheel controller.
	modWheel = 1
	// last notes are remembered for legato.
	maxHeld = 16
)

// Descriptor of the converter.
var Descriptor = module.Descriptor{
	Type: Type,
	Params: []module.ParamSpec{
		{Name: "channel", Min: 0, Max: 16, Default: 0, Unit: module.Mode},
	},
	Outputs: []module.PortSpec{
		{Name: "pitch", Kind: module.CV},
		{Name: "gate", Kind: module.Gate},
		{Name: "velocity", Kind: module.CV},
		{Name: "mod", Kind: module.CV},
	},
	Events: true,
	New:    New,
}

type converter struct {
	held     []uint8 // held notes, the last one sounds
	pitch    float32
	velocity float32
	mod      float32
}

// New returns converter kernel.
func New(module.Config) module.Kernel {
	return &converter{
		held: make([]uint8, 0, maxHeld),
	}
}

// Events of the block are applied at its start.
func (c *converter) Process(io *module.IO) {
	channel := int(io.Params[0])
	for _, m := range io.Events {
		c.handle(m, channel)
	}
	gate := float32(0)
	if len(c.held) > 0 {
		gate = dsp.GateHigh
	}
	io.Out[outPitch].Fill(c.pitch)
	io.Out[outGate].Fill(gate)
	io.Out[outVelocity].Fill(c.velocity)
	io.Out[outMod].Fill(c.mod)
}

func (c *converter) handle(m midi.Message, channel int) {
	var ch, key, value uint8
	switch {
	case m.GetNoteOn(&ch, &key, &value):
		if !listens(channel, ch) {
			return
		}
		if value == 0 {
			c.release(key)
			return
		}
		c.release(key)
		if len(c.held) == cap(c.held) {
			c.held = append(c.held[:0], c.held[1:]...)
		}
		c.held = append(c.held, key)
		c.pitch = float32(int(key)-rootNote) / 12
		c.velocity = float32(value) / 127 * 10
	case m.GetNoteOff(&ch, &key, &value):
		if listens(channel, ch) {
			c.release(key)
		}
	case m.GetControlChange(&ch, &key, &value):
		if listens(channel, ch) && key == modWheel {
			c.mod = float32(value) / 127 * 10
		}
	}
}

// release removes the note from held notes. Pitch returns to the last
// held note.
func (c *converter) release(key uint8) {
	for i, k := range c.held {
		if k == key {
			c.held = append(c.held[:i], c.held[i+1:]...)
			break
		}
	}
	if n := len(c.held); n > 0 {
		c.pitch = float32(int(c.held[n-1])-rootNote) / 12
	}
}

// listens returns true if the module listens to zero-based channel ch.
// Channel parameter 0 is omni.
func listens(channel int, ch uint8) bool {
	return channel == 0 || channel == int(ch)+1
}

func (c *converter) Reset() {
	c.held = c.held[:0]
	c.pitch = 0
	c.velocity = 0
	c.mod = 0
}
