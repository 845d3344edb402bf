// Package arpeggiator steps through the notes of a chord on every clock
// pulse.
package arpeggiator

import (
	"pipelined.dev/rack/internal/dsp"
	"pipelined.dev/rack/module"
)

// Type is the catalog type tag.
const Type = "arpeggiator"

const (
	inClock = iota
	inPitch
	inReset
)

const (
	outPitch = iota
	outGate
)

const (
	paramChord = iota
	paramPattern
	paramOctaves
)

// Chords.
const (
	Major = iota
	Minor
	Seventh
	Sus4
)

// Patterns.
const (
	Up = iota
	Down
	UpDown
	Random
)

// clock input is more sensitive than other gates.
const clockThreshold = 0.4

const maxOctaves = 4

// chords in semitones from the root.
var chords = [...][]int{
	Major:   {0, 4, 7},
	Minor:   {0, 3, 7},
	Seventh: {0, 4, 7, 10},
	Sus4:    {0, 5, 7},
}

// Descriptor of the arpeggiator.
var Descriptor = module.Descriptor{
	Type: Type,
	Params: []module.ParamSpec{
		{Name: "chord", Min: Major, Max: Sus4, Default: Major, Unit: module.Mode},
		{Name: "pattern", Min: Up, Max: Random, Default: Up, Unit: module.Mode},
		{Name: "octaves", Min: 1, Max: maxOctaves, Default: 1, Unit: module.Mode},
	},
	Inputs: []module.PortSpec{
		{Name: "clock", Kind: module.Gate},
		{Name: "pitch", Kind: module.CV},
		{Name: "reset", Kind: module.Gate},
	},
	Outputs: []module.PortSpec{
		{Name: "pitch", Kind: module.CV},
		{Name: "gate", Kind: module.Gate},
	},
	New: New,
}

type arpeggiator struct {
	clock  dsp.Trigger
	reset  dsp.Trigger
	notes  []int // preallocated sequence of semitone offsets
	step   int   // number of clock pulses since reset
	offset int   // semitones of the current note
	random dsp.Random
}

// New returns arpeggiator kernel.
func New(module.Config) module.Kernel {
	return &arpeggiator{
		clock: dsp.Trigger{Threshold: clockThreshold},
		reset: dsp.Trigger{Threshold: dsp.GateThreshold},
		notes: make([]int, 0, 2*4*maxOctaves),
	}
}

// sequence fills notes of the chord over octaves in pattern order.
func (a *arpeggiator) sequence(chord, pattern, octaves int) []int {
	notes := a.notes[:0]
	intervals := chords[chord]
	for o := 0; o < octaves; o++ {
		for _, n := range intervals {
			notes = append(notes, 12*o+n)
		}
	}
	switch pattern {
	case Down:
		for i, j := 0, len(notes)-1; i < j; i, j = i+1, j-1 {
			notes[i], notes[j] = notes[j], notes[i]
		}
	case UpDown:
		for i := len(notes) - 2; i > 0; i-- {
			notes = append(notes, notes[i])
		}
	}
	a.notes = notes
	return notes
}

func (a *arpeggiator) Process(io *module.IO) {
	clock, root, reset := io.In[inClock], io.In[inPitch], io.In[inReset]
	pitch, gate := io.Out[outPitch], io.Out[outGate]
	chord := int(dsp.Clamp(io.Params[paramChord], Major, Sus4))
	pattern := int(dsp.Clamp(io.Params[paramPattern], Up, Random))
	octaves := int(dsp.Clamp(io.Params[paramOctaves], 1, maxOctaves))
	notes := a.sequence(chord, pattern, octaves)
	for i := range pitch {
		if a.reset.Process(reset[i]) {
			a.step = 0
		}
		if a.clock.Process(clock[i]) {
			if pattern == Random {
				a.offset = notes[int((a.random.Float()+1)/2*float64(len(notes)))%len(notes)]
			} else {
				a.offset = notes[a.step%len(notes)]
			}
			a.step++
		}
		pitch[i] = dsp.Clamp32(root[i]+float32(a.offset)/12, -10, 10)
		if a.clock.High() {
			gate[i] = dsp.GateHigh
		} else {
			gate[i] = 0
		}
	}
}

func (a *arpeggiator) Reset() {
	a.step = 0
	a.offset = 0
	a.clock.Reset()
	a.reset.Reset()
}
