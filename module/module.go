// Package module defines the contract every signal-processing kernel of
// the rack obeys.
//
// A kernel declares its ports, parameters and telemetry in a Descriptor
// and implements Kernel. The engine wraps every kernel into an Instance,
// which owns the buffers: output buffers are written by the kernel and
// aliased by downstream consumers, input slots are bound by the router
// before every block.
package module

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gitlab.com/gomidi/midi/v2"
)

var (
	// ErrUnknownParam is returned when parameter name is not declared.
	ErrUnknownParam = errors.New("unknown parameter")
	// ErrUnknownLED is returned when telemetry name is not declared.
	ErrUnknownLED = errors.New("unknown telemetry")
	// ErrInvalidDescriptor is returned by Descriptor.Validate.
	ErrInvalidDescriptor = errors.New("invalid descriptor")
)

// Kind is the kind of signal carried by a port.
type Kind int

// Signal kinds.
const (
	// Audio is an audio-rate signal, ±5 V nominal.
	Audio Kind = iota
	// CV is a control voltage, 0..10 V or ±5 V depending on the port.
	CV
	// Gate is a gate or trigger signal, edge-detected by the consumer.
	Gate
	// Generic is a buffer without voltage convention.
	Generic
)

func (k Kind) String() string {
	switch k {
	case Audio:
		return "audio"
	case CV:
		return "cv"
	case Gate:
		return "gate"
	case Generic:
		return "generic"
	}
	return "unknown"
}

// Unit is a semantic unit of a parameter.
type Unit int

// Parameter units.
const (
	// Normalized is a knob position in 0..1.
	Normalized Unit = iota
	// Semitones is a pitch offset.
	Semitones
	// Mode is a discrete mode index.
	Mode
	// Toggle is a boolean switch, 0 or 1.
	Toggle
	// Volts is a voltage offset.
	Volts
)

func (u Unit) String() string {
	switch u {
	case Normalized:
		return "normalized"
	case Semitones:
		return "semitones"
	case Mode:
		return "mode"
	case Toggle:
		return "toggle"
	case Volts:
		return "volts"
	}
	return "unknown"
}

// Discrete returns true for units which are persisted as switch state.
func (u Unit) Discrete() bool {
	return u == Mode || u == Toggle
}

type (
	// Config is fixed for the life of the instance.
	Config struct {
		SampleRate float64
		BlockSize  int
	}

	// Buffer is a block of samples.
	Buffer []float32

	// PortSpec declares a port. Default is the value an input reads
	// when nothing is connected to it.
	PortSpec struct {
		Name    string
		Kind    Kind
		Default float32
	}

	// ParamSpec declares a parameter.
	ParamSpec struct {
		Name    string
		Min     float64
		Max     float64
		Default float64
		Unit    Unit
	}

	// Descriptor declares a kernel type.
	Descriptor struct {
		Type    string
		Params  []ParamSpec
		Inputs  []PortSpec
		Outputs []PortSpec
		LEDs    []string
		// Events is true if the kernel consumes external controller
		// events.
		Events bool
		New    func(Config) Kernel
	}

	// IO is the view of the instance the kernel processes. In is bound
	// by the router and must never be written. Out must be fully
	// populated on every call.
	IO struct {
		In     []Buffer
		Out    []Buffer
		Params []float64
		LEDs   []float64
		Events []midi.Message
	}

	// Kernel is a signal-processing unit. Process must be allocation
	// free and have bounded cost. Reset returns the private state to
	// idle, output buffers are cleared by the instance.
	Kernel interface {
		Process(io *IO)
		Reset()
	}

	// Catalog maps type tags to descriptors.
	Catalog map[string]Descriptor
)

// Fill sets every sample of the buffer to v.
func (b Buffer) Fill(v float32) {
	for i := range b {
		b[i] = v
	}
}

// Clamp limits the value to the parameter range. Discrete units are
// rounded to the nearest integer. NaN is replaced by the default.
func (p ParamSpec) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return p.Default
	}
	if p.Unit.Discrete() {
		v = math.Round(v)
	}
	if v < p.Min {
		return p.Min
	}
	if v > p.Max {
		return p.Max
	}
	return v
}

// Param returns index of parameter with provided name or -1.
func (d Descriptor) Param(name string) int {
	for i := range d.Params {
		if d.Params[i].Name == name {
			return i
		}
	}
	return -1
}

// Input returns index of input port with provided name or -1.
func (d Descriptor) Input(name string) int {
	return portIndex(d.Inputs, name)
}

// Output returns index of output port with provided name or -1.
func (d Descriptor) Output(name string) int {
	return portIndex(d.Outputs, name)
}

// LED returns index of telemetry value with provided name or -1.
func (d Descriptor) LED(name string) int {
	for i := range d.LEDs {
		if d.LEDs[i] == name {
			return i
		}
	}
	return -1
}

func portIndex(ports []PortSpec, name string) int {
	for i := range ports {
		if ports[i].Name == name {
			return i
		}
	}
	return -1
}

// Validate checks that names are unique and defaults are within ranges.
func (d Descriptor) Validate() error {
	if d.Type == "" {
		return fmt.Errorf("%w: empty type", ErrInvalidDescriptor)
	}
	if d.New == nil {
		return fmt.Errorf("%w: %s has no constructor", ErrInvalidDescriptor, d.Type)
	}
	names := make(map[string]struct{})
	unique := func(group, name string) error {
		key := group + "/" + name
		if _, ok := names[key]; ok || name == "" {
			return fmt.Errorf("%w: %s has invalid %s name %q", ErrInvalidDescriptor, d.Type, group, name)
		}
		names[key] = struct{}{}
		return nil
	}
	for _, p := range d.Params {
		if err := unique("param", p.Name); err != nil {
			return err
		}
		if p.Min > p.Max || p.Default < p.Min || p.Default > p.Max {
			return fmt.Errorf("%w: %s param %s default %v out of [%v, %v]", ErrInvalidDescriptor, d.Type, p.Name, p.Default, p.Min, p.Max)
		}
	}
	for _, p := range d.Inputs {
		if err := unique("input", p.Name); err != nil {
			return err
		}
	}
	for _, p := range d.Outputs {
		if err := unique("output", p.Name); err != nil {
			return err
		}
	}
	for _, l := range d.LEDs {
		if err := unique("led", l); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns descriptor of provided type.
func (c Catalog) Lookup(typ string) (Descriptor, bool) {
	d, ok := c[typ]
	return d, ok
}

// Types returns sorted list of types in the catalog.
func (c Catalog) Types() []string {
	types := make([]string, 0, len(c))
	for t := range c {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Add puts descriptors into the catalog.
func (c Catalog) Add(descriptors ...Descriptor) Catalog {
	if c == nil {
		c = make(Catalog, len(descriptors))
	}
	for _, d := range descriptors {
		c[d.Type] = d
	}
	return c
}
