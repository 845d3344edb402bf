package module

import (
	"fmt"
	"math"
	"sync/atomic"

	"gitlab.com/gomidi/midi/v2"

	"pipelined.dev/rack/mutable"
)

type (
	// Meta is display metadata of the instance. It is persisted with the
	// patch, but never affects processing.
	Meta struct {
		Label string
		X, Y  float64
	}

	// Instance is a kernel bound to its buffers and identity.
	Instance struct {
		mutable.Context
		Meta
		id     string
		seq    int
		desc   Descriptor
		cfg    Config
		kernel Kernel
		io     IO
		own    []Buffer
		leds   []atomic.Uint64
	}
)

// NewInstance allocates all buffers of the instance and creates the
// kernel. Seq is the creation sequence number used to order instances
// deterministically.
func NewInstance(id string, seq int, d Descriptor, cfg Config) *Instance {
	inst := &Instance{
		Context: mutable.Mutable(),
		id:      id,
		seq:     seq,
		desc:    d,
		cfg:     cfg,
		kernel:  d.New(cfg),
		io: IO{
			In:     make([]Buffer, len(d.Inputs)),
			Out:    make([]Buffer, len(d.Outputs)),
			Params: make([]float64, len(d.Params)),
			LEDs:   make([]float64, len(d.LEDs)),
		},
		own:  make([]Buffer, len(d.Inputs)),
		leds: make([]atomic.Uint64, len(d.LEDs)),
	}
	for i := range d.Inputs {
		inst.own[i] = make(Buffer, cfg.BlockSize)
		inst.own[i].Fill(d.Inputs[i].Default)
		inst.io.In[i] = inst.own[i]
	}
	for i := range d.Outputs {
		inst.io.Out[i] = make(Buffer, cfg.BlockSize)
	}
	for i := range d.Params {
		inst.io.Params[i] = d.Params[i].Default
	}
	return inst
}

// ID returns instance id.
func (inst *Instance) ID() string {
	return inst.id
}

// Seq returns creation sequence number.
func (inst *Instance) Seq() int {
	return inst.seq
}

// Type returns type tag of the instance.
func (inst *Instance) Type() string {
	return inst.desc.Type
}

// Descriptor returns descriptor of the instance.
func (inst *Instance) Descriptor() Descriptor {
	return inst.desc
}

// Config returns configuration of the instance.
func (inst *Instance) Config() Config {
	return inst.cfg
}

// Process runs the kernel over the current block. Events are only
// delivered to kernels that declare interest in them.
func (inst *Instance) Process(events []midi.Message) {
	if inst.desc.Events {
		inst.io.Events = events
	}
	inst.kernel.Process(&inst.io)
	inst.io.Events = nil
	inst.publish()
}

// Reset returns the kernel state, outputs and telemetry to idle. Buffers
// and identity are kept.
func (inst *Instance) Reset() {
	inst.kernel.Reset()
	for i := range inst.io.Out {
		inst.io.Out[i].Fill(0)
	}
	for i := range inst.io.LEDs {
		inst.io.LEDs[i] = 0
	}
	inst.publish()
}

func (inst *Instance) publish() {
	for i := range inst.leds {
		inst.leds[i].Store(math.Float64bits(inst.io.LEDs[i]))
	}
}

// Param returns current value of the parameter.
func (inst *Instance) Param(name string) (float64, bool) {
	i := inst.desc.Param(name)
	if i < 0 {
		return 0, false
	}
	return inst.io.Params[i], true
}

// Params returns a copy of all parameter values keyed by name.
func (inst *Instance) Params() map[string]float64 {
	params := make(map[string]float64, len(inst.io.Params))
	for i, p := range inst.desc.Params {
		params[p.Name] = inst.io.Params[i]
	}
	return params
}

// SetParam sets the parameter value immediately. Value is clamped to the
// parameter range. Must not be called concurrently with Process, use
// ParamMutation instead.
func (inst *Instance) SetParam(name string, value float64) error {
	i := inst.desc.Param(name)
	if i < 0 {
		return fmt.Errorf("%s %s: %w", inst.desc.Type, name, ErrUnknownParam)
	}
	inst.io.Params[i] = inst.desc.Params[i].Clamp(value)
	return nil
}

// ParamMutation returns a mutation which sets the parameter when it's
// applied by the engine.
func (inst *Instance) ParamMutation(name string, value float64) (mutable.Mutation, error) {
	i := inst.desc.Param(name)
	if i < 0 {
		return mutable.Mutation{}, fmt.Errorf("%s %s: %w", inst.desc.Type, name, ErrUnknownParam)
	}
	value = inst.desc.Params[i].Clamp(value)
	return inst.Context.Mutate(func() error {
		inst.io.Params[i] = value
		return nil
	}), nil
}

// LED returns telemetry value as of the last completed block. It's safe
// to call from any goroutine.
func (inst *Instance) LED(name string) (float64, error) {
	i := inst.desc.LED(name)
	if i < 0 {
		return 0, fmt.Errorf("%s %s: %w", inst.desc.Type, name, ErrUnknownLED)
	}
	return math.Float64frombits(inst.leds[i].Load()), nil
}

// Input returns the buffer currently bound to the input port.
func (inst *Instance) Input(name string) (Buffer, bool) {
	i := inst.desc.Input(name)
	if i < 0 {
		return nil, false
	}
	return inst.io.In[i], true
}

// Output returns the output buffer of the port.
func (inst *Instance) Output(name string) (Buffer, bool) {
	i := inst.desc.Output(name)
	if i < 0 {
		return nil, false
	}
	return inst.io.Out[i], true
}

// Outputs returns all output buffers.
func (inst *Instance) Outputs() []Buffer {
	return inst.io.Out
}

// OutputAt returns output buffer by port index.
func (inst *Instance) OutputAt(port int) Buffer {
	return inst.io.Out[port]
}

// Bind aliases input port to the buffer. The buffer must be at least
// block-long and must not be written until the block is processed.
func (inst *Instance) Bind(port int, b Buffer) {
	inst.io.In[port] = b
}

// Bound returns true if input port currently reads a buffer which is not
// owned by the instance.
func (inst *Instance) Bound(port int) bool {
	return !sameBuffer(inst.io.In[port], inst.own[port])
}

// Release rebinds input port to the instance's own buffer and refills it
// with the port default.
func (inst *Instance) Release(port int) {
	inst.own[port].Fill(inst.desc.Inputs[port].Default)
	inst.io.In[port] = inst.own[port]
}

func sameBuffer(a, b Buffer) bool {
	return len(a) > 0 && len(b) > 0 && &a[0] == &b[0]
}
