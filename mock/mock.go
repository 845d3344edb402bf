// Package mock provides mocks for rack components and allows to execute
// integration tests.
package mock

import (
	"io"
	"time"

	"pipelined.dev/rack/module"
)

// Module types provided by Catalog.
const (
	ConstantType = "mock.constant"
	AdderType    = "mock.adder"
	CounterType  = "mock.counter"
)

// Constant outputs the value of its parameter.
var Constant = module.Descriptor{
	Type: ConstantType,
	Params: []module.ParamSpec{
		{Name: "value", Min: -1000, Max: 1000, Unit: module.Volts},
	},
	Outputs: []module.PortSpec{
		{Name: "out", Kind: module.CV},
	},
	New: func(module.Config) module.Kernel {
		return kernelFunc(func(io *module.IO) {
			io.Out[0].Fill(float32(io.Params[0]))
		})
	},
}

// Adder outputs the sum of its inputs.
var Adder = module.Descriptor{
	Type: AdderType,
	Inputs: []module.PortSpec{
		{Name: "a", Kind: module.CV},
		{Name: "b", Kind: module.CV, Default: 1},
	},
	Outputs: []module.PortSpec{
		{Name: "sum", Kind: module.CV},
	},
	New: func(module.Config) module.Kernel {
		return kernelFunc(func(io *module.IO) {
			for i := range io.Out[0] {
				io.Out[0][i] = io.In[0][i] + io.In[1][i]
			}
		})
	},
}

// Counter outputs the number of blocks processed before the current
// one.
var Counter = module.Descriptor{
	Type: CounterType,
	Outputs: []module.PortSpec{
		{Name: "out", Kind: module.CV},
	},
	LEDs: []string{"blocks"},
	New: func(module.Config) module.Kernel {
		return &counter{}
	},
}

// Catalog returns catalog of mock modules.
func Catalog() module.Catalog {
	return module.Catalog(nil).Add(Constant, Adder, Counter)
}

type kernelFunc func(io *module.IO)

func (fn kernelFunc) Process(io *module.IO) {
	fn(io)
}

func (kernelFunc) Reset() {}

type counter struct {
	blocks int
}

func (c *counter) Process(io *module.IO) {
	io.Out[0].Fill(float32(c.blocks))
	c.blocks++
	io.LEDs[0] = float64(c.blocks)
}

func (c *counter) Reset() {
	c.blocks = 0
}

// Probe records its input. It must be read only when the engine is not
// processing.
type Probe struct {
	// Type of the probe module, "mock.probe" if empty.
	Type   string
	values []float32
	events int
}

// Descriptor returns the descriptor of the probe module type. All
// instances of the type record into the same probe.
func (p *Probe) Descriptor() module.Descriptor {
	typ := p.Type
	if typ == "" {
		typ = "mock.probe"
	}
	return module.Descriptor{
		Type: typ,
		Inputs: []module.PortSpec{
			{Name: "in", Kind: module.Generic},
		},
		Events: true,
		New: func(module.Config) module.Kernel {
			return kernelFunc(func(io *module.IO) {
				p.values = append(p.values, io.In[0]...)
				p.events += len(io.Events)
			})
		},
	}
}

// Values returns recorded samples.
func (p *Probe) Values() []float32 {
	return p.values
}

// Block returns the first sample of recorded block.
func (p *Probe) Block(i, blockSize int) float32 {
	return p.values[i*blockSize]
}

// Pulses returns number of rising edges above 1 V in recorded samples.
func (p *Probe) Pulses() int {
	n := 0
	high := false
	for _, v := range p.values {
		if v >= 1 && !high {
			n++
		}
		high = v >= 1
	}
	return n
}

// Events returns number of received events.
func (p *Probe) Events() int {
	return p.events
}

// Sink mocks up a rack.Sink interface.
// Buffer is not thread-safe, so should not be checked while engine is running.
type Sink struct {
	blocks      int
	samples     int
	buffer      [][]float32
	Limit       int
	Interval    time.Duration
	Discard     bool
	ErrorOnCall error
	Hooks
}

// Sink implementation for the engine.
func (m *Sink) Sink(sampleRate, numChannels, blockSize int) (func([]module.Buffer) error, error) {
	if m.ErrorOnSink != nil {
		return nil, m.ErrorOnSink
	}
	m.buffer = make([][]float32, numChannels)
	return func(b []module.Buffer) error {
		if m.ErrorOnCall != nil {
			return m.ErrorOnCall
		}
		if m.Limit > 0 && m.blocks >= m.Limit {
			return io.EOF
		}
		time.Sleep(m.Interval)
		if !m.Discard {
			for i := range b {
				m.buffer[i] = append(m.buffer[i], b[i]...)
			}
		}
		m.advance(len(b[0]))
		return nil
	}, nil
}

// Flush implements rack.Flusher.
func (m *Sink) Flush() error {
	m.Flushed = true
	return m.ErrorOnFlush
}

// Buffer returns sink's buffer
func (m *Sink) Buffer() [][]float32 {
	return m.buffer
}

// Hooks allows to mock components hooks.
type Hooks struct {
	Flushed bool

	ErrorOnSink  error
	ErrorOnFlush error
}

// Count returns blocks and samples metrics.
func (m *Sink) Count() (int, int) {
	return m.blocks, m.samples
}

// advance sink's metrics.
func (m *Sink) advance(size int) {
	m.blocks++
	m.samples += size
}
