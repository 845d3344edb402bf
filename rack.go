// Package rack is a block-synchronous engine of a software modular
// synthesizer.
//
// An Engine holds module instances and the cables between them. Every
// call to Advance processes one block: queued mutations are applied,
// the schedule is rebuilt if the patch changed, input ports are bound to
// upstream output buffers and every module is processed exactly once.
// Cables that close a cycle are deferred: their consumer reads the
// value produced during the previous block.
//
// Engine methods are not safe for concurrent use. When the engine is
// running, all edits must be pushed as mutations.
package rack

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/xid"
	"gitlab.com/gomidi/midi/v2"

	"pipelined.dev/rack/log"
	"pipelined.dev/rack/metric"
	"pipelined.dev/rack/module"
	"pipelined.dev/rack/mutable"
)

var (
	// ErrUnknownType is returned when catalog has no such module type.
	ErrUnknownType = errors.New("unknown module type")
	// ErrUnknownModule is returned when engine has no module with
	// provided id.
	ErrUnknownModule = errors.New("unknown module")
	// ErrUnknownPort is returned when module has no such port.
	ErrUnknownPort = errors.New("unknown port")
	// ErrDuplicateID is returned when module id is already taken.
	ErrDuplicateID = errors.New("duplicate module id")
	// ErrInvalidConfig is returned when engine configuration is invalid.
	ErrInvalidConfig = errors.New("invalid config")
)

// OutputType is the module type which designates the engine output by
// default.
const OutputType = "output"

type (
	// Endpoint addresses a port of a module.
	Endpoint struct {
		Module string
		Port   string
	}

	// Cable is a directed connection from an output port to an input
	// port.
	Cable struct {
		ID   string
		From Endpoint
		To   Endpoint
		Kind module.Kind
	}

	// Connection is a serializable form of a cable.
	Connection struct {
		FromModule string
		FromPort   string
		ToModule   string
		ToPort     string
	}

	// EventSource provides controller events. Poll must not block and
	// appends pending events to dst.
	EventSource interface {
		Poll(dst []midi.Message) []midi.Message
	}

	// Option provides a way to set functional parameters to the engine.
	Option func(e *Engine) error

	// Engine is a modular patch that renders blocks of audio.
	Engine struct {
		mutable.Context
		name    string
		cfg     module.Config
		catalog module.Catalog
		log     log.Logger
		events  EventSource
		output  string

		seq     int
		modules []*module.Instance
		byID    map[string]*module.Instance

		cables  []*cable
		cableID map[string]*cable
		dest    map[Endpoint]*cable

		dirty   bool
		routing routing
		lags    map[string]module.Buffer
		silence []module.Buffer
		batch   []midi.Message

		measure metric.MeasureFunc

		// pending mutations are pushed from other goroutines.
		mu      sync.Mutex
		pending mutable.Mutations
		applied mutable.Mutations
	}

	cable struct {
		Cable
		src     *module.Instance
		dst     *module.Instance
		srcPort int
		dstPort int
	}
)

// String returns a short representation of the endpoint.
func (ep Endpoint) String() string {
	return ep.Module + "." + ep.Port
}

func (c Cable) String() string {
	return fmt.Sprintf("%s -> %s", c.From, c.To)
}

// New creates a new engine with provided sample rate and block size.
func New(sampleRate float64, blockSize int, options ...Option) (*Engine, error) {
	if sampleRate <= 0 || blockSize <= 0 {
		return nil, fmt.Errorf("%w: sample rate %v block size %d", ErrInvalidConfig, sampleRate, blockSize)
	}
	e := Engine{
		Context: mutable.Mutable(),
		cfg: module.Config{
			SampleRate: sampleRate,
			BlockSize:  blockSize,
		},
		log:     log.Silent(),
		byID:    make(map[string]*module.Instance),
		cableID: make(map[string]*cable),
		dest:    make(map[Endpoint]*cable),
		lags:    make(map[string]module.Buffer),
		silence: []module.Buffer{
			make(module.Buffer, blockSize),
			make(module.Buffer, blockSize),
		},
		dirty: true,
	}
	for _, option := range options {
		if err := option(&e); err != nil {
			return nil, err
		}
	}
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog is not provided", ErrInvalidConfig)
	}
	e.measure = metric.Meter(&e, int(sampleRate))()
	return &e, nil
}

// WithLogger sets logger to the engine. If this option is not provided,
// silent logger is used.
func WithLogger(logger log.Logger) Option {
	return func(e *Engine) error {
		e.log = logger
		return nil
	}
}

// WithCatalog sets the catalog of module types the engine can
// instantiate.
func WithCatalog(c module.Catalog) Option {
	return func(e *Engine) error {
		for _, typ := range c.Types() {
			if err := c[typ].Validate(); err != nil {
				return err
			}
		}
		e.catalog = c
		return nil
	}
}

// WithOutput designates the module which output is returned by Advance.
// If not provided, the first module of OutputType is used.
func WithOutput(id string) Option {
	return func(e *Engine) error {
		e.output = id
		return nil
	}
}

// WithEvents sets the source of controller events.
func WithEvents(src EventSource) Option {
	return func(e *Engine) error {
		e.events = src
		return nil
	}
}

// WithName sets name to the engine.
func WithName(name string) Option {
	return func(e *Engine) error {
		e.name = name
		return nil
	}
}

// Name returns engine name.
func (e *Engine) Name() string {
	return e.name
}

// Config returns engine configuration.
func (e *Engine) Config() module.Config {
	return e.cfg
}

// Catalog returns the catalog of module types.
func (e *Engine) Catalog() module.Catalog {
	return e.catalog
}

func newUID() string {
	return xid.New().String()
}

// errorList wraps errors that might occur during the single operation.
type errorList []error

func (e errorList) Error() string {
	s := []string{}
	for _, se := range e {
		s = append(s, se.Error())
	}
	return strings.Join(s, ",")
}

// Is checks if any of errors match provided sentinel error.
func (e errorList) Is(err error) bool {
	for _, se := range e {
		if errors.Is(se, err) {
			return true
		}
	}
	return false
}

// ret returns untyped nil if error is list is empty.
func (e errorList) ret() error {
	if len(e) > 0 {
		return e
	}
	return nil
}
