// Package repeat provides a sink which repeats rendered blocks into
// multiple sinks, e.g. to play and record the patch at the same time.
package repeat

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"pipelined.dev/rack"
	"pipelined.dev/rack/module"
)

// Repeater sinks the signal into every sink in order. A sink which
// returns io.EOF is detached, the repeater returns io.EOF when all sinks
// are detached.
type Repeater struct {
	sinks []rack.Sink
	fns   []func([]module.Buffer) error
}

// New returns repeater of provided sinks.
func New(sinks ...rack.Sink) *Repeater {
	return &Repeater{sinks: sinks}
}

// Sink allocates every sink. If any sink fails, already allocated sinks
// are flushed.
func (r *Repeater) Sink(sampleRate, numChannels, blockSize int) (func([]module.Buffer) error, error) {
	r.fns = make([]func([]module.Buffer) error, 0, len(r.sinks))
	for i, s := range r.sinks {
		fn, err := s.Sink(sampleRate, numChannels, blockSize)
		if err != nil {
			flushErr := flush(r.sinks[:i])
			r.fns = nil
			if flushErr != nil {
				return nil, fmt.Errorf("error allocating sink %d: %w, flush: %v", i, err, flushErr)
			}
			return nil, fmt.Errorf("error allocating sink %d: %w", i, err)
		}
		r.fns = append(r.fns, fn)
	}
	return func(b []module.Buffer) error {
		active := 0
		for i, fn := range r.fns {
			if fn == nil {
				continue
			}
			if err := fn(b); err != nil {
				if errors.Is(err, io.EOF) {
					r.fns[i] = nil
					continue
				}
				return err
			}
			active++
		}
		if active == 0 {
			return io.EOF
		}
		return nil
	}, nil
}

// Flush flushes every sink which implements rack.Flusher.
func (r *Repeater) Flush() error {
	if r.fns == nil {
		return nil
	}
	r.fns = nil
	return flush(r.sinks)
}

func flush(sinks []rack.Sink) error {
	var errs errorList
	for _, s := range sinks {
		if f, ok := s.(rack.Flusher); ok {
			if err := f.Flush(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errs.ret()
}

// errorList wraps errors of multiple sinks.
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

func (e errorList) ret() error {
	if len(e) > 0 {
		return e
	}
	return nil
}
