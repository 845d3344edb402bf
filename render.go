package rack

import (
	"context"
	"fmt"
	"time"

	"pipelined.dev/rack/module"
	"pipelined.dev/rack/mutable"
)

type (
	// Sink is the consumer of rendered blocks. Sink returns a function
	// which receives a block of every channel. The buffers are reused
	// after the function returns.
	Sink interface {
		Sink(sampleRate, numChannels, blockSize int) (func([]module.Buffer) error, error)
	}

	// Flusher is implemented by sinks which need to release resources
	// when rendering is done.
	Flusher interface {
		Flush() error
	}
)

// Push queues mutations to be applied before the next block. It's safe
// to call from any goroutine and never blocks on processing.
func (e *Engine) Push(mutations ...mutable.Mutation) {
	e.mu.Lock()
	for _, m := range mutations {
		e.pending = e.pending.Put(m)
	}
	e.mu.Unlock()
}

// Mutate returns a mutation of the engine itself. Use it to edit the
// patch while the engine is running:
//
//	e.Push(e.Mutate(func() error {
//		_, err := e.AddCable(from, to)
//		return err
//	}))
func (e *Engine) Mutate(fn func() error) mutable.Mutation {
	return e.Context.Mutate(fn)
}

// apply executes pending mutations: engine mutations first, then
// instance mutations in creation order. Mutations of removed instances
// are discarded.
func (e *Engine) apply() error {
	e.mu.Lock()
	e.pending, e.applied = e.applied, e.pending
	e.mu.Unlock()
	if len(e.applied) == 0 {
		return nil
	}

	var errs errorList
	if err := e.applied.ApplyTo(e.Context); err != nil {
		errs = append(errs, err)
	}
	for _, inst := range e.modules {
		if err := e.applied.ApplyTo(inst.Context); err != nil {
			errs = append(errs, fmt.Errorf("module %s: %w", inst.ID(), err))
		}
	}
	for c := range e.applied {
		delete(e.applied, c)
	}
	return errs.ret()
}

// Advance renders the next block and returns the buffers of the output
// module. If there is no output module, silence is returned. Returned
// buffers are valid until the next call. A failed mutation is returned
// as error, the block is rendered regardless.
func (e *Engine) Advance() ([]module.Buffer, error) {
	out, _, err := e.advance()
	return out, err
}

// advance renders the next block and reports if it missed the deadline.
func (e *Engine) advance() ([]module.Buffer, bool, error) {
	started := time.Now()
	err := e.apply()
	if e.events != nil {
		e.batch = e.events.Poll(e.batch[:0])
	}
	e.route()
	for i := range e.routing.steps {
		st := &e.routing.steps[i]
		st.bind()
		st.inst.Process(e.batch)
	}
	e.routing.update()
	missed := e.measure(int64(e.cfg.BlockSize), time.Since(started))
	return e.out(), missed, err
}

func (e *Engine) out() []module.Buffer {
	if inst := e.outputModule(); inst != nil {
		return inst.Outputs()
	}
	return e.silence
}

// outputModule returns the designated output module.
func (e *Engine) outputModule() *module.Instance {
	if e.output != "" {
		if inst, ok := e.byID[e.output]; ok {
			return inst
		}
	}
	for _, inst := range e.modules {
		if inst.Type() == OutputType {
			return inst
		}
	}
	return nil
}

// Reset returns every module and lag buffer to idle. The patch is kept.
func (e *Engine) Reset() {
	for _, inst := range e.modules {
		inst.Reset()
	}
	e.clearLags()
}

// Render synchronously renders provided number of blocks into the sink.
// Failed mutations don't stop rendering, they are returned together with
// sink errors.
func (e *Engine) Render(ctx context.Context, sink Sink, blocks int) error {
	fn, err := sink.Sink(int(e.cfg.SampleRate), len(e.out()), e.cfg.BlockSize)
	if err != nil {
		return fmt.Errorf("error allocating sink: %w", err)
	}
	var errs errorList
	for i := 0; i < blocks; i++ {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		out, err := e.Advance()
		if err != nil {
			errs = append(errs, err)
		}
		if err := fn(out); err != nil {
			errs = append(errs, err)
			break
		}
	}
	if f, ok := sink.(Flusher); ok {
		if err := f.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("error flushing sink: %w", err))
		}
	}
	return errs.ret()
}
