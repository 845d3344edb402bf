package rack

import (
	"context"
	"errors"
	"fmt"
	"io"

	"pipelined.dev/rack/module"
	"pipelined.dev/rack/signal"
)

// Run starts the real-time rendering in its own goroutine. The loop is
// paced by the sink: it's expected to block until the device consumed
// the block. Rendering stops when context is done or sink returns
// io.EOF. Returned channel receives an error if rendering failed and is
// closed when the loop is finished.
//
// A block that takes longer to render than to play is a deadline miss.
// It's counted and logged, but never retried. Failed mutations are logged
// and the loop continues.
func (e *Engine) Run(ctx context.Context, sink Sink) <-chan error {
	errc := make(chan error, 1)
	fn, err := sink.Sink(int(e.cfg.SampleRate), len(e.out()), e.cfg.BlockSize)
	if err != nil {
		errc <- fmt.Errorf("error allocating sink: %w", err)
		close(errc)
		return errc
	}
	go func() {
		defer close(errc)
		err := e.loop(ctx, fn)
		if f, ok := sink.(Flusher); ok {
			if flushErr := f.Flush(); flushErr != nil {
				if err != nil {
					err = fmt.Errorf("error flushing sink: %w after run error: %v", flushErr, err)
				} else {
					err = fmt.Errorf("error flushing sink: %w", flushErr)
				}
			}
		}
		if err != nil {
			errc <- err
		}
	}()
	return errc
}

func (e *Engine) loop(ctx context.Context, fn func([]module.Buffer) error) error {
	deadline := signal.DurationOf(int(e.cfg.SampleRate), int64(e.cfg.BlockSize))
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		out, missed, err := e.advance()
		if err != nil {
			e.log.Warn(fmt.Sprintf("%s: mutation failed: %v", e.name, err))
		}
		if missed {
			e.log.Warn(fmt.Sprintf("%s: deadline miss: block deadline %v", e.name, deadline))
		}
		if err := fn(out); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}
