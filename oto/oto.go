// Package oto provides a sink which plays rendered blocks with oto.
//
// Oto pulls samples from a reader on its own goroutine. The sink keeps a
// small queue of interleaved blocks between the engine and the device:
// the sink function blocks while the queue is full, so the engine is
// paced by the device. If the device reads faster than the engine
// renders, silence is played and the underrun is counted.
package oto

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"

	"pipelined.dev/rack/module"
	"pipelined.dev/rack/signal"
)

// DefaultQueue is the default number of queued blocks.
const DefaultQueue = 4

// bytes per sample of float32 format.
const sampleBytes = 4

// ErrClosed is returned when the sink is used after flush.
var ErrClosed = errors.New("sink is closed")

// Sink plays audio with oto. Only one sink can be started per process.
type Sink struct {
	queue  int
	ctx    *oto.Context
	player *oto.Player
	stream *stream
}

// NewSink returns new sink with provided number of queued blocks. If
// queue is not positive, DefaultQueue is used.
func NewSink(queue int) *Sink {
	if queue <= 0 {
		queue = DefaultQueue
	}
	return &Sink{queue: queue}
}

// Sink creates oto context and starts the player.
func (s *Sink) Sink(sampleRate, numChannels, blockSize int) (func([]module.Buffer) error, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: numChannels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   signal.DurationOf(sampleRate, int64(blockSize)),
	})
	if err != nil {
		return nil, fmt.Errorf("error creating oto context: %w", err)
	}
	<-ready
	s.ctx = ctx
	s.stream = newStream(s.queue, blockSize*numChannels)
	s.player = ctx.NewPlayer(s.stream)
	s.player.Play()
	return s.stream.write, nil
}

// Underruns returns number of reads served with silence.
func (s *Sink) Underruns() int64 {
	if s.stream == nil {
		return 0
	}
	return s.stream.underruns.Load()
}

// Flush stops the player.
func (s *Sink) Flush() error {
	if s.player == nil {
		return nil
	}
	s.stream.close()
	// let the device drain queued blocks
	for s.player.IsPlaying() && s.stream.pending() > 0 {
		time.Sleep(time.Millisecond)
	}
	return s.player.Close()
}

// stream is the reader consumed by oto.
type stream struct {
	full      chan []float32
	free      chan []float32
	done      chan struct{}
	closed    atomic.Bool
	current   []float32
	pos       int
	underruns atomic.Int64
}

func newStream(queue, size int) *stream {
	s := stream{
		full: make(chan []float32, queue),
		free: make(chan []float32, queue),
		done: make(chan struct{}),
	}
	for i := 0; i < queue; i++ {
		s.free <- make([]float32, 0, size)
	}
	return &s
}

// write interleaves the block and queues it. It blocks until a buffer
// is released by the reader.
func (s *stream) write(b []module.Buffer) error {
	var buf []float32
	select {
	case buf = <-s.free:
	case <-s.done:
		return ErrClosed
	}
	s.full <- signal.Interleave(buf[:0], b)
	return nil
}

// Read encodes queued samples into p. Missing samples are zeroed.
func (s *stream) Read(p []byte) (int, error) {
	n := 0
	for n+sampleBytes <= len(p) {
		if s.pos == len(s.current) && !s.next() {
			if s.closed.Load() && n == 0 {
				return 0, io.EOF
			}
			if !s.closed.Load() {
				s.underruns.Add(1)
			}
			for i := n; i < len(p); i++ {
				p[i] = 0
			}
			return len(p), nil
		}
		binary.LittleEndian.PutUint32(p[n:], math.Float32bits(s.current[s.pos]))
		s.pos++
		n += sampleBytes
	}
	return n, nil
}

// next releases the current block and takes the next queued one.
func (s *stream) next() bool {
	if s.current != nil {
		s.free <- s.current
		s.current = nil
		s.pos = 0
	}
	select {
	case buf := <-s.full:
		s.current = buf
		return true
	default:
		return false
	}
}

// pending returns number of queued blocks.
func (s *stream) pending() int {
	return len(s.full)
}

func (s *stream) close() {
	if s.closed.CompareAndSwap(false, true) {
		close(s.done)
	}
}
