// Package portaudio provides a sink which plays rendered blocks on the
// default output device.
package portaudio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"

	"pipelined.dev/rack/module"
	"pipelined.dev/rack/signal"
)

// Sink represets portaudio sink which allows to play audio using
// default device. The stream is blocking: the sink function returns
// when the device accepted the block, so it paces the engine.
type Sink struct {
	buf    []float32
	stream *portaudio.Stream
}

// NewSink returns new sink.
func NewSink() *Sink {
	return &Sink{}
}

// Sink writes the buffer of data to portaudio stream. It also
// initializes a portaudio api with default stream.
func (s *Sink) Sink(sampleRate, numChannels, blockSize int) (func([]module.Buffer) error, error) {
	s.buf = make([]float32, blockSize*numChannels)
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("error initializing portaudio: %w", err)
	}
	var err error
	s.stream, err = portaudio.OpenDefaultStream(0, numChannels, float64(sampleRate), blockSize, &s.buf)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("error opening stream: %w", err)
	}
	if err = s.stream.Start(); err != nil {
		s.stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("error starting stream: %w", err)
	}
	return func(b []module.Buffer) error {
		signal.Interleave(s.buf[:0], b)
		return s.stream.Write()
	}, nil
}

// Flush terminates portaudio structures.
func (s *Sink) Flush() error {
	if s.stream == nil {
		return nil
	}
	if err := s.stream.Stop(); err != nil {
		return err
	}
	if err := s.stream.Close(); err != nil {
		return err
	}
	return portaudio.Terminate()
}
