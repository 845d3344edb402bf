// Package aiff provides a sink which writes rendered blocks into an aiff
// file.
package aiff

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"

	"pipelined.dev/rack/module"
	"pipelined.dev/rack/signal"
)

// ErrUnsupportedBitDepth is returned when unsupported bit depth is used.
var ErrUnsupportedBitDepth = errors.New("unsupported bit depth")

// Sink saves audio to aiff file.
type Sink struct {
	path     string
	bitDepth signal.BitDepth
	file     *os.File
	encoder  *aiff.Encoder
}

// NewSink creates new aiff sink. Only 8, 16 and 24 bit depths are
// supported by the encoder.
func NewSink(path string, bitDepth signal.BitDepth) (*Sink, error) {
	switch bitDepth {
	case signal.BitDepth8, signal.BitDepth16, signal.BitDepth24:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}
	return &Sink{
		path:     path,
		bitDepth: bitDepth,
	}, nil
}

// Sink creates the file and returns the function which encodes blocks.
func (s *Sink) Sink(sampleRate, numChannels, blockSize int) (func([]module.Buffer) error, error) {
	f, err := os.Create(s.path)
	if err != nil {
		return nil, err
	}
	s.file = f
	s.encoder = aiff.NewEncoder(f, sampleRate, int(s.bitDepth), numChannels)
	ib := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: numChannels,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, 0, blockSize*numChannels),
		SourceBitDepth: int(s.bitDepth),
	}
	return func(b []module.Buffer) error {
		ib.Data = signal.AsInterInt(ib.Data[:0], b, s.bitDepth)
		return s.encoder.Write(ib)
	}, nil
}

// Flush closes the encoder and the file.
func (s *Sink) Flush() error {
	if s.encoder == nil {
		return nil
	}
	if err := s.encoder.Close(); err != nil {
		s.file.Close()
		return fmt.Errorf("error closing aiff encoder: %w", err)
	}
	return s.file.Close()
}
