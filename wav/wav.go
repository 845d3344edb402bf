// Package wav provides a sink which writes rendered blocks into a wav
// file.
package wav

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"pipelined.dev/rack/module"
	"pipelined.dev/rack/signal"
)

// ErrUnsupportedBitDepth is returned when unsupported bit depth is used.
var ErrUnsupportedBitDepth = errors.New("unsupported bit depth")

// pcm is the wav audio format tag.
const pcm = 1

// Sink saves audio to wav file.
type Sink struct {
	path     string
	bitDepth signal.BitDepth
	file     *os.File
	encoder  *wav.Encoder
}

// NewSink creates new wav sink.
func NewSink(path string, bitDepth signal.BitDepth) (*Sink, error) {
	if !bitDepth.Valid() {
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
	s.encoder = wav.NewEncoder(f, sampleRate, int(s.bitDepth), numChannels, pcm)
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
		return fmt.Errorf("error closing wav encoder: %w", err)
	}
	return s.file.Close()
}
