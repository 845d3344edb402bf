// Package mp3 provides a sink which encodes rendered blocks into an mp3
// file with lame.
package mp3

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/viert/lame"

	"pipelined.dev/rack/module"
	"pipelined.dev/rack/signal"
)

// Sink allows to send data to mp3 files.
type Sink struct {
	path    string
	bitRate int
	quality int
	f       *os.File
	wr      *lame.LameWriter
}

// NewSink creates new Sink. Quality is lame algorithm quality, 0 is the
// best and 9 is the worst.
func NewSink(path string, bitRate int, quality int) *Sink {
	return &Sink{
		path:    path,
		bitRate: bitRate,
		quality: quality,
	}
}

// Sink writes buffer into file.
func (s *Sink) Sink(sampleRate, numChannels, blockSize int) (func([]module.Buffer) error, error) {
	var err error
	s.f, err = os.Create(s.path)
	if err != nil {
		return nil, err
	}

	s.wr = lame.NewWriter(s.f)
	s.wr.Encoder.SetBitrate(s.bitRate)
	s.wr.Encoder.SetQuality(s.quality)
	s.wr.Encoder.SetNumChannels(numChannels)
	s.wr.Encoder.SetInSamplerate(sampleRate)
	if numChannels == 1 {
		s.wr.Encoder.SetMode(lame.MONO)
	} else {
		s.wr.Encoder.SetMode(lame.JOINT_STEREO)
	}
	s.wr.Encoder.SetVBR(lame.VBR_RH)
	s.wr.Encoder.InitParams()

	ints := make([]int, 0, blockSize*numChannels)
	pcm := make([]int16, 0, blockSize*numChannels)
	buf := bytes.NewBuffer(make([]byte, 0, 2*blockSize*numChannels))
	return func(b []module.Buffer) error {
		ints = signal.AsInterInt(ints[:0], b, signal.BitDepth16)
		pcm = pcm[:0]
		for _, v := range ints {
			pcm = append(pcm, int16(v))
		}
		buf.Reset()
		if err := binary.Write(buf, binary.LittleEndian, pcm); err != nil {
			return err
		}
		if _, err := s.wr.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("error encoding mp3: %w", err)
		}
		return nil
	}, nil
}

// Flush cleans up buffers.
func (s *Sink) Flush() error {
	if s.wr == nil {
		return nil
	}
	if err := s.wr.Close(); err != nil {
		s.f.Close()
		return err
	}
	return s.f.Close()
}
