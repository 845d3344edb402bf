package oto

import (
	"encoding/binary"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/rack/module"
)

func decode(p []byte) []float32 {
	v := make([]float32, len(p)/sampleBytes)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(p[i*sampleBytes:]))
	}
	return v
}

func TestStream(t *testing.T) {
	s := newStream(2, 4)
	p := make([]byte, 6*sampleBytes)

	// nothing queued
	n, err := s.Read(p)
	require.NoError(t, err)
	assert.Equal(t, len(p), n)
	assert.Equal(t, make([]float32, 6), decode(p))
	assert.Equal(t, int64(1), s.underruns.Load())

	require.NoError(t, s.write([]module.Buffer{{0.1, 0.2}, {-0.1, -0.2}}))
	require.NoError(t, s.write([]module.Buffer{{0.3, 2}, {-0.3, -2}}))
	assert.Equal(t, 2, s.pending())

	n, err = s.Read(p)
	require.NoError(t, err)
	assert.Equal(t, len(p), n)
	assert.Equal(t, []float32{0.1, -0.1, 0.2, -0.2, 0.3, -0.3}, decode(p))

	// the rest of the block, then silence
	n, err = s.Read(p)
	require.NoError(t, err)
	assert.Equal(t, len(p), n)
	assert.Equal(t, []float32{1, -1, 0, 0, 0, 0}, decode(p))
	assert.Equal(t, int64(2), s.underruns.Load())
}

func TestStreamClose(t *testing.T) {
	s := newStream(1, 2)
	require.NoError(t, s.write([]module.Buffer{{0.5, 0.5}}))

	// writer blocks until the block is consumed
	written := make(chan error)
	go func() {
		written <- s.write([]module.Buffer{{0.25, 0.25}})
	}()
	p := make([]byte, 2*sampleBytes)
	_, err := s.Read(p)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, decode(p))
	select {
	case <-written:
		t.Fatal("write must block while the queue is full")
	default:
	}
	// releases the first buffer
	_, err = s.Read(p)
	require.NoError(t, err)
	assert.NoError(t, <-written)
	// the block is queued after the release, it's played either right
	// away or by the next read
	if got := decode(p); got[0] == 0 {
		_, err = s.Read(p)
		require.NoError(t, err)
	}
	assert.Equal(t, []float32{0.25, 0.25}, decode(p))

	s.close()
	s.close()
	assert.ErrorIs(t, s.write([]module.Buffer{{0, 0}}), ErrClosed)
	n, err := s.Read(p)
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF)
}

func TestNewSink(t *testing.T) {
	assert.Equal(t, DefaultQueue, NewSink(0).queue)
	assert.Equal(t, 8, NewSink(8).queue)
	s := NewSink(0)
	assert.Equal(t, int64(0), s.Underruns())
	assert.NoError(t, s.Flush())
}
