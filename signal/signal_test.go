package signal_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pipelined.dev/rack/module"
	"pipelined.dev/rack/signal"
)

func TestInterleave(t *testing.T) {
	tests := []struct {
		src      []module.Buffer
		expected []float32
	}{
		{
			src:      nil,
			expected: nil,
		},
		{
			src:      []module.Buffer{{1, 0.5}, {-1, -0.5}},
			expected: []float32{1, -1, 0.5, -0.5},
		},
		{
			src:      []module.Buffer{{2, float32(math.NaN())}, {-3, 0}},
			expected: []float32{1, -1, 0, 0},
		},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, signal.Interleave(nil, test.src))
	}
}

func TestAsInterInt(t *testing.T) {
	tests := []struct {
		src      []module.Buffer
		bitDepth signal.BitDepth
		expected []int
	}{
		{
			src:      []module.Buffer{{1, 0}, {-1, 0.5}},
			bitDepth: signal.BitDepth16,
			expected: []int{math.MaxInt16, -math.MaxInt16, 0, 16384},
		},
		{
			src:      []module.Buffer{{1, -2}},
			bitDepth: signal.BitDepth8,
			expected: []int{math.MaxInt8, -math.MaxInt8},
		},
		{
			src:      []module.Buffer{{1}},
			bitDepth: signal.BitDepth24,
			expected: []int{1<<23 - 1},
		},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, signal.AsInterInt(nil, test.src, test.bitDepth))
	}
}

func TestBitDepth(t *testing.T) {
	assert.True(t, signal.BitDepth24.Valid())
	assert.False(t, signal.BitDepth(12).Valid())
	assert.Equal(t, 1, signal.BitDepth(12).MaxValue())
}

func TestDuration(t *testing.T) {
	assert.Equal(t, time.Second, signal.DurationOf(44100, 44100))
	assert.Equal(t, int64(22050), signal.SamplesOf(44100, 500*time.Millisecond))
}
