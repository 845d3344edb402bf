// Package signal converts rendered blocks into the formats consumed by
// audio sinks. Blocks are non-interleaved float buffers in full-scale
// range [-1, 1]; sinks expect interleaved floats or ints.
package signal

import (
	"math"
	"time"

	"pipelined.dev/rack/module"
)

const (
	// BitDepth8 is 8 bit depth.
	BitDepth8 = BitDepth(8)
	// BitDepth16 is 16 bit depth.
	BitDepth16 = BitDepth(16)
	// BitDepth24 is 24 bit depth.
	BitDepth24 = BitDepth(24)
	// BitDepth32 is 32 bit depth.
	BitDepth32 = BitDepth(32)
)

// BitDepth contains values required for float-to-int conversion.
type BitDepth int

// MaxValue returns the largest int value of this bit depth.
func (bitDepth BitDepth) MaxValue() int {
	switch bitDepth {
	case BitDepth8:
		return math.MaxInt8
	case BitDepth16:
		return math.MaxInt16
	case BitDepth24:
		return 1<<23 - 1
	case BitDepth32:
		return math.MaxInt32
	default:
		return 1
	}
}

// Valid returns true if bit depth is supported.
func (bitDepth BitDepth) Valid() bool {
	switch bitDepth {
	case BitDepth8, BitDepth16, BitDepth24, BitDepth32:
		return true
	}
	return false
}

// DurationOf returns time duration of passed samples for this sample rate.
func DurationOf(sampleRate int, samples int64) time.Duration {
	return time.Duration(float64(samples) / float64(sampleRate) * float64(time.Second))
}

// SamplesOf returns number of samples in the duration for this sample
// rate.
func SamplesOf(sampleRate int, d time.Duration) int64 {
	return int64(math.Ceil(float64(sampleRate) * d.Seconds()))
}

// Interleave appends interleaved samples of all channels to dst.
// Samples are clipped to [-1, 1].
func Interleave(dst []float32, src []module.Buffer) []float32 {
	size := Size(src)
	for i := 0; i < size; i++ {
		for c := range src {
			dst = append(dst, clip(src[c][i]))
		}
	}
	return dst
}

// AsInterInt appends interleaved int samples of all channels to dst.
// Samples are clipped to [-1, 1] and scaled to the bit depth.
func AsInterInt(dst []int, src []module.Buffer, bitDepth BitDepth) []int {
	size := Size(src)
	multiplier := float64(bitDepth.MaxValue())
	for i := 0; i < size; i++ {
		for c := range src {
			dst = append(dst, int(math.Round(float64(clip(src[c][i]))*multiplier)))
		}
	}
	return dst
}

// Size returns number of samples in single channel.
func Size(src []module.Buffer) int {
	if len(src) == 0 {
		return 0
	}
	return len(src[0])
}

func clip(v float32) float32 {
	switch {
	case v != v:
		return 0
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}
