package metric_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pipelined.dev/rack/metric"
)

type (
	first  struct{}
	second struct{}
)

func TestMeter(t *testing.T) {
	sampleRate := 44100
	// test cases
	var tests = []struct {
		component          interface{}
		routines           int
		blocks             int
		blockSize          int64
		elapsed            time.Duration
		expectedSamples    string
		expectedBlocks     string
		expectedMisses     string
		expectedComponents string
	}{
		{
			component:          first{},
			routines:           2,
			blocks:             10,
			blockSize:          100,
			elapsed:            time.Microsecond,
			expectedSamples:    "2000",
			expectedBlocks:     "20",
			expectedMisses:     "0",
			expectedComponents: "2",
		},
		{
			component:          &second{},
			routines:           2,
			blocks:             10,
			blockSize:          441,
			elapsed:            time.Second,
			expectedSamples:    "8820",
			expectedBlocks:     "20",
			expectedMisses:     "20",
			expectedComponents: "2",
		},
	}
	// function to test meter.
	testFn := func(fn metric.MeasureFunc, wg *sync.WaitGroup, blocks int, blockSize int64, elapsed time.Duration) {
		for i := 0; i < blocks; i++ {
			fn(blockSize, elapsed)
		}
		wg.Done()
	}

	for _, c := range tests {
		wg := &sync.WaitGroup{}
		wg.Add(c.routines)
		for i := 0; i < c.routines; i++ {
			go testFn(metric.Meter(c.component, sampleRate)(), wg, c.blocks, c.blockSize, c.elapsed)
		}
		// check if no data race.
		wg.Wait()
		values := metric.Get(c.component)
		assert.Equal(t, c.expectedSamples, values[metric.SampleCounter])
		assert.Equal(t, c.expectedBlocks, values[metric.BlockCounter])
		assert.Equal(t, c.expectedMisses, values[metric.DeadlineCounter])
		assert.Equal(t, c.expectedComponents, values[metric.ComponentCounter])
	}
	assert.Contains(t, metric.GetAll(), metric.Type(first{}))
}

func TestType(t *testing.T) {
	assert.Equal(t, "metric_test.first", metric.Type(&first{}))
}
