// Package metric publishes rendering counters with expvar. Counters are
// grouped by component type.
package metric

import (
	"expvar"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"pipelined.dev/rack/signal"
)

const componentsLabel = "rack.components"

const (
	// BlockCounter measures number of rendered blocks.
	BlockCounter = "Blocks"
	// SampleCounter measures number of samples.
	SampleCounter = "Samples"
	// DurationCounter counts what's the duration of signal.
	DurationCounter = "Duration"
	// ProcessCounter counts time spent rendering.
	ProcessCounter = "ProcessTime"
	// DeadlineCounter counts blocks rendered slower than real time.
	DeadlineCounter = "DeadlineMisses"
	// ComponentCounter counts number of metered components.
	ComponentCounter = "Components"
)

var (
	components = metrics{
		m: make(map[string]metric),
	}

	counters = []string{
		BlockCounter,
		SampleCounter,
		DurationCounter,
		ProcessCounter,
		DeadlineCounter,
		ComponentCounter,
	}
)

// Get metrics values for provided component type.
func Get(component interface{}) map[string]string {
	return getCounters(Type(component))
}

// GetAll returns counters for all measured components.
func GetAll() map[string]map[string]string {
	m := make(map[string]map[string]string)
	components.Lock()
	defer components.Unlock()
	for component := range components.m {
		m[component] = getCounters(component)
	}
	return m
}

func getCounters(componentType string) map[string]string {
	m := make(map[string]string)
	for _, counter := range counters {
		v := expvar.Get(key(componentType, counter))
		if v != nil {
			m[counter] = v.String()
		}
	}
	return m
}

// ResetFunc returns new Measure closure. This closure is needed to postpone metrics
// capture until component is actually running.
type ResetFunc func() MeasureFunc

// MeasureFunc captures metrics when block is rendered. It returns true
// if rendering took longer than the duration of the block.
type MeasureFunc func(blockSize int64, elapsed time.Duration) bool

// Meter creates new meter closure to capture component counters.
func Meter(component interface{}, sampleRate int) ResetFunc {
	t := Type(component)
	metric := components.get(t)
	metric.components.Add(1)
	return func() MeasureFunc {
		var (
			blockSize     int64
			blockDuration time.Duration
		)
		return func(s int64, elapsed time.Duration) bool {
			metric.blocks.Add(1)
			metric.samples.Add(s)
			// recalculate block duration only when block size has changed
			if blockSize != s {
				blockSize = s
				blockDuration = signal.DurationOf(sampleRate, s)
			}
			metric.duration.add(blockDuration)
			metric.process.add(elapsed)
			if elapsed > blockDuration {
				metric.misses.Add(1)
				return true
			}
			return false
		}
	}
}

type metrics struct {
	sync.Mutex
	m map[string]metric
}

func (m *metrics) get(componentType string) metric {
	m.Lock()
	defer m.Unlock()
	if metric, ok := m.m[componentType]; ok {
		// return existing metric if available
		return metric
	}
	// create new metric
	metric := newMetric(componentType)
	m.m[componentType] = metric
	return metric
}

type metric struct {
	components *expvar.Int
	blocks     *expvar.Int
	samples    *expvar.Int
	misses     *expvar.Int
	duration   *duration
	process    *duration
}

func newMetric(componentType string) metric {
	m := metric{
		components: expvar.NewInt(key(componentType, ComponentCounter)),
		blocks:     expvar.NewInt(key(componentType, BlockCounter)),
		samples:    expvar.NewInt(key(componentType, SampleCounter)),
		misses:     expvar.NewInt(key(componentType, DeadlineCounter)),
		duration:   &duration{},
		process:    &duration{},
	}
	expvar.Publish(key(componentType, DurationCounter), m.duration)
	expvar.Publish(key(componentType, ProcessCounter), m.process)
	return m
}

func key(componentType, counter string) string {
	return fmt.Sprintf("%s.%s.%s", componentsLabel, componentType, counter)
}

// Type returns the name of component type used to group counters.
func Type(component interface{}) string {
	rv := reflect.ValueOf(component)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	return rv.Type().String()
}

// duration allows to format time.Duration metric values.
type duration struct {
	d int64
}

func (v *duration) String() string {
	return fmt.Sprintf("%q", time.Duration(atomic.LoadInt64(&v.d)).String())
}

func (v *duration) add(delta time.Duration) {
	atomic.AddInt64(&v.d, int64(delta))
}
