// Package catalog lists every module type of the rack.
package catalog

import (
	"pipelined.dev/rack/arpeggiator"
	"pipelined.dev/rack/clock"
	"pipelined.dev/rack/delay"
	"pipelined.dev/rack/divider"
	"pipelined.dev/rack/envelope"
	"pipelined.dev/rack/filter"
	"pipelined.dev/rack/logic"
	"pipelined.dev/rack/meter"
	"pipelined.dev/rack/midicv"
	"pipelined.dev/rack/mixer"
	"pipelined.dev/rack/module"
	"pipelined.dev/rack/oscillator"
	"pipelined.dev/rack/output"
	"pipelined.dev/rack/sampleandhold"
	"pipelined.dev/rack/vca"
)

// Default returns a new catalog with all module types.
func Default() module.Catalog {
	return module.Catalog(nil).Add(
		oscillator.Descriptor,
		filter.Descriptor,
		envelope.Descriptor,
		clock.Descriptor,
		divider.Descriptor,
		mixer.Descriptor,
		vca.Descriptor,
		sampleandhold.Descriptor,
		delay.Descriptor,
		logic.Descriptor,
		arpeggiator.Descriptor,
		meter.Descriptor,
		midicv.Descriptor,
		output.Descriptor,
	)
}
