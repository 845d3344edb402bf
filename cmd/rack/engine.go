package main

import (
	"flag"
	"fmt"

	"pipelined.dev/rack"
	"pipelined.dev/rack/catalog"
	"pipelined.dev/rack/log"
	"pipelined.dev/rack/patch"
)

// engineFlags are shared by commands which load a patch.
type engineFlags struct {
	patch      string
	sampleRate int
	blockSize  int
}

func (f *engineFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.patch, "patch", "", "patch file, .yaml or .json (required)")
	fs.IntVar(&f.sampleRate, "sample-rate", 48000, "sample rate in Hz")
	fs.IntVar(&f.blockSize, "block-size", 256, "block size in samples")
}

// load creates the engine and loads the patch into it. Load
// diagnostics are logged and never fail the command.
func (f *engineFlags) load(options ...rack.Option) (*rack.Engine, patch.Diagnostics, error) {
	if err := required(map[string]string{"patch": f.patch}); err != nil {
		return nil, nil, err
	}
	doc, err := patch.ReadFile(f.patch)
	if err != nil {
		return nil, nil, fmt.Errorf("error reading patch: %w", err)
	}
	logger := log.GetLogger()
	options = append([]rack.Option{
		rack.WithCatalog(catalog.Default()),
		rack.WithLogger(logger),
		rack.WithName(f.patch),
	}, options...)
	e, err := rack.New(float64(f.sampleRate), f.blockSize, options...)
	if err != nil {
		return nil, nil, err
	}
	diag := patch.Load(e, doc)
	for _, d := range diag {
		logger.Warn(fmt.Sprintf("%s: %v", f.patch, d))
	}
	return e, diag, nil
}
