package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"pipelined.dev/rack"
	"pipelined.dev/rack/aiff"
	"pipelined.dev/rack/mp3"
	"pipelined.dev/rack/signal"
	"pipelined.dev/rack/wav"
)

type renderCommand struct {
	engineFlags
	out      string
	seconds  float64
	bitDepth int
	bitRate  int
}

// Implement command interface.
func (cmd *renderCommand) Name() string {
	return "render"
}

func (cmd *renderCommand) Help() string {
	return "Render the patch into audio file"
}

func (cmd *renderCommand) Register(fs *flag.FlagSet) {
	cmd.engineFlags.register(fs)
	fs.StringVar(&cmd.out, "out", "", "output file, .wav, .aiff or .mp3 (required)")
	fs.Float64Var(&cmd.seconds, "seconds", 10, "duration of rendered audio")
	fs.IntVar(&cmd.bitDepth, "bit-depth", 16, "bit depth of wav and aiff files")
	fs.IntVar(&cmd.bitRate, "bit-rate", 192, "bit rate of mp3 files in kbps")
}

func (cmd *renderCommand) Run() error {
	if err := required(map[string]string{"patch": cmd.patch, "out": cmd.out}); err != nil {
		return err
	}
	sink, err := cmd.sink()
	if err != nil {
		return err
	}
	e, _, err := cmd.load()
	if err != nil {
		return err
	}
	samples := signal.SamplesOf(cmd.sampleRate, time.Duration(cmd.seconds*float64(time.Second)))
	blocks := int((samples + int64(cmd.blockSize) - 1) / int64(cmd.blockSize))
	if err := e.Render(context.Background(), sink, blocks); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Rendered %d blocks into %s\n", blocks, cmd.out)
	return nil
}

// sink returns file sink by extension of the output file.
func (cmd *renderCommand) sink() (rack.Sink, error) {
	switch ext := strings.ToLower(filepath.Ext(cmd.out)); ext {
	case ".wav":
		return wav.NewSink(cmd.out, signal.BitDepth(cmd.bitDepth))
	case ".aif", ".aiff":
		return aiff.NewSink(cmd.out, signal.BitDepth(cmd.bitDepth))
	case ".mp3":
		return mp3.NewSink(cmd.out, cmd.bitRate, 2), nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", ext)
	}
}
