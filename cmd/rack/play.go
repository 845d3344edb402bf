package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"pipelined.dev/rack"
	"pipelined.dev/rack/event"
	"pipelined.dev/rack/oto"
	"pipelined.dev/rack/portaudio"
	"pipelined.dev/rack/repeat"
	racksignal "pipelined.dev/rack/signal"
	"pipelined.dev/rack/wav"
)

type playCommand struct {
	engineFlags
	backend string
	midi    string
	queue   int
	record  string
}

// Implement command interface.
func (cmd *playCommand) Name() string {
	return "play"
}

func (cmd *playCommand) Help() string {
	return "Play the patch until interrupted"
}

func (cmd *playCommand) Register(fs *flag.FlagSet) {
	cmd.engineFlags.register(fs)
	fs.StringVar(&cmd.backend, "backend", "portaudio", "audio backend: portaudio or oto")
	fs.StringVar(&cmd.midi, "midi", "", "name of MIDI input port")
	fs.IntVar(&cmd.queue, "events", event.DefaultSize, "capacity of MIDI event queue")
	fs.StringVar(&cmd.record, "record", "", "record played audio into wav file")
}

func (cmd *playCommand) sink() (rack.Sink, error) {
	var device rack.Sink
	switch cmd.backend {
	case "portaudio":
		device = portaudio.NewSink()
	case "oto":
		device = oto.NewSink(oto.DefaultQueue)
	default:
		return nil, fmt.Errorf("unknown backend %q", cmd.backend)
	}
	if cmd.record == "" {
		return device, nil
	}
	recorder, err := wav.NewSink(cmd.record, racksignal.BitDepth16)
	if err != nil {
		return nil, err
	}
	return repeat.New(device, recorder), nil
}

func (cmd *playCommand) Run() error {
	sink, err := cmd.sink()
	if err != nil {
		return err
	}
	var options []rack.Option
	if cmd.midi != "" {
		defer midi.CloseDriver()
		in, err := midi.FindInPort(cmd.midi)
		if err != nil {
			return fmt.Errorf("error finding MIDI port %q: %w", cmd.midi, err)
		}
		q := event.NewQueue(cmd.queue)
		stop, err := q.Listen(in)
		if err != nil {
			return err
		}
		defer stop()
		options = append(options, rack.WithEvents(q))
	}
	e, _, err := cmd.load(options...)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	fmt.Fprintf(stdout, "Playing %s, press Ctrl+C to stop\n", cmd.patch)
	for err := range e.Run(ctx, sink) {
		return err
	}
	return nil
}
