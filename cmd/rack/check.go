package main

import (
	"flag"
	"fmt"
)

type checkCommand struct {
	engineFlags
}

// Implement command interface.
func (cmd *checkCommand) Name() string {
	return "check"
}

func (cmd *checkCommand) Help() string {
	return "Load the patch and print the execution order"
}

func (cmd *checkCommand) Register(fs *flag.FlagSet) {
	cmd.engineFlags.register(fs)
}

func (cmd *checkCommand) Run() error {
	e, diag, err := cmd.load()
	if err != nil {
		return err
	}
	for _, d := range diag {
		fmt.Fprintf(stdout, "warning: %v\n", d)
	}
	s := e.Schedule()
	fmt.Fprintln(stdout, "Order:")
	for i, id := range s.Order {
		inst, _ := e.Module(id)
		fmt.Fprintf(stdout, "\t%d: %s (%s)\n", i, id, inst.Type())
	}
	fmt.Fprintln(stdout, "Cables:")
	for _, c := range e.Cables() {
		if s.Deferred[c.ID] {
			fmt.Fprintf(stdout, "\t%s (one block delay)\n", c)
			continue
		}
		fmt.Fprintf(stdout, "\t%s\n", c)
	}
	return nil
}
