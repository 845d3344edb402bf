package main

import (
	"flag"
	"fmt"
	"strings"

	"pipelined.dev/rack/catalog"
	"pipelined.dev/rack/module"
)

type listCommand struct {
	verbose bool
}

// Implement command interface.
func (cmd *listCommand) Name() string {
	return "list"
}

func (cmd *listCommand) Help() string {
	return "Show the list of available modules"
}

func (cmd *listCommand) Register(fs *flag.FlagSet) {
	fs.BoolVar(&cmd.verbose, "v", false, "print ports and parameters")
}

func (cmd *listCommand) Run() error {
	c := catalog.Default()
	for _, typ := range c.Types() {
		d := c[typ]
		fmt.Fprintln(stdout, typ)
		if !cmd.verbose {
			continue
		}
		fmt.Fprintf(stdout, "\tinputs:  %s\n", ports(d.Inputs))
		fmt.Fprintf(stdout, "\toutputs: %s\n", ports(d.Outputs))
		for _, p := range d.Params {
			fmt.Fprintf(stdout, "\tparam %s: %v..%v default %v %s\n", p.Name, p.Min, p.Max, p.Default, p.Unit)
		}
		if len(d.LEDs) > 0 {
			fmt.Fprintf(stdout, "\tleds:    %s\n", strings.Join(d.LEDs, " "))
		}
	}
	return nil
}

func ports(specs []module.PortSpec) string {
	s := make([]string, 0, len(specs))
	for _, p := range specs {
		s = append(s, fmt.Sprintf("%s(%s)", p.Name, p.Kind))
	}
	return strings.Join(s, " ")
}
