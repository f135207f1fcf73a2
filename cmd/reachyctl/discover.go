package main

import (
	"fmt"
	"sort"

	reachyhal "github.com/pollen-robotics/reachy-hal"
)

type DiscoverCommands struct {
	Model string   `short:"m" long:"model" description:"Robot model" env:"REACHY_MODEL"`
	Ports []string `short:"p" long:"port" description:"Candidate serial port(s)" env:"REACHYCTL_PORT" env-delim:"," required:"true"`
}

func (c *DiscoverCommands) Execute(args []string) error {
	model, err := resolveModel(c.Model)
	if err != nil {
		return err
	}
	expected, err := reachyhal.ExpectedDevices(model)
	if err != nil {
		return err
	}

	gates := make([]string, 0, len(expected))
	for gate := range expected {
		gates = append(gates, gate)
	}
	sort.Strings(gates)

	for _, gate := range gates {
		result, err := reachyhal.FindGate(expected[gate], c.Ports)
		if err != nil {
			fmt.Printf("%v: Failed: %v\n", gate, err)
			continue
		}
		fmt.Printf("%v: port %v, %v device(s) matched\n", gate, result.Port, len(result.Matched))
	}
	return nil
}
