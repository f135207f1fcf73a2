package main

import "fmt"

type ForceGetCommands struct {
	Model string   `short:"m" long:"model" description:"Robot model" env:"REACHY_MODEL"`
	Ports []string `short:"p" long:"port" description:"Candidate serial port(s)" env:"REACHYCTL_PORT" env-delim:","`
	Retry int      `short:"r" long:"retry" default:"1" description:"Retries on timeout"`
	Args  struct {
		Names []string
	} `positional-args:"yes"`
}

func (c *ForceGetCommands) Execute(args []string) error {
	robot, err := openRobot(c.Model, c.Ports)
	if err != nil {
		return err
	}
	defer robot.Close()

	names := c.Args.Names
	if len(names) == 0 {
		names = robot.ForceSensorNames()
	}
	forces, err := robot.GetForce(names, c.Retry)
	if err != nil {
		return err
	}
	for i, name := range names {
		fmt.Printf("%v: %v\n", name, forces[i])
	}
	return nil
}

type ForceCommands struct {
	Get ForceGetCommands `command:"get" alias:"read" description:"Read force sensors"`
}
