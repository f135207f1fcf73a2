package main

import "fmt"

type FanGetCommands struct {
	Model string   `short:"m" long:"model" description:"Robot model" env:"REACHY_MODEL"`
	Ports []string `short:"p" long:"port" description:"Candidate serial port(s)" env:"REACHYCTL_PORT" env-delim:","`
	Retry int      `short:"r" long:"retry" default:"1" description:"Retries on timeout"`
	Args  struct {
		Names []string
	} `positional-args:"yes"`
}

func (c *FanGetCommands) Execute(args []string) error {
	robot, err := openRobot(c.Model, c.Ports)
	if err != nil {
		return err
	}
	defer robot.Close()

	names := c.Args.Names
	if len(names) == 0 {
		names = robot.FanNames()
	}
	states, err := robot.GetFansState(names, c.Retry)
	if err != nil {
		return err
	}
	for i, name := range names {
		state := "off"
		if states[i] {
			state = "on"
		}
		fmt.Printf("%v: %v\n", name, state)
	}
	return nil
}

type FanSetCommands struct {
	Model string   `short:"m" long:"model" description:"Robot model" env:"REACHY_MODEL"`
	Ports []string `short:"p" long:"port" description:"Candidate serial port(s)" env:"REACHYCTL_PORT" env-delim:","`
	Args  struct {
		NameStates []string `required:"1"`
	} `positional-args:"yes" required:"yes"`
}

func (c *FanSetCommands) Execute(args []string) error {
	states, err := nameBools(c.Args.NameStates)
	if err != nil {
		return err
	}

	robot, err := openRobot(c.Model, c.Ports)
	if err != nil {
		return err
	}
	defer robot.Close()

	if err := robot.SetFansState(states); err != nil {
		return err
	}
	fmt.Printf("Set %v fan(s)\n", len(states))
	return nil
}

type FanCommands struct {
	Get FanGetCommands `command:"get" alias:"read" description:"Read fan states"`
	Set FanSetCommands `command:"set" alias:"write" description:"Write fan states"`
}
