package main

import (
	"fmt"
	"strings"

	reachyhal "github.com/pollen-robotics/reachy-hal"
)

type JointListCommands struct {
	Model string `short:"m" long:"model" description:"Robot model" env:"REACHY_MODEL"`
}

func (c *JointListCommands) Execute(args []string) error {
	model, err := resolveModel(c.Model)
	if err != nil {
		return err
	}
	robot, err := reachyhal.NewRobot(model)
	if err != nil {
		return err
	}
	for _, name := range robot.JointNames() {
		regs, _ := robot.DeviceRegisters(name)
		fmt.Printf("%v: %v\n", name, strings.Join(regs, ", "))
	}
	return nil
}

type JointGetCommands struct {
	Model string   `short:"m" long:"model" description:"Robot model" env:"REACHY_MODEL"`
	Ports []string `short:"p" long:"port" description:"Candidate serial port(s)" env:"REACHYCTL_PORT" env-delim:","`
	Retry int      `short:"r" long:"retry" default:"1" description:"Retries on timeout"`
	Args  struct {
		Register string   `required:"1"`
		Names    []string `required:"1"`
	} `positional-args:"yes" required:"yes"`
}

func (c *JointGetCommands) Execute(args []string) error {
	robot, err := openRobot(c.Model, c.Ports)
	if err != nil {
		return err
	}
	defer robot.Close()

	values, err := robot.GetJointsValue(c.Args.Register, c.Args.Names, c.Retry)
	if err != nil {
		return err
	}
	for i, name := range c.Args.Names {
		fmt.Printf("%v %v: %v\n", name, c.Args.Register, values[i])
	}
	return nil
}

type JointSetCommands struct {
	Model string   `short:"m" long:"model" description:"Robot model" env:"REACHY_MODEL"`
	Ports []string `short:"p" long:"port" description:"Candidate serial port(s)" env:"REACHYCTL_PORT" env-delim:","`
	Args  struct {
		Register   string   `required:"1"`
		NameValues []string `required:"1"`
	} `positional-args:"yes" required:"yes"`
}

func (c *JointSetCommands) Execute(args []string) error {
	values, err := nameValues(c.Args.NameValues)
	if err != nil {
		return err
	}

	robot, err := openRobot(c.Model, c.Ports)
	if err != nil {
		return err
	}
	defer robot.Close()

	if err := robot.SetJointsValue(c.Args.Register, values); err != nil {
		return err
	}
	fmt.Printf("Set %v on %v joint(s)\n", c.Args.Register, len(values))
	return nil
}

type JointCommands struct {
	List JointListCommands `command:"list" description:"List the model's joints and their registers"`
	Get  JointGetCommands  `command:"get" alias:"read" description:"Read a joint register"`
	Set  JointSetCommands  `command:"set" alias:"write" description:"Write a joint register"`
}
