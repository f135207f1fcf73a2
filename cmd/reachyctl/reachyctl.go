package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"

	reachyhal "github.com/pollen-robotics/reachy-hal"
)

type CLICommand struct {
	Verbose  bool             `long:"verbose" description:"Print gate traffic and discovery details"`
	Joint    JointCommands    `command:"joint" alias:"joints" description:"Joint register functions"`
	Fan      FanCommands      `command:"fan" alias:"fans" description:"Fan functions"`
	Force    ForceCommands    `command:"force" alias:"forces" description:"Force sensor functions"`
	Discover DiscoverCommands `command:"discover" description:"Probe serial ports for gates"`
}

func main() {
	clicmd := CLICommand{}

	parser := flags.NewParser(&clicmd, flags.HelpFlag|flags.PassDoubleDash)
	parser.CommandHandler = func(command flags.Commander, args []string) error {
		if clicmd.Verbose {
			reachyhal.SetLogLevel(zerolog.DebugLevel)
		} else {
			reachyhal.SetLogLevel(zerolog.WarnLevel)
		}
		return command.Execute(args)
	}

	_, err := parser.Parse()

	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
