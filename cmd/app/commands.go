package main

import (
	"io"
	"os"

	"github.com/urfave/cli/v3"
)

func getCommands(version string) []*cli.Command {
	return append(getSystemCommands(version), getWalletCommands()...)
}

// output returns the root command writer so tests can capture command output.
func output(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}
