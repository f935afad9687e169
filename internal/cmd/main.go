package cmd

import (
	"bufio"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
)

// Version is reported by "luigisbox -version".
var Version = "0.1.0"

// Main runs the CLI with the given arguments and returns the exit code.
func Main(args []string) int {
	cliName := args[0]

	log := hclog.New(&hclog.LoggerOptions{
		Name:   cliName,
		Level:  hclog.LevelFromString(os.Getenv("LUIGISBOX_LOG_LEVEL")),
		Output: os.Stderr,
	})

	if len(args) == 2 && (args[1] == "-version" || args[1] == "-v") {
		args = []string{cliName, "version"}
	}

	ui := &cli.BasicUi{
		Reader:      bufio.NewReader(os.Stdin),
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}

	c := &cli.CLI{
		Name:     cliName,
		Args:     args[1:],
		Version:  Version,
		Commands: Commands(&Command{UI: ui, Log: log}),
	}

	exitCode, err := c.Run()
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	return exitCode
}

// Commands returns the command table, every command sharing base.
func Commands(base *Command) map[string]cli.CommandFactory {
	return map[string]cli.CommandFactory{
		"update": func() (cli.Command, error) {
			return &ContentCommand{Command: base, partial: false}, nil
		},
		"partial-update": func() (cli.Command, error) {
			return &ContentCommand{Command: base, partial: true}, nil
		},
		"remove": func() (cli.Command, error) {
			return &RemoveCommand{Command: base}, nil
		},
		"update-by-query": func() (cli.Command, error) {
			return &UpdateByQueryCommand{Command: base}, nil
		},
		"status": func() (cli.Command, error) {
			return &StatusCommand{Command: base}, nil
		},
		"configs": func() (cli.Command, error) {
			return &ConfigsCommand{Command: base}, nil
		},
		"version": func() (cli.Command, error) {
			return &VersionCommand{Command: base}, nil
		},
	}
}
