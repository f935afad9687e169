package cmd

import (
	"fmt"

	"github.com/answear/luigisbox_sdk_go/pkg/config"
)

// ConfigsCommand lists the endpoints of an HCL config file.
type ConfigsCommand struct {
	*Command

	flagConfig string
}

func (c *ConfigsCommand) Synopsis() string {
	return "List the endpoints defined in a config file"
}

func (c *ConfigsCommand) Help() string {
	return `Usage: luigisbox configs -config=<file.hcl>

  Validates the config file and prints every endpoint, marking the default
  with "*". Private keys are never printed.` + c.Flags().Help()
}

func (c *ConfigsCommand) Flags() *FlagSet {
	f := NewFlagSet("configs")
	f.StringVar(&c.flagConfig, "config", "", "(Required) Path to an HCL endpoint file.")
	return f
}

func (c *ConfigsCommand) Run(args []string) int {
	if err := c.Flags().Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return ExitError
	}
	if c.flagConfig == "" {
		c.UI.Error("config flag is required")
		return ExitError
	}

	registry, err := config.LoadFile(c.flagConfig)
	if err != nil {
		c.UI.Error(err.Error())
		return ExitError
	}
	for _, name := range registry.Names() {
		cfg, _ := registry.Get(name)
		marker := " "
		if name == registry.ActiveName() {
			marker = "*"
		}
		c.UI.Output(fmt.Sprintf("%s %s\t%s\tpublic key %s\ttimeouts %gs/%gs/%gs",
			marker, name, cfg.Host, cfg.PublicKey,
			cfg.ConnectionTimeout, cfg.RequestTimeout, cfg.SearchTimeout))
	}
	return ExitOK
}

// VersionCommand prints the CLI version.
type VersionCommand struct {
	*Command
}

func (c *VersionCommand) Synopsis() string { return "Print the version" }

func (c *VersionCommand) Help() string { return "Usage: luigisbox version" }

func (c *VersionCommand) Run(args []string) int {
	c.UI.Output("luigisbox " + Version)
	return ExitOK
}
