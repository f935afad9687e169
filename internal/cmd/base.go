package cmd

import (
	"flag"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/answear/luigisbox_sdk_go/pkg/config"
	"github.com/answear/luigisbox_sdk_go/pkg/luigisbox"
)

// Exit codes. ExitRejected means the request went through but the API
// rejected at least one item.
const (
	ExitOK       = 0
	ExitError    = 1
	ExitRejected = 2
)

// Command carries what every subcommand shares.
type Command struct {
	UI  cli.Ui
	Log hclog.Logger

	// NewClient overrides client construction; tests use it to plug in a
	// mock-backed client.
	NewClient func(configPath, endpoint string) (*luigisbox.Client, error)
}

// FlagSet wraps flag.FlagSet with help rendering.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet creates a FlagSet that reports errors instead of exiting.
func NewFlagSet(name string) *FlagSet {
	f := flag.NewFlagSet(name, flag.ContinueOnError)
	f.Usage = func() {}
	return &FlagSet{FlagSet: f}
}

// Help renders the registered flags.
func (f *FlagSet) Help() string {
	var b strings.Builder
	b.WriteString("\n\nOptions:\n")
	f.VisitAll(func(fl *flag.Flag) {
		fmt.Fprintf(&b, "\n  -%s", fl.Name)
		if fl.DefValue != "" && fl.DefValue != "false" {
			fmt.Fprintf(&b, "=%s", fl.DefValue)
		}
		fmt.Fprintf(&b, "\n      %s\n", fl.Usage)
	})
	return b.String()
}

// endpointFlags are shared by every command that talks to the API.
type endpointFlags struct {
	configPath string
	endpoint   string
}

func (e *endpointFlags) register(f *FlagSet) {
	f.StringVar(&e.configPath, "config", "",
		"Path to an HCL endpoint file. Without it the client is built from LUIGISBOX_* variables.")
	f.StringVar(&e.endpoint, "endpoint", "",
		"Endpoint name from -config to use instead of its default.")
}

func (c *Command) client(e endpointFlags) (*luigisbox.Client, error) {
	if c.NewClient != nil {
		return c.NewClient(e.configPath, e.endpoint)
	}
	if e.configPath == "" {
		if e.endpoint != "" {
			return nil, fmt.Errorf("-endpoint requires -config")
		}
		client, mode, err := luigisbox.NewFromEnv(luigisbox.WithLogger(c.Log))
		if err != nil {
			return nil, err
		}
		c.Log.Debug("client ready", "mode", mode)
		return client, nil
	}

	registry, err := config.LoadFile(e.configPath)
	if err != nil {
		return nil, err
	}
	if e.endpoint != "" {
		if err := registry.SwitchActive(e.endpoint); err != nil {
			return nil, err
		}
	}
	c.Log.Debug("client ready", "config", e.configPath, "endpoint", registry.ActiveName())
	return luigisbox.New(registry, luigisbox.WithLogger(c.Log))
}
