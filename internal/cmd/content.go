package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/answear/luigisbox_sdk_go/pkg/luigisbox"
)

// ContentCommand sends catalog objects with a full or partial update.
type ContentCommand struct {
	*Command
	partial bool

	endpoint  endpointFlags
	flagFile  string
	flagBatch int
	flagJSON  bool
}

func (c *ContentCommand) name() string {
	if c.partial {
		return "partial-update"
	}
	return "update"
}

func (c *ContentCommand) limit() int {
	if c.partial {
		return luigisbox.PartialUpdateLimit
	}
	return luigisbox.ContentUpdateLimit
}

func (c *ContentCommand) Synopsis() string {
	if c.partial {
		return "Change selected fields of existing catalog objects"
	}
	return "Create or replace catalog objects"
}

func (c *ContentCommand) Help() string {
	return fmt.Sprintf(`Usage: luigisbox %s -file=<items.yaml> [options]

  Reads objects from a YAML or JSON file (a list, or {"objects": [...]}) and
  sends them in batches of at most %d. Exits with 2 when the API rejected any
  object.`, c.name(), c.limit()) + c.Flags().Help()
}

func (c *ContentCommand) Flags() *FlagSet {
	f := NewFlagSet(c.name())
	c.endpoint.register(f)
	f.StringVar(&c.flagFile, "file", "", "(Required) Path to the objects file.")
	f.IntVar(&c.flagBatch, "batch-size", c.limit(), "Objects per request.")
	f.BoolVar(&c.flagJSON, "json", false, "Print raw API responses.")
	return f
}

func (c *ContentCommand) Run(args []string) int {
	if err := c.Flags().Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return ExitError
	}
	if c.flagFile == "" {
		c.UI.Error("file flag is required")
		return ExitError
	}
	if c.flagBatch < 1 || c.flagBatch > c.limit() {
		c.UI.Error(fmt.Sprintf("batch-size must be between 1 and %d", c.limit()))
		return ExitError
	}

	items, err := readItems[luigisbox.ContentItem](c.flagFile)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error reading objects: %v", err))
		return ExitError
	}
	client, err := c.client(c.endpoint)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error creating client: %v", err))
		return ExitError
	}

	send := client.Update
	if c.partial {
		send = client.PartialUpdate
	}
	return runBatches(c.Command, chunk(items, c.flagBatch), c.flagJSON, send)
}

// RemoveCommand deletes catalog objects.
type RemoveCommand struct {
	*Command

	endpoint  endpointFlags
	flagFile  string
	flagType  string
	flagBatch int
	flagJSON  bool
}

func (c *RemoveCommand) Synopsis() string {
	return "Remove catalog objects"
}

func (c *RemoveCommand) Help() string {
	return `Usage: luigisbox remove [options] [url ...]

  Removes the objects given as arguments, or listed in -file. Exits with 2
  when the API rejected any removal.` + c.Flags().Help()
}

func (c *RemoveCommand) Flags() *FlagSet {
	f := NewFlagSet("remove")
	c.endpoint.register(f)
	f.StringVar(&c.flagFile, "file", "", "Path to a YAML or JSON list of {url, type} objects.")
	f.StringVar(&c.flagType, "type", "", "Object type applied to URLs given as arguments.")
	f.IntVar(&c.flagBatch, "batch-size", 0, "Objects per request (0 sends everything at once).")
	f.BoolVar(&c.flagJSON, "json", false, "Print raw API responses.")
	return f
}

func (c *RemoveCommand) Run(args []string) int {
	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return ExitError
	}

	var items []luigisbox.RemovalItem
	if c.flagFile != "" {
		fromFile, err := readItems[luigisbox.RemovalItem](c.flagFile)
		if err != nil {
			c.UI.Error(fmt.Sprintf("error reading objects: %v", err))
			return ExitError
		}
		items = append(items, fromFile...)
	}
	for _, url := range flags.Args() {
		if url = strings.TrimSpace(url); url != "" {
			items = append(items, luigisbox.RemovalItem{URL: url, Type: c.flagType})
		}
	}
	if len(items) == 0 {
		c.UI.Error("nothing to remove: pass URLs or -file")
		return ExitError
	}

	client, err := c.client(c.endpoint)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error creating client: %v", err))
		return ExitError
	}
	return runBatches(c.Command, chunk(items, c.flagBatch), c.flagJSON, client.Remove)
}

func runBatches[T any](c *Command, batches [][]T, rawJSON bool,
	send func(context.Context, []T) (*luigisbox.OperationResult, error)) int {
	ctx := context.Background()
	exit := ExitOK
	var ok, failed int
	for i, batch := range batches {
		result, err := send(ctx, batch)
		if err != nil {
			c.UI.Error(fmt.Sprintf("batch %d/%d: %v", i+1, len(batches), err))
			return ExitError
		}
		ok += result.OkCount
		failed += result.ErrorsCount
		if rawJSON {
			c.UI.Output(string(result.RawBody))
			continue
		}
		c.Log.Debug("batch done", "batch", i+1, "of", len(batches), "ok_count", result.OkCount, "errors_count", result.ErrorsCount)
		for _, e := range result.Errors {
			c.UI.Warn(formatItemError(e))
		}
		if !result.IsSuccess() {
			exit = ExitRejected
		}
	}
	if !rawJSON {
		c.UI.Info(fmt.Sprintf("ok: %d, errors: %d", ok, failed))
	}
	if failed > 0 {
		exit = ExitRejected
	}
	return exit
}

func formatItemError(e luigisbox.ItemError) string {
	msg := fmt.Sprintf("%s: %s: %s", e.URL, e.Type, e.Reason)
	if e.CausedBy != nil {
		msg += fmt.Sprintf(" %v", e.CausedBy)
	}
	return msg
}
