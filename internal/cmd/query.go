package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/answear/luigisbox_sdk_go/internal/httpx"
	"github.com/answear/luigisbox_sdk_go/pkg/luigisbox"
)

var errJobPending = errors.New("job still processing")

// waitFlags configure status polling.
type waitFlags struct {
	wait     bool
	interval time.Duration
	timeout  time.Duration
}

func (w *waitFlags) register(f *FlagSet) {
	f.BoolVar(&w.wait, "wait", false, "Poll the job status until it completes.")
	f.DurationVar(&w.interval, "interval", time.Second, "Initial delay between status polls.")
	f.DurationVar(&w.timeout, "timeout", 5*time.Minute, "Give up waiting after this long (0 waits forever).")
}

func (w waitFlags) validate() error {
	if w.interval <= 0 {
		return fmt.Errorf("-interval must be positive, got %s", w.interval)
	}
	if w.timeout < 0 {
		return fmt.Errorf("-timeout must not be negative, got %s", w.timeout)
	}
	return nil
}

// UpdateByQueryCommand submits an update-by-query job.
type UpdateByQueryCommand struct {
	*Command

	endpoint   endpointFlags
	waiting    waitFlags
	flagFile   string
	flagTypes  string
	flagSearch fieldsFlag
	flagSet    fieldsFlag
	flagJSON   bool
}

func (c *UpdateByQueryCommand) Synopsis() string {
	return "Update every object matching a query"
}

func (c *UpdateByQueryCommand) Help() string {
	return `Usage: luigisbox update-by-query -types=<t1,t2> -search key=value -set key=value [options]

  Submits an asynchronous update of all objects of the given types whose
  fields match every -search pair. The query can also be read from -file:

    types: [item]
    search_fields: {color: red}
    update_fields: {color: green}

  Prints the job id; with -wait, follows the job like "luigisbox status".` + c.Flags().Help()
}

func (c *UpdateByQueryCommand) Flags() *FlagSet {
	f := NewFlagSet("update-by-query")
	c.endpoint.register(f)
	c.waiting.register(f)
	c.flagSearch = fieldsFlag{}
	c.flagSet = fieldsFlag{}
	f.StringVar(&c.flagFile, "file", "", "Path to a YAML or JSON query document.")
	f.StringVar(&c.flagTypes, "types", "", "Comma separated object types to match.")
	f.Var(c.flagSearch, "search", "Field to match as key=value. Can be repeated.")
	f.Var(c.flagSet, "set", "Field to write as key=value. Can be repeated.")
	f.BoolVar(&c.flagJSON, "json", false, "Print raw API responses.")
	return f
}

func (c *UpdateByQueryCommand) query() (luigisbox.UpdateByQuery, error) {
	var q luigisbox.UpdateByQuery
	if c.flagFile != "" {
		if err := readDocument(c.flagFile, &q); err != nil {
			return q, err
		}
	}
	for _, t := range strings.Split(c.flagTypes, ",") {
		if t = strings.TrimSpace(t); t != "" {
			q.Types = append(q.Types, t)
		}
	}
	q.SearchFields = merge(q.SearchFields, c.flagSearch)
	q.UpdateFields = merge(q.UpdateFields, c.flagSet)
	return q, nil
}

func merge(dst, src map[string]any) map[string]any {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (c *UpdateByQueryCommand) Run(args []string) int {
	if err := c.Flags().Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return ExitError
	}
	if err := c.waiting.validate(); err != nil {
		c.UI.Error(err.Error())
		return ExitError
	}
	q, err := c.query()
	if err != nil {
		c.UI.Error(fmt.Sprintf("error reading query: %v", err))
		return ExitError
	}
	client, err := c.client(c.endpoint)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error creating client: %v", err))
		return ExitError
	}

	ctx := context.Background()
	result, err := client.UpdateByQuery(ctx, q)
	if err != nil {
		c.UI.Error(err.Error())
		return ExitError
	}
	if c.flagJSON {
		c.UI.Output(string(result.RawBody))
	} else {
		c.UI.Info(fmt.Sprintf("job %d accepted", result.JobID))
	}
	if !c.waiting.wait {
		return ExitOK
	}
	return followJob(ctx, c.Command, client, result.JobID, c.waiting, c.flagJSON)
}

// StatusCommand reports the state of an update-by-query job.
type StatusCommand struct {
	*Command

	endpoint endpointFlags
	waiting  waitFlags
	flagJSON bool
}

func (c *StatusCommand) Synopsis() string {
	return "Show the status of an update-by-query job"
}

func (c *StatusCommand) Help() string {
	return `Usage: luigisbox status [options] <job id>

  Fetches the status of an update-by-query job. With -wait the status is
  polled with exponential backoff until the job completes. Exits with 2 when
  the job reported failures.` + c.Flags().Help()
}

func (c *StatusCommand) Flags() *FlagSet {
	f := NewFlagSet("status")
	c.endpoint.register(f)
	c.waiting.register(f)
	f.BoolVar(&c.flagJSON, "json", false, "Print raw API responses.")
	return f
}

func (c *StatusCommand) Run(args []string) int {
	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return ExitError
	}
	if err := c.waiting.validate(); err != nil {
		c.UI.Error(err.Error())
		return ExitError
	}
	if flags.NArg() != 1 {
		c.UI.Error("expected exactly one job id")
		return ExitError
	}
	jobID, err := strconv.Atoi(flags.Arg(0))
	if err != nil {
		c.UI.Error(fmt.Sprintf("invalid job id %q", flags.Arg(0)))
		return ExitError
	}
	client, err := c.client(c.endpoint)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error creating client: %v", err))
		return ExitError
	}

	ctx := context.Background()
	if c.waiting.wait {
		return followJob(ctx, c.Command, client, jobID, c.waiting, c.flagJSON)
	}
	status, err := client.GetStatus(ctx, jobID)
	if err != nil {
		c.UI.Error(err.Error())
		return ExitError
	}
	return reportStatus(c.Command, status, c.flagJSON)
}

func followJob(ctx context.Context, c *Command, client *luigisbox.Client, jobID int, w waitFlags, rawJSON bool) int {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.interval
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = w.timeout

	var last *luigisbox.JobStatus
	op := func() error {
		status, err := client.GetStatus(ctx, jobID)
		if err != nil {
			if transient(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		last = status
		if !status.Completed {
			return errJobPending
		}
		return nil
	}
	notify := func(err error, next time.Duration) {
		c.Log.Debug("polling job", "job_id", jobID, "reason", err, "next", next)
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify); err != nil {
		if errors.Is(err, errJobPending) && last != nil {
			c.UI.Error(fmt.Sprintf("job %d still %s after %s", jobID, last.Status, w.timeout))
		} else {
			c.UI.Error(err.Error())
		}
		return ExitError
	}
	return reportStatus(c, last, rawJSON)
}

// transient reports whether a failed status poll is worth repeating:
// connection failures and 429/5xx answers.
func transient(err error) bool {
	var te *luigisbox.TransportError
	if !errors.As(err, &te) {
		return false
	}
	if te.StatusCode == 0 {
		return true
	}
	var httpErr *httpx.HTTPError
	return errors.As(err, &httpErr) && httpErr.Retryable()
}

func reportStatus(c *Command, status *luigisbox.JobStatus, rawJSON bool) int {
	if rawJSON {
		c.UI.Output(string(status.RawBody))
	} else {
		line := fmt.Sprintf("status: %s, tracker: %s", status.Status, status.TrackerID)
		if status.OkCount != nil {
			line += fmt.Sprintf(", updated: %d", *status.OkCount)
		}
		if status.ErrorsCount != nil {
			line += fmt.Sprintf(", failed: %d", *status.ErrorsCount)
		}
		c.UI.Info(line)
		for _, e := range status.Errors {
			c.UI.Warn(formatItemError(e))
		}
	}
	if len(status.Errors) > 0 {
		return ExitRejected
	}
	return ExitOK
}
