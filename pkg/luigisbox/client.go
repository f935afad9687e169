package luigisbox

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-hclog"

	"github.com/answear/luigisbox_sdk_go/pkg/config"
	"github.com/answear/luigisbox_sdk_go/pkg/signing"
)

// Option configures a Client.
type Option func(*Client)

// WithTransport replaces the HTTP transport, e.g. with a test double.
func WithTransport(t Transport) Option {
	return func(c *Client) {
		if t != nil {
			c.transport = t
		}
	}
}

// WithHTTPClient makes the default transport use h for every request instead
// of clients derived from the endpoint timeouts.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l hclog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides the time source used for request signatures.
func WithClock(clock signing.Clock) Option {
	return func(c *Client) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithClientName sets the label preceding the key pair in Authorization.
func WithClientName(name string) Option {
	return func(c *Client) {
		c.signer.ClientName = name
	}
}

// WithRemovalLimit caps removal batches. Zero (the default) means no cap.
func WithRemovalLimit(limit int) Option {
	return func(c *Client) {
		if limit >= 0 {
			c.removalLimit = limit
		}
	}
}

// Client sends content synchronisation requests to Luigi's Box. Every
// operation performs at most one request; nothing is retried or cached.
type Client struct {
	source       func() config.EndpointConfig
	transport    Transport
	httpClient   *http.Client
	logger       hclog.Logger
	clock        signing.Clock
	signer       signing.Signer
	removalLimit int

	contentUpdate ContentUpdateBuilder
	partialUpdate PartialUpdateBuilder
	removal       RemovalBuilder
	updateByQuery UpdateByQueryBuilder
	jobStatus     JobStatusBuilder
}

// New constructs a Client that signs with the registry's active endpoint at
// the time of each call.
func New(registry *config.Registry, opts ...Option) (*Client, error) {
	if registry == nil {
		return nil, fmt.Errorf("luigisbox: config registry is nil")
	}
	return newClient(registry.Active, opts...), nil
}

// NewWithConfig constructs a Client pinned to a single endpoint.
func NewWithConfig(cfg config.EndpointConfig, opts ...Option) (*Client, error) {
	cfg, err := pinnable(cfg)
	if err != nil {
		return nil, err
	}
	return newClient(func() config.EndpointConfig { return cfg }, opts...), nil
}

func pinnable(cfg config.EndpointConfig) (config.EndpointConfig, error) {
	cfg.Host = config.NormalizeHost(cfg.Host)
	if cfg.Host == "" || cfg.PublicKey == "" || cfg.PrivateKey == "" {
		return cfg, &config.ConfigurationError{Msg: "host, publicKey and privateKey are required"}
	}
	return cfg, nil
}

func newClient(source func() config.EndpointConfig, opts ...Option) *Client {
	c := &Client{
		source: source,
		logger: hclog.NewNullLogger(),
		clock:  signing.SystemClock,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = newHTTPTransport(c.httpClient, c.logger.Named("http"))
	}
	c.initBuilders()
	return c
}

func (c *Client) initBuilders() {
	s := newRequestSigner(c.source, c.clock, c.signer)
	c.contentUpdate = ContentUpdateBuilder{signer: s, limit: ContentUpdateLimit}
	c.partialUpdate = PartialUpdateBuilder{signer: s, limit: PartialUpdateLimit}
	c.removal = RemovalBuilder{signer: s, limit: c.removalLimit}
	c.updateByQuery = UpdateByQueryBuilder{signer: s}
	c.jobStatus = JobStatusBuilder{signer: s}
}

// Using returns a copy of the client pinned to cfg. The copy shares the
// transport and logger but is unaffected by registry switches. cfg is checked
// the same way NewWithConfig checks it.
func (c *Client) Using(cfg config.EndpointConfig) (*Client, error) {
	cfg, err := pinnable(cfg)
	if err != nil {
		return nil, err
	}
	clone := *c
	clone.source = func() config.EndpointConfig { return cfg }
	clone.initBuilders()
	return &clone, nil
}

// Update replaces up to 100 catalog objects.
func (c *Client) Update(ctx context.Context, items []ContentItem) (*OperationResult, error) {
	req, err := c.contentUpdate.Build(items)
	if err != nil {
		return nil, err
	}
	return c.operation(ctx, OpUpdate, req, len(items))
}

// PartialUpdate changes the given fields of up to 50 existing objects.
func (c *Client) PartialUpdate(ctx context.Context, items []ContentItem) (*OperationResult, error) {
	req, err := c.partialUpdate.Build(items)
	if err != nil {
		return nil, err
	}
	return c.operation(ctx, OpPartialUpdate, req, len(items))
}

// Remove deletes objects from the catalog.
func (c *Client) Remove(ctx context.Context, items []RemovalItem) (*OperationResult, error) {
	req, err := c.removal.Build(items)
	if err != nil {
		return nil, err
	}
	return c.operation(ctx, OpRemove, req, len(items))
}

// UpdateByQuery submits an asynchronous update job and returns its id. Poll
// GetStatus with the id to follow the job; no job state is kept here.
func (c *Client) UpdateByQuery(ctx context.Context, q UpdateByQuery) (*UpdateByQueryResult, error) {
	req, err := c.updateByQuery.Build(q)
	if err != nil {
		return nil, err
	}
	resp, err := c.send(ctx, OpUpdateByQuery, req, 0)
	if err != nil {
		return nil, err
	}
	result, err := ParseUpdateByQuery(resp.Body)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("update by query accepted", "job_id", result.JobID)
	return result, nil
}

// GetStatus fetches the state of an update-by-query job.
func (c *Client) GetStatus(ctx context.Context, jobID int) (*JobStatus, error) {
	req, err := c.jobStatus.Build(jobID)
	if err != nil {
		return nil, err
	}
	resp, err := c.send(ctx, OpJobStatus, req, 0)
	if err != nil {
		return nil, err
	}
	status, err := ParseJobStatus(resp.Body)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("update by query status", "job_id", jobID, "status", status.Status, "tracker_id", status.TrackerID)
	return status, nil
}

func (c *Client) operation(ctx context.Context, op string, req *SignedRequest, items int) (*OperationResult, error) {
	resp, err := c.send(ctx, op, req, items)
	if err != nil {
		return nil, err
	}
	result, err := ParseOperationResult(op, resp.Body)
	if err != nil {
		return nil, err
	}
	if !result.IsSuccess() {
		c.logger.Warn("items rejected", "op", op, "ok_count", result.OkCount, "errors_count", result.ErrorsCount)
	}
	return result, nil
}

func (c *Client) send(ctx context.Context, op string, req *SignedRequest, items int) (*RawResponse, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	c.logger.Debug("sending request", "op", op, "method", req.Method, "url", req.URL, "items", items)

	resp, err := c.transport.Send(ctx, req)
	if err != nil {
		var te *TransportError
		if errors.As(err, &te) {
			if te.Op == "" {
				te.Op = op
			}
			return nil, te
		}
		return nil, &TransportError{Op: op, Err: err}
	}
	if resp == nil {
		return nil, &TransportError{Op: op, Err: errors.New("transport returned no response")}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{Op: op, StatusCode: resp.StatusCode, Body: resp.Body}
	}
	return resp, nil
}
