package luigisbox

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/answear/luigisbox_sdk_go/internal/httpx"
)

const userAgent = "luigisbox-go"

// RawResponse is what a Transport hands back for a delivered request.
type RawResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport delivers a signed request. Implementations perform exactly one
// round trip and enforce the request's timeouts.
type Transport interface {
	Send(ctx context.Context, req *SignedRequest) (*RawResponse, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req *SignedRequest) (*RawResponse, error)

func (f TransportFunc) Send(ctx context.Context, req *SignedRequest) (*RawResponse, error) {
	return f(ctx, req)
}

// httpTransport is the default Transport. It keeps one http.Client per
// connect timeout so connections are reused across requests to the same
// endpoint configuration.
type httpTransport struct {
	logger hclog.Logger
	fixed  *http.Client

	mu      sync.Mutex
	clients map[time.Duration]*httpx.Client
}

func newHTTPTransport(fixed *http.Client, logger hclog.Logger) *httpTransport {
	return &httpTransport{
		logger:  logger,
		fixed:   fixed,
		clients: make(map[time.Duration]*httpx.Client),
	}
}

func (t *httpTransport) client(connectTimeout time.Duration) *httpx.Client {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := connectTimeout
	if t.fixed != nil {
		key = 0
	}
	if c, ok := t.clients[key]; ok {
		return c
	}
	hc := t.fixed
	if hc == nil {
		hc = httpx.NewHTTPClient(connectTimeout, 0)
	}
	c := httpx.NewClient(
		httpx.WithHTTPClient(hc),
		httpx.WithHeaders(http.Header{"User-Agent": {userAgent}}),
		httpx.WithLogger(t.logger),
	)
	t.clients[key] = c
	return c
}

func (t *httpTransport) Send(ctx context.Context, req *SignedRequest) (*RawResponse, error) {
	if req.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.RequestTimeout)
		defer cancel()
	}

	resp, err := t.client(req.ConnectTimeout).Do(ctx, &httpx.Request{
		Method: req.Method,
		URL:    req.URL,
		Header: req.Header,
		Body:   req.Body,
	})
	if err != nil {
		var httpErr *httpx.HTTPError
		if errors.As(err, &httpErr) {
			return nil, &TransportError{StatusCode: httpErr.StatusCode, Body: httpErr.Body, Err: httpErr}
		}
		return nil, &TransportError{Err: err}
	}
	return &RawResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
	}, nil
}
