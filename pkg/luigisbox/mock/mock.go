// Package mock provides an in-memory stand-in for the Luigi's Box content API.
// A Mock serves the same endpoints as the real service, answers in the same
// JSON shapes (including per-URL failures) and can verify request signatures.
// It is usable as an http.Handler (see cmd/luigisbox-sandbox) or directly as
// an http.RoundTripper inside an http.Client.
package mock

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/answear/luigisbox_sdk_go/internal/devseed"
)

const (
	maxContentUpdate = 100
	maxPartialUpdate = 50
	defaultMaxSkew   = 15 * time.Minute
)

// Object is a catalog entry held by the mock.
type Object struct {
	URL        string         `json:"url"`
	Type       string         `json:"type,omitempty"`
	Fields     map[string]any `json:"fields,omitempty"`
	Nested     []Object       `json:"nested,omitempty"`
	Generation string         `json:"generation,omitempty"`
}

// RecordedRequest is a request observed by the mock.
type RecordedRequest struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     []byte
}

type job struct {
	id          int
	trackerID   string
	pendingPoll int
	updated     int
	failures    []failure
}

// Mock implements the Luigi's Box content endpoints in memory.
type Mock struct {
	mu       sync.RWMutex
	objects  map[string]Object
	jobs     map[int]*job
	nextJob  int
	requests []RecordedRequest

	keys         map[string]string
	now          func() time.Time
	maxSkew      time.Duration
	pendingPolls int
	newTracker   func() string
}

// Option configures the mock instance.
type Option func(*Mock)

// WithKeys enables signature verification for the given key pair. Can be
// repeated to accept several pairs.
func WithKeys(publicKey, privateKey string) Option {
	return func(m *Mock) {
		m.keys[publicKey] = privateKey
	}
}

// WithClock overrides the clock used to check request dates.
func WithClock(fn func() time.Time) Option {
	return func(m *Mock) {
		if fn != nil {
			m.now = fn
		}
	}
}

// WithPendingPolls makes every job report "processing" for n status queries
// before it completes.
func WithPendingPolls(n int) Option {
	return func(m *Mock) {
		if n >= 0 {
			m.pendingPolls = n
		}
	}
}

// WithTrackerIDs overrides tracker id generation (defaults to random UUIDs).
func WithTrackerIDs(fn func() string) Option {
	return func(m *Mock) {
		if fn != nil {
			m.newTracker = fn
		}
	}
}

// New creates an empty mock catalog.
func New(opts ...Option) *Mock {
	m := &Mock{
		objects: make(map[string]Object),
		jobs:    make(map[int]*job),
		keys:    make(map[string]string),
		now: func() time.Time {
			return time.Now().UTC()
		},
		maxSkew:    defaultMaxSkew,
		newTracker: uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Seed loads catalog objects, typically decoded via devseed.LoadCatalog.
func (m *Mock) Seed(objects []devseed.Object) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, o := range objects {
		if strings.TrimSpace(o.URL) == "" {
			return fmt.Errorf("mock luigisbox: seed object missing url")
		}
		m.objects[o.URL] = fromSeed(o)
	}
	return nil
}

func fromSeed(o devseed.Object) Object {
	obj := Object{
		URL:        o.URL,
		Type:       o.Type,
		Fields:     copyFields(o.Fields),
		Generation: o.Generation,
	}
	for _, n := range o.Nested {
		obj.Nested = append(obj.Nested, fromSeed(n))
	}
	return obj
}

// Object returns a copy of the catalog entry stored under url.
func (m *Mock) Object(url string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[url]
	if !ok {
		return Object{}, false
	}
	obj.Fields = copyFields(obj.Fields)
	return obj, true
}

// URLs lists catalog URLs in sorted order.
func (m *Mock) URLs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	urls := make([]string, 0, len(m.objects))
	for u := range m.objects {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

// Requests returns the requests served so far, oldest first.
func (m *Mock) Requests() []RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RecordedRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// RoundTrip serves the request in-process, which lets a Mock act as the
// Transport of an http.Client.
func (m *Mock) RoundTrip(r *http.Request) (*http.Response, error) {
	if err := r.Context().Err(); err != nil {
		return nil, err
	}
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, r)
	if r.Body != nil {
		_ = r.Body.Close()
	}
	resp := rec.Result()
	resp.Request = r
	return resp, nil
}

func copyFields(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
