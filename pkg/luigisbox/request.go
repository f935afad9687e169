package luigisbox

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/answear/luigisbox_sdk_go/pkg/config"
	"github.com/answear/luigisbox_sdk_go/pkg/signing"
)

// APIVersion prefixes every endpoint path.
const APIVersion = "v1"

// Endpoint paths, as signed.
//
// ContentPath serves full update (POST), partial update (PATCH) and removal
// (DELETE), as the live API does. It is not /v1/update_by_query: that path
// only accepts query-based updates (PATCH) and their status polls (GET).
const (
	ContentPath       = "/" + APIVersion + "/content"
	UpdateByQueryPath = "/" + APIVersion + "/update_by_query"
)

// Batch limits per operation. RemovalLimit of zero means no limit is enforced.
const (
	ContentUpdateLimit = 100
	PartialUpdateLimit = 50
	RemovalLimit       = 0
)

// Operation names, used in errors and logs.
const (
	OpUpdate        = "content update"
	OpPartialUpdate = "partial content update"
	OpRemove        = "content removal"
	OpUpdateByQuery = "update by query"
	OpJobStatus     = "update by query status"
)

// SignedRequest is a fully formed request ready for a Transport. Path is the
// signed path; URL additionally carries the host and any query string.
type SignedRequest struct {
	Method string
	URL    string
	Path   string
	Header http.Header
	Body   []byte

	// Timeouts taken from the endpoint config, enforced by the Transport.
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
}

// RequestBuilder turns a payload into a signed request. Each operation has
// its own builder type.
type RequestBuilder[P any] interface {
	Build(payload P) (*SignedRequest, error)
}

var (
	_ RequestBuilder[[]ContentItem] = ContentUpdateBuilder{}
	_ RequestBuilder[[]ContentItem] = PartialUpdateBuilder{}
	_ RequestBuilder[[]RemovalItem] = RemovalBuilder{}
	_ RequestBuilder[UpdateByQuery] = UpdateByQueryBuilder{}
	_ RequestBuilder[int]           = JobStatusBuilder{}
)

// requestSigner holds what every builder needs: the endpoint config source,
// the clock and the signer.
type requestSigner struct {
	source func() config.EndpointConfig
	clock  signing.Clock
	signer signing.Signer
}

func newRequestSigner(source func() config.EndpointConfig, clock signing.Clock, signer signing.Signer) requestSigner {
	if clock == nil {
		clock = signing.SystemClock
	}
	return requestSigner{source: source, clock: clock, signer: signer}
}

// sign signs method+path only; query is appended to the URL afterwards.
func (s requestSigner) sign(method, path string, query url.Values, body []byte) *SignedRequest {
	cfg := s.source()
	header := make(http.Header)
	s.signer.Headers(cfg.PublicKey, cfg.PrivateKey, method, path, s.clock()).Apply(header)

	target := cfg.Host + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return &SignedRequest{
		Method:         method,
		URL:            target,
		Path:           path,
		Header:         header,
		Body:           body,
		ConnectTimeout: cfg.ConnectTimeout(),
		RequestTimeout: cfg.RequestDeadline(),
	}
}

type objectsBody[T any] struct {
	Objects []T `json:"objects"`
}

// ContentUpdateBuilder builds POST /v1/content requests (full replace).
type ContentUpdateBuilder struct {
	signer requestSigner
	limit  int
}

func (b ContentUpdateBuilder) Build(items []ContentItem) (*SignedRequest, error) {
	if err := checkLimit(OpUpdate, b.limit, len(items)); err != nil {
		return nil, err
	}
	if err := validateBatch(items, ContentItem.Validate, contentURL); err != nil {
		return nil, &ValidationError{Op: OpUpdate, Err: err}
	}
	body, err := encodeJSON(objectsBody[ContentItem]{Objects: items})
	if err != nil {
		return nil, &ValidationError{Op: OpUpdate, Err: err}
	}
	return b.signer.sign(http.MethodPost, ContentPath, nil, body), nil
}

// PartialUpdateBuilder builds PATCH /v1/content requests: only the fields
// present are changed on existing objects.
type PartialUpdateBuilder struct {
	signer requestSigner
	limit  int
}

func (b PartialUpdateBuilder) Build(items []ContentItem) (*SignedRequest, error) {
	if err := checkLimit(OpPartialUpdate, b.limit, len(items)); err != nil {
		return nil, err
	}
	if err := validateBatch(items, validatePartial, contentURL); err != nil {
		return nil, &ValidationError{Op: OpPartialUpdate, Err: err}
	}
	body, err := encodeJSON(objectsBody[ContentItem]{Objects: items})
	if err != nil {
		return nil, &ValidationError{Op: OpPartialUpdate, Err: err}
	}
	return b.signer.sign(http.MethodPatch, ContentPath, nil, body), nil
}

// RemovalBuilder builds DELETE /v1/content requests.
type RemovalBuilder struct {
	signer requestSigner
	limit  int
}

func (b RemovalBuilder) Build(items []RemovalItem) (*SignedRequest, error) {
	if err := checkLimit(OpRemove, b.limit, len(items)); err != nil {
		return nil, err
	}
	if err := validateBatch(items, RemovalItem.Validate, removalURL); err != nil {
		return nil, &ValidationError{Op: OpRemove, Err: err}
	}
	body, err := encodeJSON(objectsBody[RemovalItem]{Objects: items})
	if err != nil {
		return nil, &ValidationError{Op: OpRemove, Err: err}
	}
	return b.signer.sign(http.MethodDelete, ContentPath, nil, body), nil
}

type updateByQueryBody struct {
	Search struct {
		Types   []string `json:"types"`
		Partial struct {
			Fields map[string]any `json:"fields"`
		} `json:"partial"`
	} `json:"search"`
	Update struct {
		Fields map[string]any `json:"fields"`
	} `json:"update"`
}

// UpdateByQueryBuilder builds PATCH /v1/update_by_query requests.
type UpdateByQueryBuilder struct {
	signer requestSigner
}

func (b UpdateByQueryBuilder) Build(q UpdateByQuery) (*SignedRequest, error) {
	if err := q.Validate(); err != nil {
		return nil, &ValidationError{Op: OpUpdateByQuery, Err: err}
	}
	var payload updateByQueryBody
	payload.Search.Types = q.Types
	payload.Search.Partial.Fields = q.SearchFields
	payload.Update.Fields = q.UpdateFields

	body, err := encodeJSON(payload)
	if err != nil {
		return nil, &ValidationError{Op: OpUpdateByQuery, Err: err}
	}
	return b.signer.sign(http.MethodPatch, UpdateByQueryPath, nil, body), nil
}

// JobStatusBuilder builds GET /v1/update_by_query?job_id=<id> requests. The
// job_id parameter is not part of the signature.
type JobStatusBuilder struct {
	signer requestSigner
}

func (b JobStatusBuilder) Build(jobID int) (*SignedRequest, error) {
	if jobID <= 0 {
		return nil, &ValidationError{Op: OpJobStatus, Err: fmt.Errorf("job id must be positive, got %d", jobID)}
	}
	query := url.Values{"job_id": {strconv.Itoa(jobID)}}
	return b.signer.sign(http.MethodGet, UpdateByQueryPath, query, nil), nil
}

func contentURL(c ContentItem) string { return c.URL }

func removalURL(r RemovalItem) string { return r.URL }

func encodeJSON(payload any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
