package luigisbox

import (
	"encoding/json"
)

// ContentItem is a catalog object sent with content updates. Fields holds the
// indexed attributes (title, price, ...); Nested carries child objects such
// as variants or categories.
type ContentItem struct {
	URL        string         `json:"url" yaml:"url"`
	Type       string         `json:"type,omitempty" yaml:"type"`
	Fields     map[string]any `json:"fields,omitempty" yaml:"fields"`
	Nested     []ContentItem  `json:"nested,omitempty" yaml:"nested"`
	Generation string         `json:"generation,omitempty" yaml:"generation"`
}

// RemovalItem identifies a catalog object to delete. Type is optional.
type RemovalItem struct {
	URL  string `json:"url" yaml:"url"`
	Type string `json:"type,omitempty" yaml:"type"`
}

// UpdateByQuery describes an asynchronous bulk update: every object of the
// given Types whose fields match SearchFields receives UpdateFields.
type UpdateByQuery struct {
	Types        []string       `json:"types" yaml:"types"`
	SearchFields map[string]any `json:"search_fields" yaml:"search_fields"`
	UpdateFields map[string]any `json:"update_fields" yaml:"update_fields"`
}

// ItemError is a per-URL failure reported by the API. Failures are data, not
// Go errors: a request whose items partially failed still succeeds.
type ItemError struct {
	URL      string
	Type     string
	Reason   string
	CausedBy any
}

// OperationResult is the outcome of a content update, partial update or
// removal.
type OperationResult struct {
	OkCount     int
	ErrorsCount int
	// Errors lists failures in response order. It is never nil.
	Errors []ItemError
	// RawResponse is the generic decoding of the response body.
	RawResponse map[string]any
	// RawBody is the response body as received.
	RawBody json.RawMessage
}

// IsSuccess reports whether no item failed.
func (r *OperationResult) IsSuccess() bool {
	return r.ErrorsCount == 0
}

// UpdateByQueryResult is returned when an update-by-query job was accepted.
type UpdateByQueryResult struct {
	JobID       int
	StatusURL   string
	RawResponse map[string]any
	RawBody     json.RawMessage
}

// StatusComplete is the status value of a finished job.
const StatusComplete = "complete"

// JobStatus is the state of an update-by-query job.
type JobStatus struct {
	TrackerID string
	Status    string
	Completed bool
	// OkCount and ErrorsCount are nil when the response omits them.
	OkCount     *int
	ErrorsCount *int
	// Errors is nil when the response carries no failures field and an empty
	// slice when it carries an empty one.
	Errors      []ItemError
	RawResponse map[string]any
	RawBody     json.RawMessage
}
