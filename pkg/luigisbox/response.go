package luigisbox

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/answear/luigisbox_sdk_go/internal/luigisapi"
)

// itemFailure is the wire shape of a single entry of "errors" / "failures".
type itemFailure struct {
	Type     string `json:"type"`
	Reason   string `json:"reason"`
	CausedBy any    `json:"caused_by"`
}

// ParseOperationResult converts a content update, partial update or removal
// response body into an OperationResult.
func ParseOperationResult(op string, body []byte) (*OperationResult, error) {
	doc, err := luigisapi.Parse(body)
	if err != nil {
		return nil, &ProtocolError{Op: op, Msg: "malformed response body", Body: body, Err: err}
	}

	okCount, err := requiredInt(op, doc, "ok_count")
	if err != nil {
		return nil, err
	}
	errorsCount, err := requiredInt(op, doc, "errors_count")
	if err != nil {
		return nil, err
	}
	entries, _, err := doc.Entries("errors")
	if err != nil {
		return nil, &ProtocolError{Op: op, Msg: "malformed errors", Body: body, Err: err}
	}
	errs, err := toItemErrors(op, entries)
	if err != nil {
		return nil, err
	}
	if errs == nil {
		errs = []ItemError{}
	}

	return &OperationResult{
		OkCount:     okCount,
		ErrorsCount: errorsCount,
		Errors:      errs,
		RawResponse: doc.Decoded,
		RawBody:     doc.Raw,
	}, nil
}

// ParseJobStatus converts an update-by-query status body into a JobStatus.
// status and tracker_id are required; the counters and failures are optional.
func ParseJobStatus(body []byte) (*JobStatus, error) {
	op := OpJobStatus
	doc, err := luigisapi.Parse(body)
	if err != nil {
		return nil, &ProtocolError{Op: op, Msg: "malformed response body", Body: body, Err: err}
	}

	status, err := requiredString(op, doc, "status")
	if err != nil {
		return nil, err
	}
	trackerID, err := requiredString(op, doc, "tracker_id")
	if err != nil {
		return nil, err
	}
	okCount, err := optionalInt(op, doc, "updates_count")
	if err != nil {
		return nil, err
	}
	errorsCount, err := optionalInt(op, doc, "failures_count")
	if err != nil {
		return nil, err
	}

	var errs []ItemError
	entries, present, err := doc.Entries("failures")
	if err != nil {
		return nil, &ProtocolError{Op: op, Msg: "malformed failures", Body: body, Err: err}
	}
	if present {
		if errs, err = toItemErrors(op, entries); err != nil {
			return nil, err
		}
	}

	return &JobStatus{
		TrackerID:   trackerID,
		Status:      status,
		Completed:   status == StatusComplete,
		OkCount:     okCount,
		ErrorsCount: errorsCount,
		Errors:      errs,
		RawResponse: doc.Decoded,
		RawBody:     doc.Raw,
	}, nil
}

// ParseUpdateByQuery extracts the job id from the status_url returned when an
// update-by-query job is accepted.
func ParseUpdateByQuery(body []byte) (*UpdateByQueryResult, error) {
	op := OpUpdateByQuery
	doc, err := luigisapi.Parse(body)
	if err != nil {
		return nil, &ProtocolError{Op: op, Msg: "malformed response body", Body: body, Err: err}
	}
	statusURL, err := requiredString(op, doc, "status_url")
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(statusURL)
	if err != nil {
		return nil, &ProtocolError{Op: op, Msg: "invalid status_url", Body: body, Err: err}
	}
	jobID, err := strconv.Atoi(u.Query().Get("job_id"))
	if err != nil || jobID <= 0 {
		return nil, &ProtocolError{Op: op, Msg: fmt.Sprintf("status_url %q carries no valid job_id", statusURL), Body: body}
	}
	return &UpdateByQueryResult{
		JobID:       jobID,
		StatusURL:   statusURL,
		RawResponse: doc.Decoded,
		RawBody:     doc.Raw,
	}, nil
}

// toItemErrors keeps the order of entries; nil entries give a nil slice.
func toItemErrors(op string, entries []luigisapi.Entry) ([]ItemError, error) {
	if entries == nil {
		return nil, nil
	}
	out := make([]ItemError, 0, len(entries))
	for _, e := range entries {
		var f itemFailure
		if err := json.Unmarshal(e.Value, &f); err != nil {
			return nil, &ProtocolError{Op: op, Msg: fmt.Sprintf("malformed failure for %q", e.Key), Body: e.Value, Err: err}
		}
		out = append(out, ItemError{
			URL:      e.Key,
			Type:     f.Type,
			Reason:   f.Reason,
			CausedBy: f.CausedBy,
		})
	}
	return out, nil
}

func requiredInt(op string, doc *luigisapi.Document, key string) (int, error) {
	v, ok, err := doc.Int(key)
	if err != nil {
		return 0, &ProtocolError{Op: op, Msg: "invalid " + key, Body: doc.Raw, Err: err}
	}
	if !ok {
		return 0, &ProtocolError{Op: op, Msg: "missing " + key, Body: doc.Raw}
	}
	return v, nil
}

func optionalInt(op string, doc *luigisapi.Document, key string) (*int, error) {
	v, ok, err := doc.Int(key)
	if err != nil {
		return nil, &ProtocolError{Op: op, Msg: "invalid " + key, Body: doc.Raw, Err: err}
	}
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func requiredString(op string, doc *luigisapi.Document, key string) (string, error) {
	v, ok, err := doc.String(key)
	if err != nil {
		return "", &ProtocolError{Op: op, Msg: "invalid " + key, Body: doc.Raw, Err: err}
	}
	if !ok {
		return "", &ProtocolError{Op: op, Msg: "missing " + key, Body: doc.Raw}
	}
	return v, nil
}
