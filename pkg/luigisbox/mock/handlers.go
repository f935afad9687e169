package mock

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/answear/luigisbox_sdk_go/pkg/signing"
)

const (
	contentPath       = "/v1/content"
	updateByQueryPath = "/v1/update_by_query"
)

type failure struct {
	url      string
	kind     string
	reason   string
	causedBy any
}

// failures marshals as a JSON object keyed by URL, in insertion order.
type failures []failure

func (fs failures) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.url)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(map[string]any{
			"type":      f.kind,
			"reason":    f.reason,
			"caused_by": f.causedBy,
		})
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type operationResponse struct {
	OkCount     int      `json:"ok_count"`
	ErrorsCount int      `json:"errors_count"`
	Errors      failures `json:"errors"`
}

type objectsPayload struct {
	Objects []Object `json:"objects"`
}

type updateByQueryPayload struct {
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

// ServeHTTP implements http.Handler.
func (m *Mock) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	m.record(r, body)

	if err := m.authenticate(r); err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	switch r.URL.Path {
	case contentPath:
		switch r.Method {
		case http.MethodPost:
			m.handleUpdate(w, body)
		case http.MethodPatch:
			m.handlePartialUpdate(w, body)
		case http.MethodDelete:
			m.handleRemove(w, body)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	case updateByQueryPath:
		switch r.Method {
		case http.MethodPatch:
			m.handleUpdateByQuery(w, body)
		case http.MethodGet:
			m.handleStatus(w, r.URL.Query().Get("job_id"))
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (m *Mock) record(r *http.Request, body []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, RecordedRequest{
		Method:   r.Method,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
		Header:   r.Header.Clone(),
		Body:     append([]byte(nil), body...),
	})
}

func (m *Mock) authenticate(r *http.Request) error {
	if len(m.keys) == 0 {
		return nil
	}
	_, publicKey, _, err := signing.ParseAuthorization(r.Header.Get("Authorization"))
	if err != nil {
		return err
	}
	privateKey, ok := m.keys[publicKey]
	if !ok {
		return fmt.Errorf("unknown public key %q", publicKey)
	}
	date, err := http.ParseTime(r.Header.Get("Date"))
	if err != nil {
		return errors.New("missing or invalid Date header")
	}
	skew := m.now().Sub(date)
	if skew < -m.maxSkew || skew > m.maxSkew {
		return errors.New("request date out of range")
	}
	if _, err := signing.Verify(privateKey, r); err != nil {
		return err
	}
	return nil
}

func (m *Mock) handleUpdate(w http.ResponseWriter, body []byte) {
	var payload objectsPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON: "+err.Error())
		return
	}
	if len(payload.Objects) > maxContentUpdate {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("Expect less than or equal %d items. Got %d.", maxContentUpdate, len(payload.Objects)))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	resp := operationResponse{Errors: failures{}}
	for _, obj := range payload.Objects {
		if causes := checkObject(obj); len(causes) > 0 {
			resp.Errors = append(resp.Errors, failure{url: obj.URL, kind: "malformed_input", reason: "incorrect object format", causedBy: causes})
			continue
		}
		m.objects[obj.URL] = obj
		resp.OkCount++
	}
	resp.ErrorsCount = len(resp.Errors)
	writeJSON(w, http.StatusOK, resp)
}

func (m *Mock) handlePartialUpdate(w http.ResponseWriter, body []byte) {
	var payload objectsPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON: "+err.Error())
		return
	}
	if len(payload.Objects) > maxPartialUpdate {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("Expect less than or equal %d items. Got %d.", maxPartialUpdate, len(payload.Objects)))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	resp := operationResponse{Errors: failures{}}
	for _, patch := range payload.Objects {
		if strings.TrimSpace(patch.URL) == "" {
			resp.Errors = append(resp.Errors, failure{kind: "malformed_input", reason: "incorrect object format", causedBy: map[string]any{"url": []string{"must be filled"}}})
			continue
		}
		current, ok := m.objects[patch.URL]
		if !ok {
			resp.Errors = append(resp.Errors, failure{url: patch.URL, kind: "not_found", reason: "object not found"})
			continue
		}
		if patch.Type != "" {
			current.Type = patch.Type
		}
		if patch.Nested != nil {
			current.Nested = patch.Nested
		}
		fields := copyFields(current.Fields)
		if fields == nil {
			fields = make(map[string]any, len(patch.Fields))
		}
		for k, v := range patch.Fields {
			fields[k] = v
		}
		current.Fields = fields
		m.objects[patch.URL] = current
		resp.OkCount++
	}
	resp.ErrorsCount = len(resp.Errors)
	writeJSON(w, http.StatusOK, resp)
}

func (m *Mock) handleRemove(w http.ResponseWriter, body []byte) {
	var payload objectsPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON: "+err.Error())
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	resp := operationResponse{Errors: failures{}}
	for _, obj := range payload.Objects {
		if _, ok := m.objects[obj.URL]; !ok {
			resp.Errors = append(resp.Errors, failure{url: obj.URL, kind: "not_found", reason: "object not found"})
			continue
		}
		delete(m.objects, obj.URL)
		resp.OkCount++
	}
	resp.ErrorsCount = len(resp.Errors)
	writeJSON(w, http.StatusOK, resp)
}

func (m *Mock) handleUpdateByQuery(w http.ResponseWriter, body []byte) {
	var payload updateByQueryPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON: "+err.Error())
		return
	}
	if len(payload.Search.Types) == 0 || len(payload.Update.Fields) == 0 {
		writeError(w, http.StatusBadRequest, "search.types and update.fields are required")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	j := &job{trackerID: m.newTracker(), pendingPoll: m.pendingPolls}
	for _, url := range m.sortedURLs() {
		obj := m.objects[url]
		if !matches(obj, payload.Search.Types, payload.Search.Partial.Fields) {
			continue
		}
		if causes := checkUpdate(payload.Update.Fields); len(causes) > 0 {
			j.failures = append(j.failures, failure{url: url, kind: "malformed_input", reason: "incorrect object format", causedBy: causes})
			continue
		}
		fields := copyFields(obj.Fields)
		if fields == nil {
			fields = make(map[string]any, len(payload.Update.Fields))
		}
		for k, v := range payload.Update.Fields {
			fields[k] = v
		}
		obj.Fields = fields
		m.objects[url] = obj
		j.updated++
	}

	m.nextJob++
	j.id = m.nextJob
	m.jobs[j.id] = j

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status_url": fmt.Sprintf("%s?job_id=%d", updateByQueryPath, j.id),
	})
}

func (m *Mock) handleStatus(w http.ResponseWriter, rawID string) {
	id, err := strconv.Atoi(rawID)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "job_id must be a positive integer")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if j.pendingPoll > 0 {
		j.pendingPoll--
		writeJSON(w, http.StatusOK, map[string]any{
			"status":     "processing",
			"tracker_id": j.trackerID,
		})
		return
	}

	resp := map[string]any{
		"status":         "complete",
		"tracker_id":     j.trackerID,
		"updates_count":  j.updated,
		"failures_count": len(j.failures),
	}
	if len(j.failures) > 0 {
		resp["failures"] = failures(j.failures)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (m *Mock) sortedURLs() []string {
	urls := make([]string, 0, len(m.objects))
	for u := range m.objects {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

func checkObject(obj Object) map[string][]string {
	causes := make(map[string][]string)
	if strings.TrimSpace(obj.URL) == "" {
		causes["url"] = []string{"must be filled"}
	}
	if strings.TrimSpace(obj.Type) == "" {
		causes["type"] = []string{"must be filled"}
	}
	if !filled(obj.Fields["title"]) {
		causes["title"] = []string{"must be filled"}
	}
	return causes
}

func checkUpdate(fields map[string]any) map[string][]string {
	if title, ok := fields["title"]; ok && !filled(title) {
		return map[string][]string{"title": {"must be filled"}}
	}
	return nil
}

func filled(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	default:
		return true
	}
}

func matches(obj Object, types []string, search map[string]any) bool {
	typeOK := false
	for _, t := range types {
		if obj.Type == t {
			typeOK = true
			break
		}
	}
	if !typeOK {
		return false
	}
	for k, want := range search {
		if !valueMatches(obj.Fields[k], want) {
			return false
		}
	}
	return true
}

// valueMatches compares loosely so YAML-seeded ints match JSON floats; a list
// value matches when any element does.
func valueMatches(have, want any) bool {
	if list, ok := have.([]any); ok {
		for _, v := range list {
			if valueMatches(v, want) {
				return true
			}
		}
		return false
	}
	return have != nil && fmt.Sprint(have) == fmt.Sprint(want)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", signing.ContentType)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
