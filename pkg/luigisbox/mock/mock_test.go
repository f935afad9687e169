package mock_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/answear/luigisbox_sdk_go/internal/devseed"
	"github.com/answear/luigisbox_sdk_go/pkg/luigisbox/mock"
	"github.com/answear/luigisbox_sdk_go/pkg/signing"
)

var fixedNow = time.Date(2024, time.March, 5, 13, 7, 9, 0, time.UTC)

func newMock(t *testing.T, opts ...mock.Option) *mock.Mock {
	t.Helper()
	opts = append([]mock.Option{
		mock.WithKeys("pub", "priv"),
		mock.WithClock(func() time.Time { return fixedNow }),
		mock.WithTrackerIDs(func() string { return "tracker-1" }),
	}, opts...)
	return mock.New(opts...)
}

func do(t *testing.T, m *mock.Mock, method, target string, body any) (int, map[string]any) {
	t.Helper()
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, "http://luigisbox.mock"+target, bytes.NewReader(raw))
	signing.Sign("pub", "priv", method, req.URL.Path, fixedNow).Apply(req.Header)

	resp, err := m.RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded), string(data))
	return resp.StatusCode, decoded
}

func objects(items ...map[string]any) map[string]any {
	list := make([]any, len(items))
	for i, it := range items {
		list[i] = it
	}
	return map[string]any{"objects": list}
}

func TestUpdateStoresValidObjectsAndReportsFailures(t *testing.T) {
	m := newMock(t)

	status, resp := do(t, m, http.MethodPost, "/v1/content", objects(
		map[string]any{"url": "/a", "type": "item", "fields": map[string]any{"title": "A"}},
		map[string]any{"url": "/b", "type": "item", "fields": map[string]any{"price": 3}},
	))
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, resp["ok_count"])
	assert.EqualValues(t, 1, resp["errors_count"])

	errs := resp["errors"].(map[string]any)
	require.Contains(t, errs, "/b")
	failure := errs["/b"].(map[string]any)
	assert.Equal(t, "malformed_input", failure["type"])
	assert.Equal(t, "incorrect object format", failure["reason"])
	assert.Equal(t, map[string]any{"title": []any{"must be filled"}}, failure["caused_by"])

	obj, ok := m.Object("/a")
	require.True(t, ok)
	assert.Equal(t, "A", obj.Fields["title"])
	_, ok = m.Object("/b")
	assert.False(t, ok)
}

func TestUpdateErrorsKeepRequestOrder(t *testing.T) {
	m := newMock(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/content", bytes.NewReader([]byte(
		`{"objects":[{"url":"/z","type":"item"},{"url":"/a","type":"item"}]}`)))
	signing.Sign("pub", "priv", http.MethodPost, "/v1/content", fixedNow).Apply(req.Header)
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, req)

	body := rec.Body.String()
	assert.Less(t, bytes.Index([]byte(body), []byte(`"/z"`)), bytes.Index([]byte(body), []byte(`"/a"`)), body)
}

func TestUpdateRejectsOversizedBatch(t *testing.T) {
	m := newMock(t)
	items := make([]map[string]any, 101)
	for i := range items {
		items[i] = map[string]any{"url": "/x", "type": "item", "fields": map[string]any{"title": "x"}}
	}
	status, resp := do(t, m, http.MethodPost, "/v1/content", objects(items...))
	assert.Equal(t, http.StatusRequestEntityTooLarge, status)
	assert.Contains(t, resp["error"], "Got 101")
}

func TestPartialUpdateMergesFields(t *testing.T) {
	m := newMock(t)
	require.NoError(t, m.Seed([]devseed.Object{
		{URL: "/a", Type: "item", Fields: map[string]any{"title": "A", "price": 10}},
	}))

	status, resp := do(t, m, http.MethodPatch, "/v1/content", objects(
		map[string]any{"url": "/a", "fields": map[string]any{"price": 12}},
		map[string]any{"url": "/missing", "fields": map[string]any{"price": 1}},
	))
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, resp["ok_count"])
	errs := resp["errors"].(map[string]any)
	assert.Equal(t, "not_found", errs["/missing"].(map[string]any)["type"])

	obj, _ := m.Object("/a")
	assert.Equal(t, "A", obj.Fields["title"])
	assert.EqualValues(t, 12, obj.Fields["price"])
	assert.Equal(t, "item", obj.Type)
}

func TestRemove(t *testing.T) {
	m := newMock(t)
	require.NoError(t, m.Seed([]devseed.Object{{URL: "/a", Type: "item"}}))

	status, resp := do(t, m, http.MethodDelete, "/v1/content", objects(
		map[string]any{"url": "/a", "type": "item"},
		map[string]any{"url": "/b"},
	))
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, resp["ok_count"])
	assert.EqualValues(t, 1, resp["errors_count"])
	assert.Empty(t, m.URLs())
}

func TestUpdateByQueryLifecycle(t *testing.T) {
	m := newMock(t, mock.WithPendingPolls(1))
	require.NoError(t, m.Seed([]devseed.Object{
		{URL: "/a", Type: "item", Fields: map[string]any{"title": "A", "color": "red"}},
		{URL: "/b", Type: "item", Fields: map[string]any{"title": "B", "color": "blue"}},
		{URL: "/c", Type: "category", Fields: map[string]any{"title": "C", "color": "red"}},
	}))

	status, resp := do(t, m, http.MethodPatch, "/v1/update_by_query", map[string]any{
		"search": map[string]any{"types": []string{"item"}, "partial": map[string]any{"fields": map[string]any{"color": "red"}}},
		"update": map[string]any{"fields": map[string]any{"color": "green"}},
	})
	require.Equal(t, http.StatusAccepted, status)
	assert.Equal(t, "/v1/update_by_query?job_id=1", resp["status_url"])

	_, resp = do(t, m, http.MethodGet, "/v1/update_by_query?job_id=1", nil)
	assert.Equal(t, "processing", resp["status"])
	assert.Equal(t, "tracker-1", resp["tracker_id"])

	_, resp = do(t, m, http.MethodGet, "/v1/update_by_query?job_id=1", nil)
	assert.Equal(t, "complete", resp["status"])
	assert.EqualValues(t, 1, resp["updates_count"])
	assert.EqualValues(t, 0, resp["failures_count"])
	assert.NotContains(t, resp, "failures")

	a, _ := m.Object("/a")
	assert.Equal(t, "green", a.Fields["color"])
	c, _ := m.Object("/c")
	assert.Equal(t, "red", c.Fields["color"])
}

func TestUpdateByQueryReportsFailures(t *testing.T) {
	m := newMock(t)
	require.NoError(t, m.Seed([]devseed.Object{
		{URL: "/a", Type: "item", Fields: map[string]any{"title": "A"}},
	}))

	do(t, m, http.MethodPatch, "/v1/update_by_query", map[string]any{
		"search": map[string]any{"types": []string{"item"}},
		"update": map[string]any{"fields": map[string]any{"title": ""}},
	})
	_, resp := do(t, m, http.MethodGet, "/v1/update_by_query?job_id=1", nil)
	assert.EqualValues(t, 1, resp["failures_count"])
	failures := resp["failures"].(map[string]any)
	assert.Equal(t, "malformed_input", failures["/a"].(map[string]any)["type"])
}

func TestStatusUnknownJob(t *testing.T) {
	m := newMock(t)
	status, _ := do(t, m, http.MethodGet, "/v1/update_by_query?job_id=9", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRejectsBadSignature(t *testing.T) {
	m := newMock(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/content", bytes.NewReader([]byte(`{"objects":[]}`)))
	signing.Sign("pub", "wrong", http.MethodPost, "/v1/content", fixedNow).Apply(req.Header)
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRejectsStaleDate(t *testing.T) {
	m := newMock(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/content", bytes.NewReader([]byte(`{"objects":[]}`)))
	signing.Sign("pub", "priv", http.MethodPost, "/v1/content", fixedNow.Add(-time.Hour)).Apply(req.Header)
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "date")
}

func TestUnsignedWhenNoKeys(t *testing.T) {
	m := mock.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/unknown", nil)
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.Len(t, m.Requests(), 1)
	assert.Equal(t, "/v1/unknown", m.Requests()[0].Path)
}

func TestSeedRequiresURL(t *testing.T) {
	m := mock.New()
	assert.Error(t, m.Seed([]devseed.Object{{Type: "item"}}))
}
