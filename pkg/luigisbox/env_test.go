package luigisbox_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/answear/luigisbox_sdk_go/pkg/luigisbox"
	"github.com/answear/luigisbox_sdk_go/pkg/luigisbox/mock"
	"github.com/answear/luigisbox_sdk_go/pkg/signing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		luigisbox.EnvRuntimeMode, luigisbox.EnvMockSeed,
		"LUIGISBOX_HOST", "LUIGISBOX_PUBLIC_KEY", "LUIGISBOX_PRIVATE_KEY",
		"LUIGISBOX_CONNECTION_TIMEOUT", "LUIGISBOX_REQUEST_TIMEOUT", "LUIGISBOX_SEARCH_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
}

func TestNewFromEnvHTTP(t *testing.T) {
	clearEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := signing.Verify("env-private", r); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "complete", "tracker_id": "t-1"})
	}))
	defer srv.Close()

	t.Setenv("LUIGISBOX_HOST", srv.URL)
	t.Setenv("LUIGISBOX_PUBLIC_KEY", "env-public")
	t.Setenv("LUIGISBOX_PRIVATE_KEY", "env-private")

	client, mode, err := luigisbox.NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, luigisbox.ModeHTTP, mode)

	status, err := client.GetStatus(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "t-1", status.TrackerID)
}

func TestNewFromEnvHTTPModeRequiresHost(t *testing.T) {
	clearEnv(t)
	t.Setenv(luigisbox.EnvRuntimeMode, "http")

	_, _, err := luigisbox.NewFromEnv()
	assert.Error(t, err)
}

func TestNewFromEnvUnsupportedMode(t *testing.T) {
	clearEnv(t)
	t.Setenv(luigisbox.EnvRuntimeMode, "carrier-pigeon")

	_, _, err := luigisbox.NewFromEnv()
	assert.ErrorContains(t, err, "carrier-pigeon")
}

func TestNewFromEnvMockWithSeed(t *testing.T) {
	clearEnv(t)
	seed := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(seed, []byte(`
objects:
  - url: https://shop.example.com/p/1
    type: item
    fields:
      title: Linen shirt
      color: red
`), 0o600))
	t.Setenv(luigisbox.EnvMockSeed, seed)

	client, mode, err := luigisbox.NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, luigisbox.ModeMock, mode)

	ctx := context.Background()
	result, err := client.PartialUpdate(ctx, []luigisbox.ContentItem{
		{URL: "https://shop.example.com/p/1", Fields: map[string]any{"price": 19}},
		{URL: "https://shop.example.com/p/2", Fields: map[string]any{"price": 5}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.OkCount)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "https://shop.example.com/p/2", result.Errors[0].URL)
	assert.Equal(t, "not_found", result.Errors[0].Type)
}

func TestNewFromEnvMockBadSeed(t *testing.T) {
	clearEnv(t)
	t.Setenv(luigisbox.EnvRuntimeMode, "mock")
	t.Setenv(luigisbox.EnvMockSeed, filepath.Join(t.TempDir(), "missing.yaml"))

	_, _, err := luigisbox.NewFromEnv()
	assert.Error(t, err)
}

func TestMockRoundTrip(t *testing.T) {
	m := mock.New(
		mock.WithKeys(luigisbox.MockPublicKey, luigisbox.MockPrivateKey),
		mock.WithPendingPolls(1),
	)
	client, err := luigisbox.NewWithMock(m)
	require.NoError(t, err)
	ctx := context.Background()

	result, err := client.Update(ctx, []luigisbox.ContentItem{
		{URL: "/p/1", Type: "item", Fields: map[string]any{"title": "One", "color": "red"}},
		{URL: "/p/2", Type: "item", Fields: map[string]any{"color": "red"}},
		{URL: "/p/3", Type: "item", Fields: map[string]any{"title": "Three", "color": "blue"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.OkCount)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "/p/2", result.Errors[0].URL)
	assert.Equal(t, map[string]any{"title": []any{"must be filled"}}, result.Errors[0].CausedBy)

	job, err := client.UpdateByQuery(ctx, luigisbox.UpdateByQuery{
		Types:        []string{"item"},
		SearchFields: map[string]any{"color": "red"},
		UpdateFields: map[string]any{"color": "green"},
	})
	require.NoError(t, err)

	status, err := client.GetStatus(ctx, job.JobID)
	require.NoError(t, err)
	assert.False(t, status.Completed)

	status, err = client.GetStatus(ctx, job.JobID)
	require.NoError(t, err)
	assert.True(t, status.Completed)
	require.NotNil(t, status.OkCount)
	assert.Equal(t, 1, *status.OkCount)
	assert.Nil(t, status.Errors)

	obj, ok := m.Object("/p/1")
	require.True(t, ok)
	assert.Equal(t, "green", obj.Fields["color"])

	removed, err := client.Remove(ctx, []luigisbox.RemovalItem{{URL: "/p/1"}, {URL: "/p/3"}})
	require.NoError(t, err)
	assert.True(t, removed.IsSuccess())
	assert.Empty(t, m.URLs())

	for _, req := range m.Requests() {
		assert.NotContains(t, req.Header.Get("Authorization"), "?")
	}
}

func TestMockRejectsForeignKeys(t *testing.T) {
	m := mock.New(mock.WithKeys("someone-else", "secret"))
	client, err := luigisbox.NewWithMock(m)
	require.NoError(t, err)

	_, err = client.Remove(context.Background(), []luigisbox.RemovalItem{{URL: "/p/1"}})
	var te *luigisbox.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusUnauthorized, te.StatusCode)
}
