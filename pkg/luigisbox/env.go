package luigisbox

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/answear/luigisbox_sdk_go/internal/devseed"
	"github.com/answear/luigisbox_sdk_go/pkg/config"
	"github.com/answear/luigisbox_sdk_go/pkg/luigisbox/mock"
)

const (
	EnvRuntimeMode = "LUIGISBOX_RUNTIME_MODE"
	EnvMockSeed    = "LUIGISBOX_MOCK_SEED"

	ModeAuto = "auto"
	ModeHTTP = "http"
	ModeMock = "mock"
)

// Endpoint used by clients backed by an in-process mock.
const (
	MockHost       = "http://luigisbox.mock"
	MockPublicKey  = "mock-public"
	MockPrivateKey = "mock-private"
)

// NewFromEnv initialises a Client from LUIGISBOX_* environment variables and
// returns the resolved mode ("http" or "mock"). In auto mode (the default)
// the HTTP client is used when LUIGISBOX_HOST is set.
func NewFromEnv(opts ...Option) (client *Client, mode string, err error) {
	mode = strings.ToLower(strings.TrimSpace(os.Getenv(EnvRuntimeMode)))
	host := strings.TrimSpace(os.Getenv(config.EnvHost))

	switch mode {
	case "", ModeAuto:
		if host != "" {
			return newHTTPClientFromEnv(opts)
		}
		return newMockClientFromEnv(opts)
	case ModeHTTP:
		if host == "" {
			return nil, "", fmt.Errorf("luigisbox: HTTP mode requires %s", config.EnvHost)
		}
		return newHTTPClientFromEnv(opts)
	case ModeMock:
		return newMockClientFromEnv(opts)
	default:
		return nil, "", fmt.Errorf("luigisbox: unsupported %s value %q", EnvRuntimeMode, mode)
	}
}

func newHTTPClientFromEnv(opts []Option) (*Client, string, error) {
	registry, err := config.FromEnv()
	if err != nil {
		return nil, "", err
	}
	client, err := New(registry, opts...)
	if err != nil {
		return nil, "", fmt.Errorf("luigisbox: init HTTP client: %w", err)
	}
	return client, ModeHTTP, nil
}

func newMockClientFromEnv(opts []Option) (*Client, string, error) {
	m := mock.New(mock.WithKeys(MockPublicKey, MockPrivateKey))
	if path := strings.TrimSpace(os.Getenv(EnvMockSeed)); path != "" {
		objects, err := devseed.LoadCatalog(path)
		if err != nil {
			return nil, "", fmt.Errorf("luigisbox: load mock seed: %w", err)
		}
		if err := m.Seed(objects); err != nil {
			return nil, "", fmt.Errorf("luigisbox: apply mock seed: %w", err)
		}
	}
	client, err := NewWithMock(m, opts...)
	if err != nil {
		return nil, "", err
	}
	return client, ModeMock, nil
}

// NewWithMock returns a Client whose requests are served in-process by m.
// Create m with mock.WithKeys(MockPublicKey, MockPrivateKey) to have it
// verify signatures.
func NewWithMock(m *mock.Mock, opts ...Option) (*Client, error) {
	if m == nil {
		return nil, fmt.Errorf("luigisbox: mock is nil")
	}
	cfg := config.EndpointConfig{
		Host:              MockHost,
		PublicKey:         MockPublicKey,
		PrivateKey:        MockPrivateKey,
		ConnectionTimeout: config.DefaultConnectionTimeout,
		RequestTimeout:    config.DefaultRequestTimeout,
		SearchTimeout:     config.DefaultSearchTimeout,
	}
	opts = append([]Option{WithHTTPClient(&http.Client{Transport: m})}, opts...)
	return NewWithConfig(cfg, opts...)
}
