package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/mapstructure"
)

// Keys every raw endpoint configuration must carry.
const (
	KeyHost              = "host"
	KeyPublicKey         = "publicKey"
	KeyPrivateKey        = "privateKey"
	KeyConnectionTimeout = "connectionTimeout"
	KeyRequestTimeout    = "requestTimeout"
	KeySearchTimeout     = "searchTimeout"
)

var requiredKeys = []string{
	KeyHost,
	KeyPublicKey,
	KeyPrivateKey,
	KeyConnectionTimeout,
	KeyRequestTimeout,
	KeySearchTimeout,
}

// EndpointConfig describes a single Luigi's Box endpoint and its credentials.
// Timeouts are expressed in seconds. Values are handed out by copy, so a
// config obtained from a Registry cannot alter the registry's state.
type EndpointConfig struct {
	Host              string  `mapstructure:"host"`
	PublicKey         string  `mapstructure:"publicKey"`
	PrivateKey        string  `mapstructure:"privateKey"`
	ConnectionTimeout float64 `mapstructure:"connectionTimeout"`
	RequestTimeout    float64 `mapstructure:"requestTimeout"`
	SearchTimeout     float64 `mapstructure:"searchTimeout"`
}

// ConnectTimeout returns ConnectionTimeout as a time.Duration.
func (c EndpointConfig) ConnectTimeout() time.Duration {
	return seconds(c.ConnectionTimeout)
}

// RequestDeadline returns RequestTimeout as a time.Duration.
func (c EndpointConfig) RequestDeadline() time.Duration {
	return seconds(c.RequestTimeout)
}

// SearchDeadline returns SearchTimeout as a time.Duration.
func (c EndpointConfig) SearchDeadline() time.Duration {
	return seconds(c.SearchTimeout)
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

// NormalizeHost strips trailing slashes so paths can be appended verbatim.
func NormalizeHost(host string) string {
	return strings.TrimRight(strings.TrimSpace(host), "/")
}

// Registry holds the named endpoint configurations and the currently active
// selection.
//
// A Registry is read-only after construction except for SwitchActive, which
// must not be called concurrently with other calls on the same Registry.
// Callers that need per-request isolation should pin an EndpointConfig
// explicitly instead of switching.
type Registry struct {
	configs map[string]EndpointConfig
	active  string
}

// New builds a Registry from raw, loosely typed configurations keyed by name.
// Every entry must define all six keys with non-nil values; numeric timeouts
// may be given as numbers or numeric strings.
func New(defaultName string, raw map[string]map[string]any) (*Registry, error) {
	var result *multierror.Error
	configs := make(map[string]EndpointConfig, len(raw))

	for _, name := range sortedKeys(raw) {
		cfg, err := decodeEndpoint(name, raw[name])
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		configs[name] = cfg
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, &ConfigurationError{Msg: "invalid endpoint configuration", Err: err}
	}
	return newRegistry(defaultName, configs)
}

// NewFromConfigs builds a Registry from already typed configurations. Hosts
// are normalised; empty hosts or keys are rejected.
func NewFromConfigs(defaultName string, configs map[string]EndpointConfig) (*Registry, error) {
	var result *multierror.Error
	normalized := make(map[string]EndpointConfig, len(configs))
	for _, name := range sortedKeys(configs) {
		cfg := configs[name]
		cfg.Host = NormalizeHost(cfg.Host)
		if err := checkEndpoint(name, cfg); err != nil {
			result = multierror.Append(result, err)
			continue
		}
		normalized[name] = cfg
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, &ConfigurationError{Msg: "invalid endpoint configuration", Err: err}
	}
	return newRegistry(defaultName, normalized)
}

func newRegistry(defaultName string, configs map[string]EndpointConfig) (*Registry, error) {
	r := &Registry{configs: configs}
	if _, ok := configs[defaultName]; !ok {
		return nil, r.unknownName(defaultName)
	}
	r.active = defaultName
	return r, nil
}

// SwitchActive selects another named configuration. An unknown name leaves
// the current selection untouched.
func (r *Registry) SwitchActive(name string) error {
	if _, ok := r.configs[name]; !ok {
		return r.unknownName(name)
	}
	r.active = name
	return nil
}

// Active returns the currently selected configuration.
func (r *Registry) Active() EndpointConfig {
	return r.configs[r.active]
}

// ActiveName returns the name of the currently selected configuration.
func (r *Registry) ActiveName() string {
	return r.active
}

// Get returns the named configuration.
func (r *Registry) Get(name string) (EndpointConfig, bool) {
	cfg, ok := r.configs[name]
	return cfg, ok
}

// Names lists the registered configuration names in sorted order.
func (r *Registry) Names() []string {
	return sortedKeys(r.configs)
}

func (r *Registry) unknownName(name string) error {
	return &ConfigurationError{
		Name: name,
		Msg: fmt.Sprintf("No configuration with key %q. Available configurations: %s.",
			name, strings.Join(r.Names(), ", ")),
		Err: ErrUnknownConfig,
	}
}

func decodeEndpoint(name string, raw map[string]any) (EndpointConfig, error) {
	var result *multierror.Error
	for _, key := range requiredKeys {
		if v, ok := raw[key]; !ok || v == nil {
			result = multierror.Append(result, fmt.Errorf("config %q: missing required key %q", name, key))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return EndpointConfig{}, err
	}

	var cfg EndpointConfig
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return EndpointConfig{}, fmt.Errorf("config %q: %w", name, err)
	}
	if err := dec.Decode(raw); err != nil {
		return EndpointConfig{}, fmt.Errorf("config %q: %w", name, err)
	}
	cfg.Host = NormalizeHost(cfg.Host)
	if err := checkEndpoint(name, cfg); err != nil {
		return EndpointConfig{}, err
	}
	return cfg, nil
}

func checkEndpoint(name string, cfg EndpointConfig) error {
	var result *multierror.Error
	if cfg.Host == "" {
		result = multierror.Append(result, fmt.Errorf("config %q: %s must not be empty", name, KeyHost))
	}
	if cfg.PublicKey == "" {
		result = multierror.Append(result, fmt.Errorf("config %q: %s must not be empty", name, KeyPublicKey))
	}
	if cfg.PrivateKey == "" {
		result = multierror.Append(result, fmt.Errorf("config %q: %s must not be empty", name, KeyPrivateKey))
	}
	timeouts := []struct {
		key   string
		value float64
	}{
		{KeyConnectionTimeout, cfg.ConnectionTimeout},
		{KeyRequestTimeout, cfg.RequestTimeout},
		{KeySearchTimeout, cfg.SearchTimeout},
	}
	for _, t := range timeouts {
		if t.value < 0 {
			result = multierror.Append(result, fmt.Errorf("config %q: %s must not be negative", name, t.key))
		}
	}
	return result.ErrorOrNil()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
