package config

import (
	"os"
	"strings"
)

const (
	EnvHost              = "LUIGISBOX_HOST"
	EnvPublicKey         = "LUIGISBOX_PUBLIC_KEY"
	EnvPrivateKey        = "LUIGISBOX_PRIVATE_KEY"
	EnvConnectionTimeout = "LUIGISBOX_CONNECTION_TIMEOUT"
	EnvRequestTimeout    = "LUIGISBOX_REQUEST_TIMEOUT"
	EnvSearchTimeout     = "LUIGISBOX_SEARCH_TIMEOUT"

	// EnvConfigName is the name given to the single environment-derived config.
	EnvConfigName = "default"
)

// Timeout defaults (seconds) applied by FromEnv when the variable is unset.
const (
	DefaultConnectionTimeout = 5.0
	DefaultRequestTimeout    = 5.0
	DefaultSearchTimeout     = 1.0
)

// FromEnv builds a single-entry Registry named "default" from LUIGISBOX_*
// variables. Host and keys are required; unset timeouts take the package
// defaults.
func FromEnv() (*Registry, error) {
	raw := map[string]any{
		KeyConnectionTimeout: DefaultConnectionTimeout,
		KeyRequestTimeout:    DefaultRequestTimeout,
		KeySearchTimeout:     DefaultSearchTimeout,
	}
	vars := []struct {
		env string
		key string
	}{
		{EnvHost, KeyHost},
		{EnvPublicKey, KeyPublicKey},
		{EnvPrivateKey, KeyPrivateKey},
		{EnvConnectionTimeout, KeyConnectionTimeout},
		{EnvRequestTimeout, KeyRequestTimeout},
		{EnvSearchTimeout, KeySearchTimeout},
	}
	for _, v := range vars {
		if value := strings.TrimSpace(os.Getenv(v.env)); value != "" {
			raw[v.key] = value
		}
	}
	return New(EnvConfigName, map[string]map[string]any{EnvConfigName: raw})
}
