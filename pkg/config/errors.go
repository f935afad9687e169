package config

import "errors"

var (
	// ErrConfiguration matches every *ConfigurationError via errors.Is.
	ErrConfiguration = errors.New("config: invalid configuration")
	// ErrUnknownConfig is wrapped when a configuration name is not registered.
	ErrUnknownConfig = errors.New("config: unknown configuration name")
)

// ConfigurationError reports a construction-time or switch-time problem with
// the endpoint configuration. It is fatal for the operation that raised it.
type ConfigurationError struct {
	Name string
	Msg  string
	Err  error
}

func (e *ConfigurationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := "config: " + e.Msg
	if e.Err != nil && !errors.Is(e.Err, ErrUnknownConfig) {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Is reports ErrConfiguration as a match so callers can branch on the class.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}
