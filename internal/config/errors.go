package config

import "fmt"

// ConfigurationError reports an invalid or missing tunable. It is fatal and
// always surfaces before kickoff.
type ConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("config %s=%v: %s", e.Field, e.Value, e.Reason)
}
