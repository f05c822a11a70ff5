package libs

import "fmt"

// ConfigurationError reports an invalid or missing configuration value. It is
// unrecoverable at suite level: nothing should run against a half-resolved
// environment.
type ConfigurationError struct {
	Setting string
	Value   string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("configuration error: %s: %s", e.Setting, e.Reason)
	}
	return fmt.Sprintf("configuration error: %s=%q: %s", e.Setting, e.Value, e.Reason)
}
