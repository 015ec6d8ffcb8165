package model

import "fmt"

// ConfigError reports malformed configuration: weight tables that do not sum
// to one, unknown profiles, broken threshold ladders. It is fatal at load time.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s: %s", e.Field, e.Reason)
}
