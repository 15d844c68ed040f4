package llm

import "fmt"

// ConfigError means the provider cannot be used as configured. It is never retried.
type ConfigError struct {
	Provider string
	Reason   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("llm config (%s): %s", e.Provider, e.Reason)
}

// ServiceError wraps a failed call to a text-generation service:
// transport failure, non-success status or an empty response.
type ServiceError struct {
	Provider string
	Err      error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Provider, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}
