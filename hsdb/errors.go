// hsdb/errors.go
package hsdb

import "fmt"

// ConfigurationError reports invalid caller-supplied configuration: an empty
// pattern list, a rejected input buffer, or window/overlap settings that
// cannot guarantee correct results.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration: " + e.Reason
}

// CompilationError reports that the backend rejected a pattern set. The key
// it was compiled under is never cached, not even partially.
type CompilationError struct {
	Key string
	Err error
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("compile %q: %v", e.Key, e.Err)
}

func (e *CompilationError) Unwrap() error { return e.Err }

// NotCompiledError reports a scan against a key that has no cached engine.
type NotCompiledError struct {
	Key string
}

func (e *NotCompiledError) Error() string {
	return fmt.Sprintf("pattern database %q is not compiled", e.Key)
}

// BackendUnavailableError means the matching capability is absent entirely.
// Every registry operation fails fast with this rather than degrading.
type BackendUnavailableError struct {
	Err error
}

func (e *BackendUnavailableError) Error() string {
	if e.Err != nil {
		return "matching backend unavailable: " + e.Err.Error()
	}
	return "matching backend unavailable"
}

func (e *BackendUnavailableError) Unwrap() error { return e.Err }
