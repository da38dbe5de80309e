// scan/errors.go
package scan

import "fmt"

// ScanError reports a backend failure mid-scan. Window identifies which
// chunk or window failed (-1 for a plain one-shot buffer scan). A ScanError
// aborts only its own scan call; the registry cache and other in-flight
// scans are unaffected.
type ScanError struct {
	Key    string
	Window int
	Err    error
}

func (e *ScanError) Error() string {
	if e.Window >= 0 {
		return fmt.Sprintf("scan %q window %d: %v", e.Key, e.Window, e.Err)
	}
	return fmt.Sprintf("scan %q: %v", e.Key, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }
