// motif/validate.go
package motif

import (
	"fmt"
	"unicode/utf8"
)

// ValidateSequence checks that buf is a well-formed byte sequence for the
// matching backend, which is compiled to validate input as UTF-8. Sequences
// are plain ASCII in practice; anything that is not valid text is rejected
// here rather than silently re-encoded.
func ValidateSequence(buf []byte) error {
	if utf8.Valid(buf) {
		return nil
	}
	// locate the first bad byte for the error message
	for i := 0; i < len(buf); {
		r, size := utf8.DecodeRune(buf[i:])
		if r == utf8.RuneError && size <= 1 {
			return fmt.Errorf("invalid byte 0x%02X at offset %d: sequence must be valid text", buf[i], i)
		}
		i += size
	}
	return fmt.Errorf("sequence is not valid text")
}
