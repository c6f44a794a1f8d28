package ddns

import (
	"fmt"
)

// RequestError is returned by a Client when the provider answers with a
// non-success status or the request could not be sent at all. StatusCode is 0
// for transport failures.
type RequestError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}
