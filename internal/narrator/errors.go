package narrator

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse reports a 200 reply whose body did not carry exactly
// one usable completion choice.
var ErrMalformedResponse = errors.New("malformed completion response")

// APIError is returned when an external service answers with a non-200
// status. The raw body is kept for the logs.
type APIError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s service: status %d: %s", e.Service, e.StatusCode, e.Body)
}
