package llm

import "fmt"

// ErrorResponse represents an error payload from the runtime API.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusError is returned when the runtime answers with a non-2xx status.
type StatusError struct {
	StatusCode   int
	ErrorMessage string `json:"error"`
}

func (e StatusError) Error() string {
	if e.ErrorMessage != "" {
		return fmt.Sprintf("runtime returned %d: %s", e.StatusCode, e.ErrorMessage)
	}
	return fmt.Sprintf("runtime returned %d", e.StatusCode)
}
