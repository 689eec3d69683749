package ollama

import "fmt"

// ServerError is an error reported by Ollama inside a 200 response body,
// e.g. an unknown model mid-stream.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("ollama: %s", e.Message)
}
