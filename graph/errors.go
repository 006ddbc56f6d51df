package graph

import "fmt"

// RemoteError is a non-auth failure returned by the Graph API. It carries the
// HTTP status and the remote error code/message for diagnosis; the gateway
// never retries it.
type RemoteError struct {
	Status  int
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("graph request failed: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("graph request failed: status %d", e.Status)
}

// ValidationError reports input that does not satisfy an operation's declared
// schema. It is produced before any remote call is made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return "invalid input: " + e.Message }
