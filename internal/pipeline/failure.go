package pipeline

import "fmt"

// Kind classifies a failed request.
type Kind string

const (
	// UpstreamUnavailable means the menu page could not be retrieved.
	UpstreamUnavailable Kind = "upstream_unavailable"
	// UnknownCampus means the campus key is not configured.
	UnknownCampus Kind = "unknown_campus"
)

// Failure is the error returned to callers when a request cannot produce a
// result set. Message is safe to show to end users.
type Failure struct {
	Kind    Kind
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error { return f.Err }
