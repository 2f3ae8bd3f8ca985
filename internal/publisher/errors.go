package publisher

import (
	"errors"
	"fmt"
)

// Remote operation names carried by RemoteError.
const (
	OpFetchComments = "fetch comments page"
	OpCreateComment = "create comment"
	OpUpdateComment = "update comment"
)

// RemoteError reports a failed Backend call. Err is the backend error, unchanged.
type RemoteError struct {
	// Op is the operation that failed.
	Op string
	// Err is the underlying backend error.
	Err error
}

func (e *RemoteError) Error() string {
	if e == nil {
		return "remote operation failed"
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsRemoteError reports whether err came from a Backend call.
func IsRemoteError(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}
