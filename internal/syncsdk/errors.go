package syncsdk

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSyncStore means the remote has no manifest (HTTP 404). This is a
	// legitimate "sync not enabled" signal, distinct from transport failures,
	// so callers can skip such blogs silently.
	ErrNoSyncStore = errors.New("sdk: no sync store at remote")

	// ErrIntegrity means downloaded bytes do not match the hash the manifest
	// declared for them. Always fatal for that file.
	ErrIntegrity = errors.New("sdk: downloaded content does not match declared hash")
)

// TransportError covers network failures and non-200 responses other than a
// missing manifest.
type TransportError struct {
	URL        string
	StatusCode int // 0 when the request never got a response
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("sdk: transport error: %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("sdk: transport error: %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError covers malformed JSON or schema mismatches in fetched files.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("sdk: decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
