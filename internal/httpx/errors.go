package httpx

import "errors"

// Sentinel parse errors, pre-allocated so the hot path of rejecting a
// malformed request never allocates an error value.
var (
	// ErrMalformedChunkSize indicates a chunk-size line that isn't valid hex.
	ErrMalformedChunkSize = errors.New("httpx: malformed chunk size")

	// ErrChunkTooLarge indicates the accumulated chunked body exceeded the
	// configured limit.
	ErrChunkTooLarge = errors.New("httpx: chunked body exceeds limit")

	// ErrTruncatedChunk indicates the body ended before a chunk's declared
	// size bytes (plus trailing CRLF) were available.
	ErrTruncatedChunk = errors.New("httpx: truncated chunk data")

	// ErrMissingChunkCRLF indicates a chunk wasn't terminated by CRLF.
	ErrMissingChunkCRLF = errors.New("httpx: chunk missing trailing CRLF")
)

// StatusError is a StatusCode carried as an error. It is the propagation
// currency used from the parser through the router, dispatcher, and CGI
// executor up to the connection handler.
type StatusError struct {
	Code StatusCode
}

func (e *StatusError) Error() string {
	return e.Code.Reason()
}

// NewStatusError wraps code as an error.
func NewStatusError(code StatusCode) error {
	return &StatusError{Code: code}
}

// AsStatus unwraps err into the StatusCode it carries. If err is nil, it
// returns (0, false). If err doesn't carry a StatusCode, it returns
// (StatusInternalServerError, true) so callers always get something
// responsible to serve.
func AsStatus(err error) (StatusCode, bool) {
	if err == nil {
		return 0, false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return StatusInternalServerError, true
}
