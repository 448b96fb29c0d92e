package httpx

import (
	"net/url"
	"strconv"
	"strings"
)

// Version is an HTTP protocol version.
type Version string

const (
	Version09 Version = "HTTP/0.9"
	Version10 Version = "HTTP/1.0"
	Version11 Version = "HTTP/1.1"
	Version20 Version = "HTTP/2.0"
	Version30 Version = "HTTP/3.0"
)

var knownVersions = map[string]Version{
	"HTTP/0.9": Version09,
	"HTTP/1.0": Version10,
	"HTTP/1.1": Version11,
	"HTTP/2.0": Version20,
	"HTTP/3.0": Version30,
}

// ParseVersion finds the whitespace-separated token containing "HTTP/" in
// line and maps it to a Version. It fails with StatusBadRequest if no such
// token exists, or StatusHTTPVersionNotSupported if the token isn't one of
// the recognized literals.
func ParseVersion(line string) (Version, error) {
	for _, tok := range strings.Fields(line) {
		if !strings.Contains(tok, "HTTP/") {
			continue
		}
		if v, ok := knownVersions[tok]; ok {
			return v, nil
		}
		return "", NewStatusError(StatusHTTPVersionNotSupported)
	}
	return "", NewStatusError(StatusBadRequest)
}

// Request is a parsed HTTP request.
type Request struct {
	Method  Method
	Target  string // raw request-target, e.g. "/cgi/app.py?x=1"
	Version Version
	Header  *Header
	Body    []byte
}

// Path returns Target with any query string removed.
func (r *Request) Path() string {
	if i := strings.IndexByte(r.Target, '?'); i >= 0 {
		return r.Target[:i]
	}
	return r.Target
}

// Query returns the raw query string (without the leading '?'), or "" if
// Target has none.
func (r *Request) Query() string {
	if i := strings.IndexByte(r.Target, '?'); i >= 0 {
		return r.Target[i+1:]
	}
	return ""
}

// ParseRequest builds a Request from a split (head, body) pair. limit
// bounds the accepted body size, applied identically to length-delimited
// and chunked bodies.
func ParseRequest(head string, body []byte, limit int) (*Request, error) {
	lines := strings.Split(head, "\r\n")
	if len(lines) == 0 || lines[0] == "" {
		return nil, NewStatusError(StatusBadRequest)
	}
	requestLine := lines[0]

	version, err := ParseVersion(requestLine)
	if err != nil {
		return nil, err
	}

	fields := strings.Fields(requestLine)
	if len(fields) < 2 {
		return nil, NewStatusError(StatusBadRequest)
	}
	method, ok := ParseMethod(fields[0])
	if !ok {
		return nil, NewStatusError(StatusBadRequest)
	}
	target := fields[1]

	hdr := NewHeader()
	for _, line := range HeaderLines(head) {
		if key, value, ok := FormatHeaderLine(line); ok {
			hdr.Add(strings.ToLower(key), strings.ToLower(value))
		}
	}

	resolvedBody, err := resolveBody(hdr, body, limit)
	if err != nil {
		return nil, err
	}

	return &Request{
		Method:  method,
		Target:  target,
		Version: version,
		Header:  hdr,
		Body:    resolvedBody,
	}, nil
}

// resolveBody applies chunked decoding or the plain body-size limit,
// mapping the decoder's sentinel errors onto response status codes.
func resolveBody(hdr *Header, body []byte, limit int) ([]byte, error) {
	if strings.EqualFold(hdr.Get("transfer-encoding"), "chunked") {
		decoded, err := DecodeChunked(body, limit)
		if err != nil {
			if err == ErrChunkTooLarge {
				return nil, NewStatusError(StatusPayloadTooLarge)
			}
			return nil, NewStatusError(StatusBadRequest)
		}
		return decoded, nil
	}

	if limit > 0 && len(body) > limit {
		return nil, NewStatusError(StatusPayloadTooLarge)
	}
	return body, nil
}

// ContentLength parses the request's Content-Length header. It returns
// (0, false) if the header is absent or unparseable.
func (r *Request) ContentLength() (int, bool) {
	v := r.Header.Get("content-length")
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// QueryValues parses Query() as a URL query string.
func (r *Request) QueryValues() url.Values {
	vals, err := url.ParseQuery(r.Query())
	if err != nil {
		return url.Values{}
	}
	return vals
}
