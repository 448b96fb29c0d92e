package httpx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequest_Basic(t *testing.T) {
	head, body := SplitHeadBody([]byte("GET /test.txt HTTP/1.1\r\nHost: 127.0.0.1\r\n\r\n"))
	req, err := ParseRequest(head, body, 0)
	require.NoError(t, err)
	assert.Equal(t, MethodGET, req.Method)
	assert.Equal(t, "/test.txt", req.Target)
	assert.Equal(t, Version11, req.Version)
	assert.Equal(t, "127.0.0.1", req.Header.Get("host"))
}

func TestParseRequest_InvalidMethod(t *testing.T) {
	head, body := SplitHeadBody([]byte("BOGUS / HTTP/1.1\r\n\r\n"))
	_, err := ParseRequest(head, body, 0)
	code, ok := AsStatus(err)
	require.True(t, ok)
	assert.Equal(t, StatusBadRequest, code)
}

func TestParseRequest_UnsupportedVersion(t *testing.T) {
	head, body := SplitHeadBody([]byte("GET / HTTP/9.9\r\n\r\n"))
	_, err := ParseRequest(head, body, 0)
	code, ok := AsStatus(err)
	require.True(t, ok)
	assert.Equal(t, StatusHTTPVersionNotSupported, code)
}

func TestParseRequest_MissingVersion(t *testing.T) {
	head, body := SplitHeadBody([]byte("GET /\r\n\r\n"))
	_, err := ParseRequest(head, body, 0)
	code, ok := AsStatus(err)
	require.True(t, ok)
	assert.Equal(t, StatusBadRequest, code)
}

func TestParseRequest_PayloadTooLarge(t *testing.T) {
	head, body := SplitHeadBody([]byte("POST /x HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello"))
	_, err := ParseRequest(head, body, 3)
	code, ok := AsStatus(err)
	require.True(t, ok)
	assert.Equal(t, StatusPayloadTooLarge, code)
}

func TestParseRequest_Chunked(t *testing.T) {
	raw := "POST /files/upload.txt HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n4\r\nWiki\r\n5\r\npedia\r\n0\r\n\r\n"
	head, body := SplitHeadBody([]byte(raw))
	req, err := ParseRequest(head, body, 0)
	require.NoError(t, err)
	assert.Equal(t, "Wikipedia", string(req.Body))
}

func TestParseRequest_HeadersLowercased(t *testing.T) {
	head, body := SplitHeadBody([]byte("GET / HTTP/1.1\r\nX-Custom: MixedCase\r\n\r\n"))
	req, err := ParseRequest(head, body, 0)
	require.NoError(t, err)
	assert.Equal(t, "mixedcase", req.Header.Get("x-custom"))
}

func TestRequest_PathAndQuery(t *testing.T) {
	req := &Request{Target: "/cgi/app.py?x=1&y=2"}
	assert.Equal(t, "/cgi/app.py", req.Path())
	assert.Equal(t, "x=1&y=2", req.Query())
	assert.Equal(t, "1", req.QueryValues().Get("x"))
}
