package httpx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/valyala/bytebufferpool"
)

// Response is a response under construction.
type Response struct {
	Status  StatusCode
	Version Version
	Header  *Header
	Body    []byte
}

// NewResponse returns a Response with an initialized, empty Header.
func NewResponse(version Version, status StatusCode) *Response {
	return &Response{Version: version, Status: status, Header: NewHeader()}
}

// contentTypeByExtension maps file extensions to Content-Type values.
var contentTypeByExtension = map[string]string{
	"html": "text/html",
	"css":  "text/css",
	"js":   "text/javascript",
	"txt":  "text/plain",
	"xml":  "text/xml",
	"http": "message/http",
	"jpeg": "image/jpeg",
	"jpg":  "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"svg":  "image/svg+xml",
	"aac":  "audio/aac",
	"eac3": "audio/eac3",
	"mp3":  "audio/mpeg",
	"ogg":  "audio/ogg",
	"mp4":  "video/mp4",
	"webm": "video/webm",
	"ogv":  "video/ogg",
	"json": "application/json",
	"pdf":  "application/pdf",
	"zip":  "application/zip",
	"tar":  "application/x-tar",
	"gz":   "application/gzip",
	"exe":   "application/octet-stream",
	"msi":   "application/octet-stream",
	"woff":  "application/font-woff",
	"woff2": "application/font-woff2",
	"ttf":   "application/font-sfnt",
	"otf":   "application/font-sfnt",
}

// ContentTypeForPath derives a Content-Type from path's extension, falling
// back to text/plain for unknown or missing extensions.
func ContentTypeForPath(path string) string {
	ext := Extension(path)
	if ct, ok := contentTypeByExtension[strings.ToLower(ext)]; ok {
		return ct
	}
	return "text/plain"
}

// Extension returns the run of alphanumeric characters following path's
// final '.', or "" if path has no '.'. Truncating at the first
// non-alphanumeric byte is what lets a CGI target carrying PATH_INFO
// ("/cgi/app.py/extra/path") still resolve to "py".
func Extension(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 || i == len(path)-1 {
		return ""
	}
	ext := path[i+1:]
	for j := 0; j < len(ext); j++ {
		if !isAlnum(ext[j]) {
			return ext[:j]
		}
	}
	return ext
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// maxChunkSize bounds individual chunk emission size. It stays at or below
// the reactor's read buffer size so a response this server generated and
// re-fed into itself round-trips in one read per chunk.
const maxChunkSize = 4096

// Serialize renders r as an HTTP/1.1 byte stream: a status line, headers
// in insertion order, a blank CRLF, then the body — chunked if the
// response carries `Transfer-Encoding: chunked`.
func (r *Response) Serialize() []byte {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	fmt.Fprintf(buf, "%s %d %s\r\n", r.Version, int(r.Status), r.Status.Reason())
	r.Header.Each(func(key, value string) {
		fmt.Fprintf(buf, "%s: %s\r\n", key, value)
	})
	buf.WriteString("\r\n")

	if len(r.Body) == 0 {
		out := make([]byte, buf.Len())
		copy(out, buf.Bytes())
		return out
	}

	if isChunked(r.Header) {
		writeChunked(buf, r.Body)
	} else {
		buf.Write(r.Body)
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out
}

func isChunked(h *Header) bool {
	for _, v := range h.Values("transfer-encoding") {
		if strings.EqualFold(v, "chunked") {
			return true
		}
	}
	return false
}

func writeChunked(buf *bytebufferpool.ByteBuffer, body []byte) {
	for len(body) > 0 {
		n := len(body)
		if n > maxChunkSize {
			n = maxChunkSize
		}
		fmt.Fprintf(buf, "%x\r\n", n)
		buf.Write(body[:n])
		buf.WriteString("\r\n")
		body = body[n:]
	}
	buf.WriteString("0\r\n\r\n")
}

// SetContentLength sets the Content-Length header to len(r.Body).
func (r *Response) SetContentLength() {
	r.Header.Set("content-length", strconv.Itoa(len(r.Body)))
}
