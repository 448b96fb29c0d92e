// Package conn implements the connection handler: given a complete
// request (already read off the socket by internal/reactor), it parses,
// resolves, dispatches, and always returns exactly one Response.
package conn

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bomanviktor/localhost/internal/cgi"
	"github.com/bomanviktor/localhost/internal/config"
	"github.com/bomanviktor/localhost/internal/dispatch"
	"github.com/bomanviktor/localhost/internal/httpx"
	"github.com/bomanviktor/localhost/internal/router"
)

// fallbackVersion is used for error responses built before a request's own
// version is known — e.g. the request line itself failed to parse.
const fallbackVersion = httpx.Version11

// Handle runs the full request/response pipeline for one request: parse,
// resolve, dispatch. It never returns nil — a malformed request still gets
// an HTTP-looking error response. Every response, success or error, leaves
// with the server's configured hostname as its Host header.
func Handle(head string, body []byte, cfg *config.ServerConfig) *httpx.Response {
	resp := handle(head, body, cfg)
	resp.Header.Set("host", cfg.Host)
	return resp
}

func handle(head string, body []byte, cfg *config.ServerConfig) *httpx.Response {
	req, err := httpx.ParseRequest(head, body, cfg.BodySizeLimit)
	if err != nil {
		return errorResponse(err, fallbackVersion, cfg)
	}

	route, err := router.Resolve(req, cfg.Routes)
	if err != nil {
		var redirect *router.RedirectError
		if errors.As(err, &redirect) {
			return redirectResponse(req.Version, redirect)
		}
		return errorResponse(err, req.Version, cfg)
	}

	if route.Handler != nil {
		resp, err := route.Handler(req, cfg)
		if err != nil {
			return errorResponse(err, req.Version, cfg)
		}
		if resp == nil {
			return errorResponse(httpx.NewStatusError(httpx.StatusInternalServerError), req.Version, cfg)
		}
		return resp
	}

	resolvedPath := dispatch.ResolvedPath(route, req.Path())

	if info, statErr := os.Stat(resolvedPath); statErr == nil && info.IsDir() {
		return handleDirectory(req, route, cfg, resolvedPath)
	}

	if cgi.IsRequest(resolvedPath) {
		resp, err := cgi.Execute(req, route, cfg, resolvedPath)
		if err != nil {
			return errorResponse(err, req.Version, cfg)
		}
		return resp
	}

	resp, err := dispatch.Dispatch(req, route, cfg, resolvedPath)
	if err != nil {
		return errorResponse(err, req.Version, cfg)
	}
	return resp
}

// handleDirectory serves a directory target: default-file fallback,
// directory listing, or NotFound, in that priority order.
func handleDirectory(req *httpx.Request, route *config.Route, cfg *config.ServerConfig, dirPath string) *httpx.Response {
	settings := route.Settings
	if settings == nil {
		return errorResponse(httpx.NewStatusError(httpx.StatusNotFound), req.Version, cfg)
	}

	if settings.DefaultIfURLIsDir != "" {
		synthesized := *req
		synthesized.Method = httpx.MethodGET
		synthesized.Target = strings.TrimSuffix(req.Path(), "/") + "/" + strings.TrimPrefix(settings.DefaultIfURLIsDir, "/")

		resolved := dispatch.ResolvedPath(route, synthesized.Path())
		resp, err := dispatch.Dispatch(&synthesized, route, cfg, resolved)
		if err != nil {
			return errorResponse(err, req.Version, cfg)
		}
		return resp
	}

	if settings.ListDirectory {
		return listDirectory(req, dirPath)
	}

	return errorResponse(httpx.NewStatusError(httpx.StatusNotFound), req.Version, cfg)
}

// listDirectory renders the HTML index for a directory target.
func listDirectory(req *httpx.Request, dirPath string) *httpx.Response {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return errorResponse(httpx.NewStatusError(httpx.StatusNotFound), req.Version, nil)
	}

	base := strings.Trim(req.Path(), "/")
	var b strings.Builder
	b.WriteString("<html><body><ul>")
	for _, e := range entries {
		name := e.Name()
		fmt.Fprintf(&b, `<li><a href="/%s/%s">%s</a></li>`, base, name, name)
	}
	b.WriteString("</ul></body></html>")

	resp := httpx.NewResponse(req.Version, httpx.StatusOK)
	resp.Header.Set("content-type", "text/html")
	resp.Body = []byte(b.String())
	resp.SetContentLength()
	return resp
}

// redirectResponse builds the 3xx response for a resolved RedirectError.
func redirectResponse(version httpx.Version, redirect *router.RedirectError) *httpx.Response {
	resp := httpx.NewResponse(version, redirect.Status)
	resp.Header.Set("location", redirect.Location)
	return resp
}

// errorResponse builds the error response for the status err carries: a
// custom error page if config.CustomErrorPath is set and the file exists,
// else a generated template.
func errorResponse(err error, version httpx.Version, cfg *config.ServerConfig) *httpx.Response {
	code, ok := httpx.AsStatus(err)
	if !ok {
		code = httpx.StatusInternalServerError
	}

	resp := httpx.NewResponse(version, code)
	resp.Header.Set("content-type", "text/html")
	resp.Body = errorBody(code, cfg)
	resp.SetContentLength()
	return resp
}

func errorBody(code httpx.StatusCode, cfg *config.ServerConfig) []byte {
	if cfg != nil && cfg.CustomErrorPath != "" {
		path := fmt.Sprintf(".%s/%d.html", cfg.CustomErrorPath, int(code))
		if body, readErr := os.ReadFile(path); readErr == nil {
			return body
		}
	}
	return []byte(fmt.Sprintf("<html><body><h1>%d %s</h1></body></html>", int(code), code.Reason()))
}
