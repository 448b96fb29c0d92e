// Package cgi implements the CGI executor: translating a request whose
// resolved path contains "/cgi/" into a per-request process invocation,
// with request headers passed as CGI environment variables.
package cgi

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bomanviktor/localhost/internal/config"
	"github.com/bomanviktor/localhost/internal/httpx"
)

// Marker is the path substring that triggers CGI dispatch.
const Marker = "/cgi/"

// IsRequest reports whether resolvedPath should be routed through the CGI
// executor.
func IsRequest(resolvedPath string) bool {
	return strings.Contains(resolvedPath, Marker)
}

// commandFor maps a language tag to the interpreter binary invoked as
// `<command> <script_path> <body>`. internal/config names more tags than
// ship with a command here; an unmapped tag resolves to NotFound.
var commandFor = map[config.CGILang]string{
	config.CGIJavaScript: "node",
	config.CGIPHP:        "php",
	config.CGIPython:     "python3",
	config.CGIRuby:       "ruby",
}

// serverSoftware is the implementation-chosen SERVER_SOFTWARE value.
const serverSoftware = "localhost/1.0"

// execTimeout bounds a single CGI invocation so one stuck script cannot
// wedge the reactor forever. A slow CGI process still blocks the
// single-threaded loop for its duration; this is a backstop, not a fix.
const execTimeout = 30 * time.Second

// Execute spawns the CGI script resolvedPath maps to and returns its
// response. route.Settings.CGIDef must contain an entry for the script's
// extension.
func Execute(req *httpx.Request, route *config.Route, cfg *config.ServerConfig, resolvedPath string) (*httpx.Response, error) {
	if !utf8.Valid(req.Body) {
		return nil, httpx.NewStatusError(httpx.StatusBadRequest)
	}
	if cfg.BodySizeLimit > 0 && len(req.Body) > cfg.BodySizeLimit {
		return nil, httpx.NewStatusError(httpx.StatusPayloadTooLarge)
	}

	ext := httpx.Extension(resolvedPath)
	if route.Settings == nil {
		return nil, httpx.NewStatusError(httpx.StatusNotFound)
	}
	lang, ok := route.Settings.CGIDef[ext]
	if !ok {
		return nil, httpx.NewStatusError(httpx.StatusNotFound)
	}
	command, ok := commandFor[lang]
	if !ok {
		return nil, httpx.NewStatusError(httpx.StatusNotFound)
	}

	args := []string{scriptPath(resolvedPath, ext), string(req.Body)}

	ctx, cancel := context.WithTimeout(context.Background(), execTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Env = environment(req, cfg, resolvedPath)

	output, err := cmd.Output()
	if err != nil {
		return nil, httpx.NewStatusError(httpx.StatusInternalServerError)
	}

	resp := httpx.NewResponse(req.Version, httpx.StatusOK)
	resp.Header.Set("content-type", "text/html")
	resp.Body = output
	resp.SetContentLength()
	return resp, nil
}

// environment builds the CGI environment variables as a child-scoped
// slice, passed via exec.Cmd.Env rather than os.Setenv so concurrent
// invocations can never observe each other's variables.
func environment(req *httpx.Request, cfg *config.ServerConfig, resolvedPath string) []string {
	env := []string{
		"REQUEST_METHOD=" + string(req.Method),
		"SERVER_NAME=" + cfg.Host,
		"SERVER_SOFTWARE=" + serverSoftware,
		"QUERY_STRING=" + req.Query(),
		"PATH_INFO=" + pathInfo(req.Path(), resolvedPath),
	}

	if length, ok := req.ContentLength(); ok {
		env = append(env, "CONTENT_LENGTH="+strconv.Itoa(length))
	}
	if ct := req.Header.Get("content-type"); ct != "" {
		env = append(env, "CONTENT_TYPE="+ct)
	}
	if port := serverPort(req); port != "" {
		env = append(env, "SERVER_PORT="+port)
	}

	headerEnv := map[string]string{
		"accept":              "HTTP_ACCEPT",
		"accept-charset":      "HTTP_ACCEPT_CHARSET",
		"accept-encoding":     "HTTP_ACCEPT_ENCODING",
		"accept-language":     "HTTP_ACCEPT_LANGUAGE",
		"forwarded":           "HTTP_FORWARDED",
		"host":                "HTTP_HOST",
		"proxy-authorization": "HTTP_PROXY_AUTHORIZATION",
		"user-agent":          "HTTP_USER_AGENT",
		"cookie":              "COOKIE",
	}
	for header, variable := range headerEnv {
		if v := req.Header.Get(header); v != "" {
			env = append(env, variable+"="+v)
		}
	}

	return env
}

// scriptPath cuts any PATH_INFO suffix off resolvedPath, leaving just the
// script file the interpreter is handed:
// "./cgi/app.py/extra/path" -> "./cgi/app.py".
func scriptPath(resolvedPath, ext string) string {
	marker := "." + ext
	if i := strings.Index(resolvedPath, marker); i >= 0 {
		return resolvedPath[:i+len(marker)]
	}
	return resolvedPath
}

// pathInfo returns the portion of urlPath after the CGI script's
// extension, e.g. "/cgi/app.py/extra/path" -> "/extra/path".
func pathInfo(urlPath, resolvedPath string) string {
	ext := httpx.Extension(resolvedPath)
	if ext == "" {
		return ""
	}
	marker := "." + ext
	i := strings.Index(urlPath, marker)
	if i < 0 {
		return ""
	}
	rest := urlPath[i+len(marker):]
	return rest
}

func serverPort(req *httpx.Request) string {
	host := req.Header.Get("host")
	if i := strings.IndexByte(host, ':'); i >= 0 {
		return host[i+1:]
	}
	return ""
}
