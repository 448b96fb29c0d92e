// Package dispatch implements the method dispatcher: the file-backed
// semantics of GET/HEAD/OPTIONS/TRACE/POST/PUT/PATCH/DELETE.
package dispatch

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/bomanviktor/localhost/internal/config"
	"github.com/bomanviktor/localhost/internal/httpx"
)

// ResolvedPath builds the filesystem path a Route's settings resolve a
// request URL to: "." + root_path + url. The leading dot anchors
// resolution to the process's working directory.
func ResolvedPath(route *config.Route, urlPath string) string {
	root := ""
	if route.Settings != nil {
		root = route.Settings.RootPath
	}
	return "." + root + urlPath
}

// Dispatch executes the method dispatcher's semantics for req against
// route, rooted at resolvedPath (already computed by the connection
// handler, since it is also needed to detect directories/CGI before
// Dispatch is reached).
func Dispatch(req *httpx.Request, route *config.Route, cfg *config.ServerConfig, resolvedPath string) (*httpx.Response, error) {
	switch req.Method {
	case httpx.MethodGET:
		return get(resolvedPath, req.Version)
	case httpx.MethodHEAD:
		return head(resolvedPath, req.Version)
	case httpx.MethodOPTIONS:
		return options(route, req.Version)
	case httpx.MethodTRACE:
		return trace(req, cfg)
	case httpx.MethodPUT:
		return put(resolvedPath, req.Body, req.Version)
	case httpx.MethodPATCH:
		return patch(resolvedPath, req.Body, req.Version)
	case httpx.MethodDELETE:
		return deleteMethod(resolvedPath, req.Version)
	case httpx.MethodPOST:
		return post(resolvedPath, req.Body, req.Version)
	default:
		return nil, httpx.NewStatusError(httpx.StatusNotImplemented)
	}
}

func get(path string, version httpx.Version) (*httpx.Response, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, httpx.NewStatusError(httpx.StatusNotFound)
	}
	resp := httpx.NewResponse(version, httpx.StatusOK)
	resp.Header.Set("content-type", httpx.ContentTypeForPath(path))
	resp.Body = body
	resp.SetContentLength()
	return resp, nil
}

func head(path string, version httpx.Version) (*httpx.Response, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, httpx.NewStatusError(httpx.StatusInternalServerError)
	}
	resp := httpx.NewResponse(version, httpx.StatusOK)
	resp.Header.Set("content-type", httpx.ContentTypeForPath(path))
	resp.Header.Set("content-length", strconv.FormatInt(info.Size(), 10))
	return resp, nil
}

func options(route *config.Route, version httpx.Version) (*httpx.Response, error) {
	resp := httpx.NewResponse(version, httpx.StatusOK)
	resp.Header.Set("allow", route.AllowedMethodsHeader())
	return resp, nil
}

func trace(req *httpx.Request, cfg *config.ServerConfig) (*httpx.Response, error) {
	if strings.TrimSpace(req.Header.Get("max-forwards")) == "0" {
		return nil, httpx.NewStatusError(httpx.StatusBadRequest)
	}

	via := cfg.Host
	if existing := req.Header.Get("via"); existing != "" {
		via = existing + ", " + cfg.Host
	}
	req.Header.Set("via", via)

	resp := httpx.NewResponse(req.Version, httpx.StatusOK)
	resp.Header.Set("content-type", "message/http")
	resp.Body = []byte(echoRequest(req))
	resp.SetContentLength()
	return resp, nil
}

// echoRequest renders req the way TRACE's debug echo requires, omitting
// Cookie and Authorization header lines.
func echoRequest(req *httpx.Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s\r\n", req.Method, req.Target, req.Version)
	req.Header.Each(func(key, value string) {
		if strings.EqualFold(key, "cookie") || strings.EqualFold(key, "authorization") {
			return
		}
		fmt.Fprintf(&b, "%s: %s\r\n", key, value)
	})
	b.WriteString("\r\n")
	b.Write(req.Body)
	return b.String()
}

func put(path string, body []byte, version httpx.Version) (*httpx.Response, error) {
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return nil, httpx.NewStatusError(httpx.StatusInternalServerError)
	}
	resp := httpx.NewResponse(version, httpx.StatusOK)
	resp.Header.Set("content-type", httpx.ContentTypeForPath(path))
	resp.Body = body
	resp.SetContentLength()
	return resp, nil
}

func patch(path string, body []byte, version httpx.Version) (*httpx.Response, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, httpx.NewStatusError(httpx.StatusNotFound)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return nil, httpx.NewStatusError(httpx.StatusInternalServerError)
	}
	resp := httpx.NewResponse(version, httpx.StatusOK)
	resp.Header.Set("content-type", httpx.ContentTypeForPath(path))
	resp.Body = body
	resp.SetContentLength()
	return resp, nil
}

func deleteMethod(path string, version httpx.Version) (*httpx.Response, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, httpx.NewStatusError(httpx.StatusNotFound)
	}

	if err := os.Remove(path); err != nil {
		if err := os.RemoveAll(path); err != nil {
			return nil, httpx.NewStatusError(httpx.StatusInternalServerError)
		}
	}

	resp := httpx.NewResponse(version, httpx.StatusOK)
	resp.Header.Set("content-type", httpx.ContentTypeForPath(path))
	resp.Body = body
	resp.SetContentLength()
	return resp, nil
}

func post(path string, body []byte, version httpx.Version) (*httpx.Response, error) {
	target := path
	if _, err := os.Stat(path); err == nil {
		target = nextFreeName(path)
	}

	if err := os.WriteFile(target, body, 0o644); err != nil {
		return nil, httpx.NewStatusError(httpx.StatusInternalServerError)
	}

	resp := httpx.NewResponse(version, httpx.StatusOK)
	resp.Header.Set("content-type", httpx.ContentTypeForPath(path))
	resp.Body = body
	resp.SetContentLength()
	return resp, nil
}

// nextFreeName computes the non-colliding filename for POST: insert "(N)"
// immediately before the final '.', incrementing N until the path is
// free.
func nextFreeName(path string) string {
	dot := strings.LastIndexByte(path, '.')
	if dot < 0 {
		dot = len(path)
	}
	prefix, suffix := path[:dot], path[dot:]

	for n := 0; ; n++ {
		candidate := fmt.Sprintf("%s(%d)%s", prefix, n, suffix)
		if _, err := os.Stat(candidate); err != nil {
			return candidate
		}
	}
}
