package dispatch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bomanviktor/localhost/internal/config"
	"github.com/bomanviktor/localhost/internal/httpx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withTempCwd(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })
	return dir
}

func TestDispatch_GET(t *testing.T) {
	withTempCwd(t)
	require.NoError(t, os.MkdirAll("files", 0o755))
	require.NoError(t, os.WriteFile(filepath.Join("files", "test.txt"), []byte("hello\n"), 0o644))

	route := &config.Route{URLPath: "/test.txt", Methods: []httpx.Method{httpx.MethodGET}, Settings: &config.RouteSettings{RootPath: "/files"}}
	req := &httpx.Request{Method: httpx.MethodGET, Target: "/test.txt", Version: httpx.Version11}

	resp, err := Dispatch(req, route, &config.ServerConfig{}, ResolvedPath(route, req.Path()))
	require.NoError(t, err)
	assert.Equal(t, httpx.StatusOK, resp.Status)
	assert.Equal(t, "text/plain", resp.Header.Get("content-type"))
	assert.Equal(t, "6", resp.Header.Get("content-length"))
	assert.Equal(t, "hello\n", string(resp.Body))
}

func TestDispatch_GET_Idempotent(t *testing.T) {
	withTempCwd(t)
	require.NoError(t, os.MkdirAll("files", 0o755))
	require.NoError(t, os.WriteFile(filepath.Join("files", "same.txt"), []byte("stable"), 0o644))

	route := &config.Route{URLPath: "/same.txt", Methods: []httpx.Method{httpx.MethodGET}, Settings: &config.RouteSettings{RootPath: "/files"}}
	req := &httpx.Request{Method: httpx.MethodGET, Target: "/same.txt", Version: httpx.Version11}

	first, err := Dispatch(req, route, &config.ServerConfig{}, ResolvedPath(route, req.Path()))
	require.NoError(t, err)
	second, err := Dispatch(req, route, &config.ServerConfig{}, ResolvedPath(route, req.Path()))
	require.NoError(t, err)
	assert.Equal(t, first.Body, second.Body)
}

func TestDispatch_GET_NotFound(t *testing.T) {
	withTempCwd(t)
	route := &config.Route{URLPath: "/missing.txt", Methods: []httpx.Method{httpx.MethodGET}}
	req := &httpx.Request{Method: httpx.MethodGET, Target: "/missing.txt", Version: httpx.Version11}
	_, err := Dispatch(req, route, &config.ServerConfig{}, ResolvedPath(route, req.Path()))
	code, ok := httpx.AsStatus(err)
	require.True(t, ok)
	assert.Equal(t, httpx.StatusNotFound, code)
}

func TestDispatch_PUT_then_GET(t *testing.T) {
	withTempCwd(t)
	require.NoError(t, os.MkdirAll("files", 0o755))
	route := &config.Route{URLPath: "/new.txt", Methods: []httpx.Method{httpx.MethodPUT, httpx.MethodGET}, Settings: &config.RouteSettings{RootPath: "/files"}}
	req := &httpx.Request{Method: httpx.MethodPUT, Target: "/new.txt", Version: httpx.Version11, Body: []byte("data")}

	path := ResolvedPath(route, req.Path())
	resp, err := Dispatch(req, route, &config.ServerConfig{}, path)
	require.NoError(t, err)
	assert.Equal(t, httpx.StatusOK, resp.Status)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "data", string(contents))
}

func TestDispatch_DELETE_then_GET_NotFound(t *testing.T) {
	withTempCwd(t)
	require.NoError(t, os.MkdirAll("files", 0o755))
	path := filepath.Join("files", "gone.txt")
	require.NoError(t, os.WriteFile(path, []byte("bye"), 0o644))

	route := &config.Route{URLPath: "/gone.txt", Methods: []httpx.Method{httpx.MethodDELETE}, Settings: &config.RouteSettings{RootPath: "/files"}}
	req := &httpx.Request{Method: httpx.MethodDELETE, Target: "/gone.txt", Version: httpx.Version11}

	resolved := ResolvedPath(route, req.Path())
	resp, err := Dispatch(req, route, &config.ServerConfig{}, resolved)
	require.NoError(t, err)
	assert.Equal(t, "bye", string(resp.Body))

	_, err = os.Stat(resolved)
	assert.True(t, os.IsNotExist(err))
}

func TestDispatch_PATCH_RequiresExisting(t *testing.T) {
	withTempCwd(t)
	route := &config.Route{URLPath: "/nope.txt", Methods: []httpx.Method{httpx.MethodPATCH}}
	req := &httpx.Request{Method: httpx.MethodPATCH, Target: "/nope.txt", Version: httpx.Version11, Body: []byte("x")}
	_, err := Dispatch(req, route, &config.ServerConfig{}, ResolvedPath(route, req.Path()))
	code, ok := httpx.AsStatus(err)
	require.True(t, ok)
	assert.Equal(t, httpx.StatusNotFound, code)
}

func TestDispatch_POST_Collision(t *testing.T) {
	withTempCwd(t)
	require.NoError(t, os.MkdirAll("files", 0o755))
	existing := filepath.Join("files", "existing.txt")
	require.NoError(t, os.WriteFile(existing, []byte("original"), 0o644))

	route := &config.Route{URLPath: "/existing.txt", Methods: []httpx.Method{httpx.MethodPOST}, Settings: &config.RouteSettings{RootPath: "/files"}}
	req := &httpx.Request{Method: httpx.MethodPOST, Target: "/existing.txt", Version: httpx.Version11, Body: []byte("x")}

	_, err := Dispatch(req, route, &config.ServerConfig{}, ResolvedPath(route, req.Path()))
	require.NoError(t, err)

	original, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "original", string(original))

	collided, err := os.ReadFile(filepath.Join("files", "existing(0).txt"))
	require.NoError(t, err)
	assert.Equal(t, "x", string(collided))
}

func TestDispatch_OPTIONS(t *testing.T) {
	route := &config.Route{URLPath: "/x", Methods: []httpx.Method{httpx.MethodGET, httpx.MethodHEAD, httpx.MethodOPTIONS}}
	req := &httpx.Request{Method: httpx.MethodOPTIONS, Target: "/x", Version: httpx.Version11}
	resp, err := Dispatch(req, route, &config.ServerConfig{}, ResolvedPath(route, req.Path()))
	require.NoError(t, err)
	assert.Equal(t, "GET, HEAD, OPTIONS", resp.Header.Get("allow"))
	assert.Empty(t, resp.Body)
}

func TestDispatch_TRACE_MaxForwardsZero(t *testing.T) {
	req := &httpx.Request{Method: httpx.MethodTRACE, Target: "/x", Version: httpx.Version11, Header: httpx.NewHeader()}
	req.Header.Set("max-forwards", "0")
	_, err := Dispatch(req, &config.Route{}, &config.ServerConfig{Host: "h"}, "")
	code, ok := httpx.AsStatus(err)
	require.True(t, ok)
	assert.Equal(t, httpx.StatusBadRequest, code)
}

func TestDispatch_TRACE_StripsCookieAndAuth(t *testing.T) {
	req := &httpx.Request{Method: httpx.MethodTRACE, Target: "/x", Version: httpx.Version11, Header: httpx.NewHeader()}
	req.Header.Set("cookie", "secret")
	req.Header.Set("authorization", "Bearer abc")
	req.Header.Set("x-visible", "yes")

	resp, err := Dispatch(req, &config.Route{}, &config.ServerConfig{Host: "h"}, "")
	require.NoError(t, err)
	body := string(resp.Body)
	assert.NotContains(t, body, "secret")
	assert.NotContains(t, body, "Bearer abc")
	assert.Contains(t, body, "x-visible: yes")
	assert.Equal(t, "message/http", resp.Header.Get("content-type"))
}

func TestDispatch_NotImplemented(t *testing.T) {
	req := &httpx.Request{Method: httpx.MethodCONNECT, Target: "/x", Version: httpx.Version11}
	_, err := Dispatch(req, &config.Route{}, &config.ServerConfig{}, "")
	code, ok := httpx.AsStatus(err)
	require.True(t, ok)
	assert.Equal(t, httpx.StatusNotImplemented, code)
}
