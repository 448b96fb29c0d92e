package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bomanviktor/localhost/internal/httpx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJSON = `{
  "servers": [
    {
      "host": "127.0.0.1",
      "ports": [8080],
      "body_size_limit": 1048576,
      "routes": [
        {
          "url_path": "/files",
          "methods": ["GET", "POST", "PUT", "DELETE"],
          "settings": {
            "root_path": "/files",
            "list_directory": true
          }
        },
        {
          "url_path": "/cookie",
          "methods": ["GET"],
          "handler": "cookie.update"
        }
      ]
    }
  ]
}`

func TestLoad_JSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleJSON), 0o644))

	called := false
	registry := map[string]HandlerFunc{
		"cookie.update": func(req *httpx.Request, cfg *ServerConfig) (*httpx.Response, error) {
			called = true
			return nil, nil
		},
	}

	configs, err := Load(path, registry)
	require.NoError(t, err)
	require.Len(t, configs, 1)

	cfg := configs[0]
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, []int{8080}, cfg.Ports)
	require.Len(t, cfg.Routes, 2)

	filesRoute := cfg.Routes[0]
	assert.Equal(t, "/files", filesRoute.URLPath)
	assert.True(t, filesRoute.AllowsMethod(httpx.MethodGET))
	require.NotNil(t, filesRoute.Settings)
	assert.Equal(t, "/files", filesRoute.Settings.RootPath)
	assert.True(t, filesRoute.Settings.ListDirectory)

	cookieRoute := cfg.Routes[1]
	require.NotNil(t, cookieRoute.Handler)
	_, err = cookieRoute.Handler(nil, cfg)
	require.NoError(t, err)
	assert.True(t, called)
}

func TestLoad_UnknownHandler(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleJSON), 0o644))

	_, err := Load(path, map[string]HandlerFunc{})
	assert.Error(t, err)
}

func TestRouteSettings_EffectiveRedirectStatus(t *testing.T) {
	var s *RouteSettings
	assert.Equal(t, httpx.StatusTemporaryRedirect, s.EffectiveRedirectStatus())

	s = &RouteSettings{RedirectStatusCode: 301}
	assert.Equal(t, httpx.StatusCode(301), s.EffectiveRedirectStatus())
}

func TestRoute_AllowedMethodsHeader(t *testing.T) {
	r := Route{Methods: []httpx.Method{httpx.MethodGET, httpx.MethodHEAD, httpx.MethodOPTIONS}}
	assert.Equal(t, "GET, HEAD, OPTIONS", r.AllowedMethodsHeader())
}
