// Package handlers holds the demonstration route handlers UpdateCookie
// and ValidateCookie. They exercise the Response API as route handlers;
// they are not a real authentication layer.
package handlers

import (
	"strings"

	"github.com/bomanviktor/localhost/internal/config"
	"github.com/bomanviktor/localhost/internal/httpx"
)

const (
	cookieMatch         = "grit:lab"
	cookieSetHeader     = "grit:lab=cookie; path=/; Max-Age=3600"
	cookieClearedHeader = "grit:lab=cookie; path=/; Max-Age=0"
)

// UpdateCookie sets the demo session cookie, or clears it if the inbound
// request already carried one.
func UpdateCookie(req *httpx.Request, cfg *config.ServerConfig) (*httpx.Response, error) {
	resp := httpx.NewResponse(req.Version, httpx.StatusOK)
	if hasCookie(req) {
		resp.Header.Set("set-cookie", cookieClearedHeader)
	} else {
		resp.Header.Set("set-cookie", cookieSetHeader)
	}
	return resp, nil
}

// ValidateCookie returns 401 if the expected cookie is absent, 200 with the
// cookie echoed back otherwise.
func ValidateCookie(req *httpx.Request, cfg *config.ServerConfig) (*httpx.Response, error) {
	if !hasCookie(req) {
		return nil, httpx.NewStatusError(httpx.StatusUnauthorized)
	}
	resp := httpx.NewResponse(req.Version, httpx.StatusOK)
	resp.Header.Set("cookie", req.Header.Get("cookie"))
	return resp, nil
}

// hasCookie applies a loose substring match: present if any Cookie header
// value contains "grit:lab", not an exact value comparison.
func hasCookie(req *httpx.Request) bool {
	for _, v := range req.Header.Values("cookie") {
		if strings.Contains(strings.ToLower(v), cookieMatch) {
			return true
		}
	}
	return false
}
