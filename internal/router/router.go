// Package router implements the route resolver: mapping a request URL to
// a configured Route, or to a redirection/error signal.
package router

import (
	"fmt"

	"github.com/bomanviktor/localhost/internal/config"
	"github.com/bomanviktor/localhost/internal/httpx"
)

// RedirectError signals that the resolver matched a redirection entry
// rather than a route to serve directly. The connection handler turns this
// into a redirect response (Location: Location, status: Status).
type RedirectError struct {
	Status   httpx.StatusCode
	Location string
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("router: redirect %d to %s", e.Status, e.Location)
}

// Resolve implements the four-step resolution order:
//  1. exact URL match
//  2. redirection match
//  3. longest-prefix match
//  4. method whitelist
//
// Prefix matching does not require a '/' boundary: "/foo" matches
// "/foobar". See DESIGN.md.
func Resolve(req *httpx.Request, routes []config.Route) (*config.Route, error) {
	path := req.Path()

	// Step 1: exact match.
	for i := range routes {
		if routes[i].URLPath == path {
			return checkMethod(&routes[i], req.Method)
		}
	}

	// Step 2: redirection match.
	for i := range routes {
		r := &routes[i]
		if r.Settings == nil {
			continue
		}
		for _, redirect := range r.Settings.HTTPRedirections {
			if redirect == path {
				return nil, &RedirectError{
					Status:   r.Settings.EffectiveRedirectStatus(),
					Location: r.URLPath,
				}
			}
		}
	}

	// Step 3: longest-prefix match. Ties broken by first declaration order
	// (strict '>' keeps the earliest route at equal length).
	var best *config.Route
	for i := range routes {
		r := &routes[i]
		if len(r.URLPath) == 0 || !hasPrefix(path, r.URLPath) {
			continue
		}
		if best == nil || len(r.URLPath) > len(best.URLPath) {
			best = r
		}
	}
	if best == nil {
		return nil, httpx.NewStatusError(httpx.StatusNotFound)
	}

	return checkMethod(best, req.Method)
}

func hasPrefix(path, prefix string) bool {
	return len(path) >= len(prefix) && path[:len(prefix)] == prefix
}

// Step 4: method whitelist.
func checkMethod(route *config.Route, method httpx.Method) (*config.Route, error) {
	if !route.AllowsMethod(method) {
		return nil, httpx.NewStatusError(httpx.StatusMethodNotAllowed)
	}
	return route, nil
}
