package config

import (
	"strings"

	"github.com/bomanviktor/localhost/internal/httpx"
)

// methodFromString uppercases s and returns it as an httpx.Method. Config
// files are trusted input (same trust boundary as the route table itself),
// so an unrecognized method string is kept as-is rather than rejected —
// AllowsMethod will simply never match it, which is an inert misconfiguration
// rather than one worth failing startup over.
func methodFromString(s string) httpx.Method {
	return httpx.Method(strings.ToUpper(strings.TrimSpace(s)))
}
