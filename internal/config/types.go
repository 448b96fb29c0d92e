// Package config holds the immutable, shared-by-reference configuration
// the core consumes: ServerConfig, Route, and RouteSettings, plus the
// loader that builds them from a JSON or TOML file on disk.
package config

import "github.com/bomanviktor/localhost/internal/httpx"

// HandlerFunc fully replaces the method dispatcher for the Route it is
// attached to.
type HandlerFunc func(req *httpx.Request, cfg *ServerConfig) (*httpx.Response, error)

// CGILang is an enumerated CGI language tag. Only JS/PHP/Python/Ruby ship
// with a default command mapping (internal/cgi.commandFor); the remaining
// tags are named so a config referencing them parses cleanly.
type CGILang string

const (
	CGIAda         CGILang = "ada"
	CGIC           CGILang = "c"
	CGICSharp      CGILang = "csharp"
	CGICpp         CGILang = "cpp"
	CGID           CGILang = "d"
	CGIErlang      CGILang = "erlang"
	CGIFortran     CGILang = "fortran"
	CGIGo          CGILang = "go"
	CGIGroovy      CGILang = "groovy"
	CGIHaskell     CGILang = "haskell"
	CGIJava        CGILang = "java"
	CGIJavaScript  CGILang = "javascript"
	CGIJulia       CGILang = "julia"
	CGIKotlin      CGILang = "kotlin"
	CGILua         CGILang = "lua"
	CGINim         CGILang = "nim"
	CGIObjectiveC  CGILang = "objective-c"
	CGIOCaml       CGILang = "ocaml"
	CGIPascal      CGILang = "pascal"
	CGIPerl        CGILang = "perl"
	CGIPHP         CGILang = "php"
	CGIPython      CGILang = "python"
	CGIR           CGILang = "r"
	CGIRuby        CGILang = "ruby"
	CGIRust        CGILang = "rust"
	CGIScala       CGILang = "scala"
	CGIShell       CGILang = "shell"
	CGISwift       CGILang = "swift"
	CGITypeScript  CGILang = "typescript"
	CGIZig         CGILang = "zig"
)

// RouteSettings is a Route's optional handling configuration.
type RouteSettings struct {
	// HTTPRedirections lists alternate URLs that redirect to the owning
	// Route's URLPath.
	HTTPRedirections []string `json:"http_redirections,omitempty" toml:"http_redirections,omitempty" mapstructure:"http_redirections"`

	// RedirectStatusCode is the 3xx status used for a redirection match.
	// Zero means "use the default", StatusTemporaryRedirect (307).
	RedirectStatusCode httpx.StatusCode `json:"redirect_status_code,omitempty" toml:"redirect_status_code,omitempty" mapstructure:"redirect_status_code"`

	// RootPath is prepended to URL paths when resolving files:
	// resolved = "." + RootPath + url.
	RootPath string `json:"root_path,omitempty" toml:"root_path,omitempty" mapstructure:"root_path"`

	// DefaultIfURLIsDir is appended to the URL when the resolved
	// filesystem target is a directory and a default file should be
	// served instead of a directory listing.
	DefaultIfURLIsDir string `json:"default_if_url_is_dir,omitempty" toml:"default_if_url_is_dir,omitempty" mapstructure:"default_if_url_is_dir"`

	// CGIDef maps a file extension (without the dot) to a CGI language
	// tag.
	CGIDef map[string]CGILang `json:"cgi_def,omitempty" toml:"cgi_def,omitempty" mapstructure:"cgi_def"`

	// ListDirectory, if true, serves an HTML index when the resolved
	// path is a directory and DefaultIfURLIsDir is unset.
	ListDirectory bool `json:"list_directory,omitempty" toml:"list_directory,omitempty" mapstructure:"list_directory"`
}

// EffectiveRedirectStatus returns RedirectStatusCode, defaulting to 307.
func (s *RouteSettings) EffectiveRedirectStatus() httpx.StatusCode {
	if s == nil || s.RedirectStatusCode == 0 {
		return httpx.StatusTemporaryRedirect
	}
	return s.RedirectStatusCode
}

// Route is a configured mapping from a URL pattern to handling
// semantics.
type Route struct {
	URLPath  string         `json:"url_path" toml:"url_path"`
	Methods  []httpx.Method `json:"methods" toml:"methods"`
	Handler  HandlerFunc    `json:"-" toml:"-"`
	Settings *RouteSettings `json:"settings,omitempty" toml:"settings,omitempty"`
}

// AllowsMethod reports whether m is in Methods.
func (r *Route) AllowsMethod(m httpx.Method) bool {
	for _, allowed := range r.Methods {
		if allowed == m {
			return true
		}
	}
	return false
}

// AllowedMethodsHeader renders Methods as a comma-separated list suitable
// for an Allow header.
func (r *Route) AllowedMethodsHeader() string {
	out := ""
	for i, m := range r.Methods {
		if i > 0 {
			out += ", "
		}
		out += string(m)
	}
	return out
}

// ServerConfig is immutable after construction and shared by reference
// across every connection of the same server.
type ServerConfig struct {
	Host            string  `json:"host" toml:"host"`
	Ports           []int   `json:"ports" toml:"ports"`
	CustomErrorPath string  `json:"custom_error_path,omitempty" toml:"custom_error_path,omitempty"`
	BodySizeLimit   int     `json:"body_size_limit" toml:"body_size_limit"`
	Routes          []Route `json:"routes" toml:"routes"`
}

// Server is the per-server grouping the reactor is handed; binding the
// configured ports is the reactor's job (internal/reactor).
type Server struct {
	Config *ServerConfig
}
