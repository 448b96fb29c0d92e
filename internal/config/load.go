package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/mapstructure"
)

// fileDocument is the on-disk shape of a config file: a list of servers,
// each with its own host/ports/routes. A Route's `handler` field is a
// string naming an entry in the HandlerFunc registry passed to Load/LoadTOML
// — a Route's handler is a function pointer, and config files can't carry
// code, only the name of code to look up.
type fileDocument struct {
	Servers []rawServerConfig `json:"servers" toml:"servers"`
}

type rawServerConfig struct {
	Host            string     `json:"host" toml:"host"`
	Ports           []int      `json:"ports" toml:"ports"`
	CustomErrorPath string     `json:"custom_error_path" toml:"custom_error_path"`
	BodySizeLimit   int        `json:"body_size_limit" toml:"body_size_limit"`
	Routes          []rawRoute `json:"routes" toml:"routes"`
}

type rawRoute struct {
	URLPath  string                 `json:"url_path" toml:"url_path"`
	Methods  []string               `json:"methods" toml:"methods"`
	Handler  string                 `json:"handler" toml:"handler"`
	Settings map[string]interface{} `json:"settings" toml:"settings"`
}

// Load reads a JSON config file at path and builds its ServerConfigs,
// resolving each route's `handler` name against the registry.
func Load(path string, registry map[string]HandlerFunc) ([]*ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return build(doc, registry)
}

// LoadTOML reads a TOML config file, for deployments that prefer it over
// JSON (the same schema either way).
func LoadTOML(path string, registry map[string]HandlerFunc) ([]*ServerConfig, error) {
	var doc fileDocument
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return build(doc, registry)
}

func build(doc fileDocument, registry map[string]HandlerFunc) ([]*ServerConfig, error) {
	configs := make([]*ServerConfig, 0, len(doc.Servers))
	for _, raw := range doc.Servers {
		cfg := &ServerConfig{
			Host:            raw.Host,
			Ports:           raw.Ports,
			CustomErrorPath: raw.CustomErrorPath,
			BodySizeLimit:   raw.BodySizeLimit,
		}
		for _, rr := range raw.Routes {
			route, err := buildRoute(rr, registry)
			if err != nil {
				return nil, fmt.Errorf("config: route %q: %w", rr.URLPath, err)
			}
			cfg.Routes = append(cfg.Routes, route)
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

func buildRoute(rr rawRoute, registry map[string]HandlerFunc) (Route, error) {
	route := Route{URLPath: rr.URLPath}

	for _, m := range rr.Methods {
		route.Methods = append(route.Methods, methodFromString(m))
	}

	if rr.Handler != "" {
		h, ok := registry[rr.Handler]
		if !ok {
			return Route{}, fmt.Errorf("unknown handler %q", rr.Handler)
		}
		route.Handler = h
	}

	if len(rr.Settings) > 0 {
		var settings RouteSettings
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &settings,
		})
		if err != nil {
			return Route{}, err
		}
		if err := decoder.Decode(rr.Settings); err != nil {
			return Route{}, fmt.Errorf("decoding settings: %w", err)
		}
		route.Settings = &settings
	}

	return route, nil
}
