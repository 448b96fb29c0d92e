// Command localhost starts the HTTP server described by a JSON or TOML
// config file: build every configured server, then run the reactor's
// poll/handle loop until interrupted.
package main

import (
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/bomanviktor/localhost/internal/config"
	"github.com/bomanviktor/localhost/internal/handlers"
	"github.com/bomanviktor/localhost/internal/reactor"
	"github.com/bomanviktor/localhost/internal/weblog"
)

func main() {
	configPath := flag.String("config", "config.json", "path to a JSON or TOML server config file")
	flag.Parse()

	registry := map[string]config.HandlerFunc{
		"cookie.update":   handlers.UpdateCookie,
		"cookie.validate": handlers.ValidateCookie,
	}

	configs, err := loadConfig(*configPath, registry)
	if err != nil {
		weblog.Servers.Errorf("config: %v", err)
		os.Exit(1)
	}
	if len(configs) == 0 {
		weblog.Servers.Errorf("no servers configured, exiting")
		os.Exit(1)
	}

	var servers []*config.Server
	for _, c := range configs {
		if len(c.Ports) == 0 {
			weblog.Servers.Warnf("no ports specified for host %s, skipping", c.Host)
			continue
		}
		servers = append(servers, &config.Server{Config: c})
	}
	if len(servers) == 0 {
		weblog.Servers.Errorf("no server had a usable port, exiting")
		os.Exit(1)
	}

	r, err := reactor.New(servers, weblog.Servers)
	if err != nil {
		weblog.Servers.Errorf("reactor: %v", err)
		os.Exit(1)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		weblog.Servers.Infof("shutting down")
		r.Stop()
	}()

	for _, c := range configs {
		weblog.Servers.Infof("server listening on %s, ports %v", c.Host, c.Ports)
	}
	if err := r.Run(); err != nil {
		weblog.Servers.Errorf("reactor exited: %v", err)
		os.Exit(1)
	}
}

func loadConfig(path string, registry map[string]config.HandlerFunc) ([]*config.ServerConfig, error) {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return config.LoadTOML(path, registry)
	}
	return config.Load(path, registry)
}
