package main

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	"bnkchallenge/internal/platform/hostbridge"
)

func main() {
	cfg, err := env.ParseAsWithOptions[simConfig](env.Options{Prefix: "HOSTSIM_"})
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:       "hostsim",
		Level:      hclog.Info,
		Output:     os.Stderr,
		JSONFormat: true,
	})
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: hostbridge.HandshakeConfig,
		Plugins:         hostbridge.PluginMap(newHost(cfg, logger)),
		GRPCServer:      plugin.DefaultGRPCServer,
		Logger:          logger,
	})
}
