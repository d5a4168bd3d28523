package main

import (
	"flag"
	"os"

	"github.com/leshachaplin/nomad/app"
	"github.com/leshachaplin/nomad/internal/config"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", os.Getenv("NOMAD_CONFIG"), "path to a config file (optional)")
	flag.Parse()

	app.New(func() (config.Config, error) {
		return config.Load(configPath)
	}).Start()
}
