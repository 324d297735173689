package main

import (
	"flag"
	"os"

	"go.uber.org/zap"

	"github.com/indieinfra/cloudshelf/config"
	"github.com/indieinfra/cloudshelf/logging"
	"github.com/indieinfra/cloudshelf/server"
)

func main() {
	configFile := flag.String("config", os.Getenv("CLOUDSHELF_CONFIG"), "Path to an optional configuration file (i.e., /etc/cloudshelf.yml)")
	flag.Parse()

	bootstrap, err := logging.New("info", "json")
	if err != nil {
		os.Exit(1)
	}

	bootstrap.Info("loading configuration...")
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		bootstrap.Errorw("failed to load configuration", "error", err)
		_ = bootstrap.Sync()
		os.Exit(1)
	}

	level := cfg.Log.Level
	if cfg.Debug {
		level = "debug"
	}

	logger, err := logging.New(level, cfg.Log.Format)
	if err != nil {
		bootstrap.Errorw("failed to build logger", "error", err)
		_ = bootstrap.Sync()
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger.Desugar())

	logger.Info("starting http server...")
	if err := server.StartServer(cfg, logger); err != nil {
		logger.Errorw("server exited", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}
