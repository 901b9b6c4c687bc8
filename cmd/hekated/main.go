// SPDX-License-Identifier: MIT

// Command hekated finds the latest released versions of software from public
// web sources. It runs as an HTTP daemon by default; the check and report
// subcommands perform one-shot lookups from the command line.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/devKaos117/hekate/internal/config"
	"github.com/devKaos117/hekate/internal/log"
)

var (
	version   = "v1.0.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "check":
			os.Exit(runCheck(os.Args[2:]))
		case "report":
			os.Exit(runReport(os.Args[2:]))
		}
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// Safe defaults until the configured level is known.
	log.Configure(log.Config{
		Level:   "info",
		Service: "hekate",
		Version: version,
	})
	logger := log.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", *configPath).
			Msg("failed to load configuration")
	}

	log.SetLevel(cfg.LogLevel)

	if *configPath != "" {
		logger.Info().
			Str("event", "config.loaded").
			Str("source", "file").
			Str("path", *configPath).
			Msg("loaded configuration from file")
	}

	if err := runDaemon(ctx, cfg, logger); err != nil && ctx.Err() == nil {
		logger.Fatal().Err(err).Msg("daemon failed")
	}
}
