// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devKaos117/hekate/internal/config"
	"github.com/devKaos117/hekate/internal/log"
	"github.com/devKaos117/hekate/internal/report"
)

// runReport checks every piece of software in an inventory file and writes a
// JSON report.
func runReport(args []string) int {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file (YAML)")
	inventoryPath := fs.String("inventory", "software.yaml", "path to software inventory (YAML)")
	outputPath := fs.String("output", "", "report file; empty writes to stdout")
	timeout := fs.Duration("timeout", 30*time.Minute, "overall batch timeout")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: hekated report [flags]\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)

	log.Configure(log.Config{
		Level:   "warn",
		Output:  os.Stderr,
		Service: "hekate",
		Version: version,
	})

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hekated: %v\n", err)
		return 1
	}
	log.SetLevel(cfg.LogLevel)

	inv, err := report.LoadInventory(*inventoryPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hekated: %v\n", err)
		return 1
	}

	eng, err := buildEngine(cfg, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hekated: %v\n", err)
		return 1
	}
	defer eng.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	runner := report.NewRunner(eng.finder, log.Base())
	rep, err := runner.Run(ctx, inv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hekated: %v\n", err)
		return 1
	}

	if *outputPath != "" {
		if err := rep.Write(*outputPath); err != nil {
			fmt.Fprintf(os.Stderr, "hekated: %v\n", err)
			return 1
		}
		fmt.Fprintf(os.Stderr, "report written to %s (%d checked, %d updates, %d failures)\n",
			*outputPath, rep.Checked, rep.UpdatesFound, rep.Failures)
	} else {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			fmt.Fprintf(os.Stderr, "hekated: %v\n", err)
			return 1
		}
	}

	if rep.Failures > 0 {
		return 1
	}
	return 0
}
