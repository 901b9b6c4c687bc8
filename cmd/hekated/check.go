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
)

// runCheck performs a one-shot lookup and prints the result as JSON.
func runCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file (YAML)")
	current := fs.String("current", "", "installed version, enables update detection")
	timeout := fs.Duration("timeout", 2*time.Minute, "overall lookup timeout")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: hekated check [flags] <software>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	software := fs.Arg(0)

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

	eng, err := buildEngine(cfg, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hekated: %v\n", err)
		return 1
	}
	defer eng.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	result, err := eng.finder.FindLatest(ctx, software, *current)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hekated: %v\n", err)
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "hekated: %v\n", err)
		return 1
	}
	return 0
}
