// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

// Command braid-trustee runs one trustee process against a board
// server: it loads a TrusteeConfig, dials the board, and blocks
// running the session loop (spec.md §4.5, §6).
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sequentech/braid/action"
	"github.com/sequentech/braid/board"
	"github.com/sequentech/braid/config"
	"github.com/sequentech/braid/log"
	"github.com/sequentech/braid/metrics"
	"github.com/sequentech/braid/session"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	configPath := flag.String("config", "trustee.yaml", "path to the trustee's YAML boot configuration")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	logger, err := log.New(*logLevel)
	if err != nil {
		logger = log.NewDevelopment()
		logger.Warn("falling back to development logger", "error", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("loading configuration", "path", *configPath, "error", err)
		os.Exit(1)
	}

	signingKeyBytes, err := hex.DecodeString(cfg.SigningKeyHex)
	if err != nil {
		logger.Error("decoding signing key", "error", err)
		os.Exit(1)
	}
	symmetricKey, err := cfg.SymmetricKey()
	if err != nil {
		logger.Error("decoding symmetric key", "error", err)
		os.Exit(1)
	}

	var cache action.Cache
	if cfg.PersistDir != "" {
		fc, err := action.NewFileCache(cfg.PersistDir)
		if err != nil {
			logger.Error("creating persistence directory", "error", err)
			os.Exit(1)
		}
		cache = fc
	} else {
		cache = action.NewMemoryCache()
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	client := board.NewHTTPClient(cfg.BoardURL, cfg.Timeout.Duration())

	loop := &session.Loop{
		Board:           client,
		SigningKeyBytes: signingKeyBytes,
		SymmetricKey:    symmetricKey,
		Cache:           cache,
		Log:             logger.With("display_name", cfg.DisplayName),
		Metrics:         m,
		PollInterval:    cfg.PollInterval.Duration(),
		Strict:          cfg.Strict,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := loop.Run(ctx); err != nil {
		logger.Error("session loop exited with error", "error", err)
		os.Exit(1)
	}
}
