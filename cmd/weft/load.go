package main

import (
	"go.uber.org/zap"

	"github.com/jedharris/weft/internal/config"
	"github.com/jedharris/weft/internal/engine"
	"github.com/jedharris/weft/internal/observability"
)

// loadEngine runs the full load pipeline for a subcommand: config, logger,
// engine. The caller owns the returned engine and must Close it.
func loadEngine() (*engine.Engine, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	eng, err := engine.New(cfg, logger)
	if err != nil {
		return nil, logger, err
	}
	return eng, logger, nil
}
