package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/potml/potgrid/internal/config"
	"github.com/potml/potgrid/internal/dataset"
	"github.com/potml/potgrid/internal/modelio"
	"github.com/potml/potgrid/internal/search"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "potgrid.yaml", "Path to run configuration")
	flag.Parse()

	var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger()

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("run failed")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	structures, err := dataset.LoadFolder(ctx, filepath.Join(cfg.DataDir, "structures"), cfg.NThreads)
	if err != nil {
		return err
	}
	logger.Info().Int("structures", len(structures)).Msg("loaded dataset")

	kfold, test, err := dataset.Split(structures, cfg.TestRatio, cfg.UseForce)
	if err != nil {
		return err
	}
	logger.Info().
		Int("kfold", kfold.NStructures()).
		Int("test", test.NStructures()).
		Msg("split pools")

	result, err := search.TrainAndEval(ctx, cfg, logger, kfold, test)
	if err != nil {
		return err
	}
	logger.Info().Str("params", result.Params.String()).Msg("training finished")

	return modelio.Save(result.Model, filepath.Join(cfg.ModelDir, "model.json"))
}
