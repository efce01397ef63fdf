package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/sickboy81/saphira/internal/app/cliapp"
	"github.com/sickboy81/saphira/internal/config"
	"github.com/sickboy81/saphira/internal/infra/logger"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("APP_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, "console")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := cliapp.New(cfg, log, os.Stdout)
	err = cliapp.NewRootCommand(app).ExecuteContext(ctx)
	app.Close()
	if err != nil {
		stop()
		_ = log.Sync()
		os.Exit(1)
	}
}
