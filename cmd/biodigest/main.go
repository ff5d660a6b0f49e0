package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"BioDigest/internal/app"
	"BioDigest/internal/config"
	"BioDigest/internal/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.File)

	application := app.New(cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := ""
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "run":
		periodArg := "auto"
		if len(os.Args) > 2 {
			periodArg = os.Args[2]
		}
		if err := application.RunOnce(ctx, periodArg); err != nil {
			logger.Error("run failed", "error", err)
			os.Exit(1)
		}

	case "test":
		logger.Info("test mode: generating one digest immediately")
		if err := application.RunOnce(ctx, "auto"); err != nil {
			logger.Error("test run failed", "error", err)
			os.Exit(1)
		}

	case "status":
		application.PrintStatus()

	case "":
		if err := application.Serve(ctx); err != nil {
			logger.Error("service stopped", "error", err)
			os.Exit(1)
		}

	default:
		fmt.Printf("unknown command: %s\n\n", command)
		fmt.Println("usage:")
		fmt.Println("  biodigest              start the scheduled service")
		fmt.Println("  biodigest run [am|pm]  run one digest now")
		fmt.Println("  biodigest test         alias for an immediate run")
		fmt.Println("  biodigest status       print the run-state snapshot")
		os.Exit(1)
	}
}
