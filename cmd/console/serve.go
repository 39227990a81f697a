package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/maheshrc27/postflow-sync/internal/api"
	job "github.com/maheshrc27/postflow-sync/internal/jobs"
)

var accessLog bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local console with background revalidation",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&accessLog, "access-log", false, "log every console request")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, cleanup, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	log := a.Logger
	log.Info("Starting postflow-sync console", zap.String("version", version), zap.String("api", a.Config.APIBaseURL))

	unmount := a.Mount()
	defer unmount()

	if err := a.Connections.Load(ctx); err != nil {
		log.Warn("Initial connection load incomplete", zap.Error(err))
	}

	revalidate := job.NewRevalidateJob(a.Cache, log.Named("jobs"))
	revalidate.RevalidateAll()

	c := cron.New()
	if _, err := revalidate.Schedule(c); err != nil {
		return err
	}
	c.Start()
	defer c.Stop()

	server := api.NewServer(api.Options{
		SecretKey:   a.Config.SecretKey,
		FrontendURL: a.Config.FrontendURL,
		Location:    a.Location,
		AccessLog:   accessLog,
	}, a.Services(), log.Named("console"))

	go func() {
		if err := server.Listen(a.Config.ConsoleAddr); err != nil {
			log.Error("Console failed to start", zap.Error(err))
			cancel()
		}
	}()
	log.Info("Console is running", zap.String("addr", a.Config.ConsoleAddr))

	gracefulShutdown(ctx, server, log)
	return nil
}

type shutdowner interface {
	Shutdown() error
}

func gracefulShutdown(ctx context.Context, server shutdowner, log *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("Shutting down console...")
	case <-ctx.Done():
		log.Info("Console context cancelled")
	}

	if err := server.Shutdown(); err != nil {
		log.Error("Failed to shut down console", zap.Error(err))
		return
	}
	log.Info("Console shutdown complete.")
}
