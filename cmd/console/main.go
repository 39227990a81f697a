package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	config "github.com/maheshrc27/postflow-sync/configs"
	"github.com/maheshrc27/postflow-sync/internal/app"
	"github.com/maheshrc27/postflow-sync/pkg/logger"
)

var (
	envFile   string
	version   = "0.1.0"
	gitCommit = "unknown"
	buildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:           "postflow-sync",
	Short:         "PostFlow sync client and local console",
	Long:          `postflow-sync keeps a local view of a PostFlow account in sync with the API and drives the approval, generation and connection workflows.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("postflow-sync %s\n", version)
		fmt.Printf("Git commit: %s\n", gitCommit)
		fmt.Printf("Build time: %s\n", buildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&envFile, "env", "e", ".env", "dotenv file to load before reading the environment")
	rootCmd.AddCommand(versionCmd)
}

// bootstrap loads configuration, builds the logger and wires the client.
func bootstrap(ctx context.Context) (*app.App, func(), error) {
	envErr := godotenv.Load(envFile)

	cfg := config.LoadConfig()

	appLogger, err := logger.NewLogger(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		appLogger.Warn("Failed to load environment file", zap.String("path", envFile), zap.Error(envErr))
	}

	a, err := app.New(ctx, cfg, appLogger, nil)
	if err != nil {
		_ = appLogger.Sync()
		return nil, nil, fmt.Errorf("failed to initialize client: %w", err)
	}

	cleanup := func() {
		a.Close()
		_ = appLogger.Sync()
	}
	return a, cleanup, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
