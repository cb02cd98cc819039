package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ContentCurator/internal/app"
	"ContentCurator/internal/config"
	"ContentCurator/internal/domain"
	"ContentCurator/internal/logging"
)

var (
	version = "dev"

	// run command flags
	kindFlag  string
	resetFlag bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "contentcurator",
	Short:        "Curate news, media, social posts and hero images",
	Version:      version,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one curation pass for a content kind",
	Long: `Run one curation pass: fetch every configured source of the kind,
filter and score the items, upsert them and sweep aged low-score content.

Examples:
  contentcurator run --kind news
  contentcurator run --kind hero --reset`,
	RunE: runOnce,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the trigger and content API",
	RunE:  serve,
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run curation on the configured cron schedule and serve the API",
	RunE:  schedule,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE:  migrateDB,
}

func init() {
	runCmd.Flags().StringVar(&kindFlag, "kind", string(domain.KindNews), "content kind: news, media, social or hero")
	runCmd.Flags().BoolVar(&resetFlag, "reset", false, "clear the kind's table before curating")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(migrateCmd)
}

func bootstrap(ctx context.Context) (*app.Application, *slog.Logger, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger := logging.NewWithFormat(cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("application init failed", "error", err)
		return nil, nil, err
	}
	return application, logger, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runOnce(cmd *cobra.Command, _ []string) error {
	kind, err := domain.ParseKind(kindFlag)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	application, logger, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	summary, err := application.RunOnce(ctx, kind, resetFlag)
	if err != nil {
		logger.Error("curation run failed", "kind", kind, "error", err)
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

func serve(_ *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	application, logger, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	if err := application.Serve(ctx); err != nil {
		logger.Error("http server stopped", "error", err)
		return err
	}
	return nil
}

func schedule(_ *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	application, logger, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	if err := application.Schedule(ctx); err != nil {
		logger.Error("scheduler stopped", "error", err)
		return err
	}
	return nil
}

func migrateDB(_ *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	application, _, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	return application.Migrate(ctx)
}
