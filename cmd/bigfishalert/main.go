package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/liamashdown/bigfishalert/internal/alerts"
	"github.com/liamashdown/bigfishalert/internal/api"
	"github.com/liamashdown/bigfishalert/internal/config"
	"github.com/liamashdown/bigfishalert/internal/dexscreener"
	"github.com/liamashdown/bigfishalert/internal/explain"
	"github.com/liamashdown/bigfishalert/internal/helius"
	"github.com/liamashdown/bigfishalert/internal/monitor"
	"github.com/liamashdown/bigfishalert/internal/rugcheck"
	"github.com/liamashdown/bigfishalert/internal/scanner"
	"github.com/liamashdown/bigfishalert/internal/secrets"
	"github.com/liamashdown/bigfishalert/internal/solana"
	"github.com/liamashdown/bigfishalert/internal/storage"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "bigfishalert",
		Short:        "Solana whale risk scanner",
		SilenceUsage: true,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(scanCmd())
	root.AddCommand(oceanCmd())
	root.AddCommand(bigFishCmd())

	return root
}

// app holds the wired components shared by every command
type app struct {
	cfg       *config.Config
	log       *logrus.Logger
	db        *storage.DB // nil when storage is disabled
	explainer *explain.Explainer
	scanner   *scanner.Scanner
}

func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stderr)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		log.WithField("log_level", level).Warn("Unknown log level, using info")
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

func setup() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	log := newLogger(cfg.LogLevel)
	log.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"storage":     cfg.StorageEnabled(),
		"helius_key":  secrets.Redact(cfg.HeliusAPIKey),
		"openai_key":  secrets.Redact(cfg.OpenAIAPIKey),
		"alert_mode":  cfg.AlertMode,
	}).Info("Configuration loaded")

	a := &app{cfg: cfg, log: log}

	if cfg.StorageEnabled() {
		db, err := storage.New(cfg, log)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		if err := db.AutoMigrate(); err != nil {
			db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		log.Info("Database migrations complete")
		a.db = db
	}

	a.explainer = explain.New(cfg, log)

	deps := scanner.Deps{
		Chain:     solana.NewClient(cfg, log),
		Market:    dexscreener.NewClient(cfg, log),
		Security:  rugcheck.NewClient(cfg, log),
		Swaps:     helius.NewClient(cfg, log),
		Explainer: a.explainer,
	}
	if a.db != nil {
		deps.Store = a.db
	}

	a.scanner = scanner.New(deps, scanner.Options{
		TopHolders:     cfg.TopHoldersLimit,
		OceanWorkers:   cfg.OceanScanWorkers,
		OceanMaxTokens: cfg.OceanMaxTokens,
		Language:       cfg.ExplainLanguage,
	}, log)

	return a, nil
}

func (a *app) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close database")
		}
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the watchlist monitor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()
			return a.serve()
		},
	}
}

func (a *app) serve() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	deps := api.Deps{
		Scanner:   a.scanner,
		Explainer: a.explainer,
	}
	if a.db != nil {
		deps.History = a.db
		deps.Pinger = a.db
	}
	server := api.NewServer(a.cfg.HTTPPort, deps, a.log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	monitorDone := make(chan struct{})
	if err := a.startMonitor(ctx, monitorDone); err != nil {
		cancel()
		return err
	}

	select {
	case err := <-errCh:
		cancel()
		<-monitorDone
		return err
	case <-ctx.Done():
		a.log.Info("Received shutdown signal")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.log.WithError(err).Error("HTTP server shutdown failed")
	}
	<-monitorDone

	a.log.Info("Graceful shutdown complete")
	return nil
}

// startMonitor runs the watchlist monitor when a watchlist is configured.
// done is closed once the monitor has stopped.
func (a *app) startMonitor(ctx context.Context, done chan struct{}) error {
	if a.cfg.WatchlistFile == "" {
		a.log.Info("No WATCHLIST_FILE configured, monitor disabled")
		close(done)
		return nil
	}

	entries, err := config.LoadWatchlist(a.cfg.WatchlistFile)
	if err != nil {
		close(done)
		return err
	}

	sender, channels, err := alerts.FromConfig(a.cfg, a.log)
	if err != nil {
		close(done)
		return err
	}

	var store monitor.Store
	if a.db != nil {
		store = a.db
	}

	var explainer scanner.Explainer
	if a.explainer.Enabled() {
		explainer = a.explainer
	}

	m := monitor.New(a.scanner, explainer, store, sender, entries, monitor.OptionsFromConfig(a.cfg, channels), a.log)
	go func() {
		defer close(done)
		m.Run(ctx)
	}()
	return nil
}

func scanCmd() *cobra.Command {
	var withExplain bool
	var language string

	cmd := &cobra.Command{
		Use:   "scan <mint>",
		Short: "Score a single token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			analysis, err := a.scanner.ScanToken(cmd.Context(), args[0], scanner.ScanOptions{
				Explain:  withExplain,
				Language: language,
				Origin:   scanner.OriginCLI,
			})
			if err != nil {
				return err
			}
			return printJSON(analysis)
		},
	}
	cmd.Flags().BoolVar(&withExplain, "explain", false, "include a natural-language explanation")
	cmd.Flags().StringVar(&language, "language", "", "explanation language (en or id)")
	return cmd
}

func oceanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ocean <wallet>",
		Short: "Score every token held by a wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			report, err := a.scanner.ScanWallet(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(report)
		},
	}
}

func bigFishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "big-fish <mint>",
		Short: "List recent whale-sized swaps for a token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			moves, err := a.scanner.BigFishActivity(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(moves)
		},
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
