package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sozercan/episode-finder/internal/analyzer"
	"github.com/sozercan/episode-finder/internal/catalog"
	"github.com/sozercan/episode-finder/internal/config"
	"github.com/sozercan/episode-finder/internal/finder"
	"github.com/sozercan/episode-finder/internal/llm"
	"github.com/sozercan/episode-finder/internal/questions"
	"github.com/sozercan/episode-finder/internal/quota"
	"github.com/sozercan/episode-finder/internal/server"
	"github.com/sozercan/episode-finder/internal/session"
)

var (
	configFile string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "episode-finder",
	Short: "Work out where you stopped watching a TV series",
	Long: `episode-finder asks a handful of yes/no questions about a show and
infers the last season and episode you watched.

Run without a subcommand to start the HTTP service.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		setupLogging(c.Log, os.Stderr)
		cfg = c
		return nil
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service",
	RunE:  runServe,
}

var askCmd = &cobra.Command{
	Use:   "ask [show]",
	Short: "Answer questions about a show in the terminal",
	Long: `Runs one session interactively. Answer each question with y, n or s
(not sure), optionally followed by +text to add detail. Enter b to go back
to the previous question and q to quit.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAskCmd,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config file")
	rootCmd.AddCommand(serveCmd, askCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging(c config.LogConfig, w io.Writer) {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	var handler slog.Handler
	if strings.EqualFold(c.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// buildService wires the provider, quota ledger and catalog into a
// finder.Service. The returned store must be closed by the caller.
func buildService(ctx context.Context, cfg *config.Config) (*finder.Service, quota.Store, error) {
	provider, err := llm.New(ctx, &cfg.LLM)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}

	store, err := quota.Open(ctx, cfg.Quota)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open quota store: %w", err)
	}

	shows, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	ledger := quota.NewLedger(store, cfg.Quota.DailyLimit)
	svc := finder.New(shows, ledger, questions.New(provider), analyzer.New(provider))
	return svc, store, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	svc, store, err := buildService(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := server.New(*cfg, svc, session.NewStore(cfg.Session.IdleTimeout))
	slog.Info("starting server", "host", cfg.Server.Host, "port", cfg.Server.Port, "provider", cfg.LLM.Provider)
	return srv.Run()
}

func runAskCmd(cmd *cobra.Command, args []string) error {
	svc, store, err := buildService(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var show string
	if len(args) == 1 {
		show = args[0]
	}
	return runAsk(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), svc, show)
}
