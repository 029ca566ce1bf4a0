package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"IntelliMarket/internal/di"
	"IntelliMarket/internal/usecase"
	"IntelliMarket/pkg/config"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, formatError(err))
		stop()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "intellimarket",
	Short: "IntelliMarket - AI market analysis client",
	Long: `IntelliMarket talks to the analysis backend and renders its reports.

Examples:
  intellimarket analyze AAPL                      # Quick analysis
  intellimarket analyze NVDA -t comprehensive     # Comprehensive analysis
  intellimarket compare AAPL,MSFT,GOOGL           # Side by side comparison
  intellimarket research "AI chip demand"         # Market research
  intellimarket query "Which banks look cheap?"   # Free-form question
  intellimarket serve                             # Local web display`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Flags shared by every command
var (
	flagConfig string
	flagWidth  int
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "config/config.yaml", "Config file path")
	rootCmd.PersistentFlags().IntVarP(&flagWidth, "width", "w", 100, "Wrap width for rendered reports (0 disables)")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(researchCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(pdfCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(serveCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// session is a wired controller with a progress bar on stderr.
type session struct {
	ctrl    *usecase.Controller
	bar     *progressBar
	cleanup func()
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	ctrl, cleanup, err := di.InitializeController(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	bar := newProgressBar(cmd.ErrOrStderr())
	ctrl.Progress().SetListener(bar.update)
	return &session{ctrl: ctrl, bar: bar, cleanup: cleanup}, nil
}

// quiet detaches the progress bar so results print on a clean line.
func (s *session) quiet() {
	s.ctrl.Progress().SetListener(nil)
	s.bar.clear()
}

func (s *session) Close() {
	s.quiet()
	s.cleanup()
}
