package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"IntelliMarket/internal/di"
	"IntelliMarket/internal/domain/models"
	"IntelliMarket/internal/service/filter"
	"IntelliMarket/internal/usecase"
	xhttp "IntelliMarket/pkg/http"

	"github.com/spf13/cobra"
)

// Flags for analysis commands
var (
	flagDepth  string
	flagAsync  bool
	flagSaveMD bool
	flagPDF    bool
	flagFilter string
	flagOutDir string
)

// Flags for pdf, history and serve
var (
	pdfTitle     string
	historyClear bool
	servePort    int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <symbol>",
	Short: "Analyze a single stock",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

var compareCmd = &cobra.Command{
	Use:   "compare <symbols>",
	Short: "Compare 2-5 stocks (comma or space separated)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		symbols := xhttp.ParseSymbolList(strings.Join(args, ","))
		return runAnalysis(cmd, func(s *session) (*usecase.ResultView, error) {
			return s.ctrl.CompareStocks(cmd.Context(), symbols)
		})
	},
}

var researchCmd = &cobra.Command{
	Use:   "research <topic>",
	Short: "Research a market topic",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topic := strings.Join(args, " ")
		return runAnalysis(cmd, func(s *session) (*usecase.ResultView, error) {
			return s.ctrl.MarketResearch(cmd.Context(), topic)
		})
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Ask a free-form question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		return runAnalysis(cmd, func(s *session) (*usecase.ResultView, error) {
			return s.ctrl.CustomQuery(cmd.Context(), query)
		})
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <symbol>",
	Short: "Look up a ticker symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		symbol := xhttp.NormalizeSymbol(args[0])
		v, err := s.ctrl.ValidateSymbol(cmd.Context(), symbol)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), formatValidation(v, symbol))
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <task-id>",
	Short: "Show the state of an async analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		status, err := s.ctrl.TaskStatus(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s%s\n", labelStyle.Render("Status"), status.Status)
		fmt.Fprintf(out, "%s%d%%\n", labelStyle.Render("Progress"), status.Progress)
		if status.Symbol != "" {
			fmt.Fprintf(out, "%s%s\n", labelStyle.Render("Symbol"), status.Symbol)
		}
		if status.Error != "" {
			fmt.Fprintf(out, "%s%s\n", labelStyle.Render("Error"), status.Error)
		}
		return nil
	},
}

var pdfCmd = &cobra.Command{
	Use:   "pdf <markdown-file>",
	Short: "Convert a saved report to PDF on the backend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read report: %w", err)
		}
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		path, err := downloadPDF(cmd, s, string(content), pdfTitle)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", path)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List or clear recent analyses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if historyClear {
			if err := s.ctrl.ClearRecent(cmd.Context()); err != nil {
				return fmt.Errorf("failed to clear history: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "History cleared")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), formatRecent(s.ctrl.Recent(cmd.Context())))
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the backend and show system info",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		out := cmd.OutOrStdout()
		health, err := s.ctrl.Health(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s%s\n", labelStyle.Render("Health"), health.Status)

		info, err := s.ctrl.SystemInfo(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s%s %s\n", labelStyle.Render("Service"), info.Service, info.Version)
		fmt.Fprintf(out, "%s%s\n", labelStyle.Render("Status"), info.Status)
		for _, f := range info.Features {
			fmt.Fprintf(out, "  - %s\n", f)
		}
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web display",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if servePort > 0 {
			cfg.Server.Port = servePort
		}
		app, cleanup, err := di.InitializeApp(cfg)
		if err != nil {
			return fmt.Errorf("app initialization failed: %w", err)
		}
		defer cleanup()
		return app.Run(cmd.Context())
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&flagDepth, "type", "t", string(models.DepthQuick), "Analysis depth (quick/comprehensive)")
	analyzeCmd.Flags().BoolVar(&flagAsync, "async", false, "Run on the backend task queue and poll for the result")
	analyzeCmd.Flags().BoolVar(&flagPDF, "pdf", false, "Also download the report as PDF")

	for _, c := range []*cobra.Command{analyzeCmd, compareCmd, researchCmd, queryCmd} {
		c.Flags().BoolVar(&flagSaveMD, "save-md", false, "Save the primary report as Markdown")
		c.Flags().StringVarP(&flagFilter, "filter", "f", "", "JMESPath expression applied to the raw result")
	}
	for _, c := range []*cobra.Command{analyzeCmd, compareCmd, researchCmd, queryCmd, pdfCmd} {
		c.Flags().StringVarP(&flagOutDir, "out", "o", ".", "Directory for saved reports")
	}

	pdfCmd.Flags().StringVar(&pdfTitle, "title", "", "PDF title (default \"Analysis Report\")")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "Clear the recent history")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Listen port (overrides server.port)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	symbol := args[0]
	depth := models.Depth(flagDepth)
	return runAnalysis(cmd, func(s *session) (*usecase.ResultView, error) {
		if !flagAsync {
			return s.ctrl.AnalyzeStock(cmd.Context(), symbol, depth)
		}
		handle, err := s.ctrl.AnalyzeStockAsync(cmd.Context(), symbol, depth)
		if err != nil {
			return nil, err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), dimStyle.Render("task "+handle.TaskID))
		return s.ctrl.WaitForTask(cmd.Context(), handle.TaskID, symbol, depth)
	})
}

// runAnalysis runs one analysis with a progress bar and prints or saves the
// outcome according to the shared flags.
func runAnalysis(cmd *cobra.Command, call func(*session) (*usecase.ResultView, error)) error {
	if flagFilter != "" && !filter.IsValidJMESPath(flagFilter) {
		return fmt.Errorf("invalid --filter expression: %q", flagFilter)
	}
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	view, err := call(s)
	s.quiet()
	if err != nil {
		return err
	}

	if err := writeResult(cmd.OutOrStdout(), view.Result, flagFilter, flagWidth); err != nil {
		return err
	}

	if flagSaveMD {
		if err := os.MkdirAll(flagOutDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
		path, err := usecase.SaveMarkdown(flagOutDir, view.Result, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), okStyle.Render("Saved ")+path)
	}

	if flagPDF {
		title := fmt.Sprintf("%s Analysis Report", view.Result.Subject)
		path, err := downloadPDF(cmd, s, usecase.ReportMarkdown(view.Result), title)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), okStyle.Render("Saved ")+path)
	}
	return nil
}

func downloadPDF(cmd *cobra.Command, s *session, content, title string) (string, error) {
	doc, err := s.ctrl.DownloadPDF(cmd.Context(), content, title)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(flagOutDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	path := filepath.Join(flagOutDir, filepath.Base(doc.Filename))
	if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write PDF: %w", err)
	}
	return path, nil
}
