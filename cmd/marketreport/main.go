// marketreport: daily agricultural commodity prices in USD/kg.
//
// Main CLI entrypoint using cobra command framework. With no subcommand it
// collects prices, writes the dated CSV and PDF report (plus XLSX when enabled) and e-mails it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seenimoa/marketreport/internal/collector"
	"github.com/seenimoa/marketreport/internal/config"
	"github.com/seenimoa/marketreport/internal/pipeline"
	"github.com/seenimoa/marketreport/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger, set in PersistentPreRunE.
var (
	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "marketreport",
	Short: "Commodity market report in USD/kg",
	Long: `marketreport gathers current prices for a fixed roster of agricultural
commodities from futures series and public market pages, normalizes every
price to USD/kg, writes a dated CSV and PDF report (XLSX optional) and, when SMTP is
configured, e-mails it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return eris.Wrap(err, "failed to load config")
		}

		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Logging.Level = level
		}
		logger, err = config.NewLogger(cfg.Logging)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runReport,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.Flags().String("out", "", "output directory override")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Report (root) ---

func runReport(cmd *cobra.Command, args []string) error {
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		cfg.Report.Dir = out
	}

	// An interrupt stops live fetching; the run still completes from the
	// demo table so the report is always written.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := pipeline.FromConfig(cfg, logger, clockwork.NewRealClock())
	res, err := p.Run(ctx)
	if err != nil {
		return eris.Wrap(err, "report run failed")
	}

	for _, f := range res.Artifacts.Files() {
		fmt.Fprintln(cmd.OutOrStdout(), f)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%d rows, emailed: %t, took %s\n",
		len(res.Rows), res.Emailed, utils.FormatDuration(res.Duration))
	return nil
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("marketreport %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and delivery status",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  marketreport — Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Printf("  Time (UTC):    %s\n", utils.FormatDateTimeUTC(time.Now()))
		fmt.Printf("  Report date:   %s\n", utils.ReportDate(time.Now()))
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    Output dir:    %s (xlsx: %t)\n", cfg.Report.Dir, cfg.Report.XLSX)
		fmt.Printf("    Yahoo:         %s\n", cfg.Sources.Yahoo.BaseURL)
		fmt.Printf("    Pages:         %s\n", cfg.Sources.TE.BaseURL)
		fmt.Printf("    Timeout:       %s\n", cfg.Sources.Timeout)
		fmt.Printf("    Roster:        %d series, %d pages\n", len(collector.Series), len(collector.Pages))
		if cfg.Metrics.Textfile != "" {
			fmt.Printf("    Metrics:       %s\n", cfg.Metrics.Textfile)
		}
		fmt.Println()

		fmt.Println("  Delivery:")
		for _, s := range config.CheckCredentials(cfg) {
			status := "❌ not set"
			if s.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", s.Source, s.Masked)
			}
			fmt.Printf("    %-16s %s\n", s.Name+":", status)
		}
		fmt.Printf("    %-16s %s:%d\n", "SMTP port:", cfg.SMTP.Host, cfg.SMTP.Port)
		fmt.Printf("    %-16s %s\n", "Recipient:", cfg.SMTP.To)
		if !config.DeliveryEnabled(cfg) {
			fmt.Println("    Reports will be written but not e-mailed.")
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
