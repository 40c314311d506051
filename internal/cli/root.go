// Package cli implements the inputmacro command line.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"inputmacro/internal/config"
	"inputmacro/internal/logging"
	"inputmacro/internal/metrics"
)

// Version is set at build time with -ldflags "-X inputmacro/internal/cli.Version=...".
var Version = "0.1.0"

var (
	cfgFile   string
	logLevel  string
	logFormat string

	cfgMgr *config.Manager
	logger *slog.Logger
)

// Execute runs the CLI.
func Execute() error {
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

var rootCmd = &cobra.Command{
	Use:   "inputmacro",
	Short: "Record and replay mouse and keyboard input",
	Long: `inputmacro records global mouse and keyboard input with its timing,
saves it as a .macro.json document and plays it back at any speed.
Without a subcommand it runs in the system tray.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		return setup()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTray()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to the config file (default: per-user config directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text|json (overrides config)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(autostartCmd)
	rootCmd.AddCommand(versionCmd)
}

func setup() error {
	if cfgFile != "" {
		cfgMgr = config.NewManagerAt(cfgFile)
	} else {
		var err error
		cfgMgr, err = config.NewManager()
		if err != nil {
			return fmt.Errorf("initialize config: %w", err)
		}
	}
	loadErr := cfgMgr.Load()

	cfg := cfgMgr.Get()
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	l, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return err
	}
	logger = l
	slog.SetDefault(logger)

	if loadErr != nil {
		logger.Warn("Config: failed to load, using defaults", "path", cfgMgr.Path(), "error", loadErr)
	}
	return nil
}

// interrupted returns a channel that receives on SIGINT or SIGTERM.
func interrupted() (<-chan os.Signal, func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	return sigCh, func() { signal.Stop(sigCh) }
}

// logMetrics writes every non-zero counter at debug level.
func logMetrics() {
	samples, err := metrics.Snapshot()
	if err != nil {
		logger.Warn("Metrics: snapshot failed", "error", err)
		return
	}
	for _, s := range samples {
		if s.Value == 0 {
			continue
		}
		logger.Debug("Metrics: "+s.Name, "labels", formatLabels(s.Labels), "value", s.Value)
	}
}

func formatLabels(labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+labels[k])
	}
	return strings.Join(parts, ",")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "inputmacro version %s\n", Version)
	},
}
