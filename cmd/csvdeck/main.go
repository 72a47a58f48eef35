package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"csvdeck/internal/config"
	"csvdeck/internal/logging"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg        *config.Config
	logger     *slog.Logger
	logFile    *os.File
	logCleanup = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "csvdeck",
	Short: "Publish a folder of CSV files and browse them as tables",
	Long: `csvdeck turns a directory of CSV files into a static site.

"csvdeck manifest" indexes the data directory into a JSON manifest,
"csvdeck serve" hosts the manifest and the files under the base path, and
"csvdeck browse" opens an interactive table browser on top of them. Every
dataset is parsed on the client side; the host only serves files.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Log.Level = "debug"
		}
		return setupLogging(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logCleanup()
	},
}

func setupLogging(cmd *cobra.Command) error {
	out := cmd.ErrOrStderr()
	logFile = nil

	// the browser owns the terminal, so its logs go to a file or nowhere
	if cmd.Name() == browseCmd.Name() {
		out = io.Discard
		if cfg.Log.File != "" {
			f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			logFile, out = f, f
		}
	}

	l, flush, err := logging.Setup(logging.Options{
		Level:  cfg.Log.Level,
		SeqURL: cfg.Log.SeqURL,
		Output: out,
	})
	if err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	f := logFile
	var once sync.Once
	logger = l
	logCleanup = func() {
		once.Do(func() {
			flush()
			if f != nil {
				f.Close()
			}
		})
	}
	slog.SetDefault(logger)
	return nil
}

// runCLI runs the command tree. A failing command skips PersistentPostRun,
// so the error is logged and the sinks flushed here.
func runCLI(ctx context.Context) error {
	logger, logCleanup = nil, func() {}
	err := rootCmd.ExecuteContext(ctx)
	if err != nil && logger != nil {
		logger.Error("command failed", "error", err)
	}
	logCleanup()
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to csvdeck.yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(manifestCmd, serveCmd, browseCmd, exportCmd, describeCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := runCLI(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "csvdeck: %v\n", err)
		os.Exit(1)
	}
}
