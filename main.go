package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	app "github.com/rocketscienceinc/tictactoe-arcade/internal"
	"github.com/rocketscienceinc/tictactoe-arcade/internal/config"
)

var (
	configPath string
	logFile    string
)

// main - is the entry point of the application. It parses the command line and runs the chosen front-end.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tictactoe",
		Short: "Tic-tac-toe against a friend or the computer",
		Long: `Tic-tac-toe in the terminal, over HTTP or over WebSocket.

  tictactoe          same as 'tictactoe play'
  tictactoe play     play in the terminal
  tictactoe serve    start the REST and WebSocket servers`,
		SilenceUsage: true,
		RunE:         runPlay,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "path to config.yml")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file when playing in the terminal")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "play",
			Short: "Play in the terminal",
			Args:  cobra.NoArgs,
			RunE:  runPlay,
		},
		&cobra.Command{
			Use:   "serve",
			Short: "Start the REST and WebSocket servers",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				conf := config.MustLoad(configPath)
				logger := initLogger(conf, os.Stdout)

				if err := app.RunApp(logger, conf); err != nil {
					return fmt.Errorf("app run failed: %w", err)
				}

				return nil
			},
		},
	)

	return rootCmd
}

// runPlay - the terminal owns stdout, so logs go to --log-file or nowhere.
func runPlay(_ *cobra.Command, _ []string) error {
	conf := config.MustLoad(configPath)

	var out io.Writer = io.Discard
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer file.Close()

		out = file
	}

	if err := app.RunTUI(initLogger(conf, out), conf); err != nil {
		return fmt.Errorf("tui run failed: %w", err)
	}

	return nil
}

// initialize config path.
func defaultConfigPath() string {
	baseDir, err := os.Getwd()
	if err != nil {
		panic(fmt.Errorf("failed to get current directory: %w", err))
	}

	return filepath.Join(baseDir, "./config.yml")
}

// initialize logger.
func initLogger(conf *config.Config, out io.Writer) *slog.Logger {
	var level slog.Level

	switch conf.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
}
