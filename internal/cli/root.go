// Package cli описывает команды mock-interview.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	configPath string
	version    = "dev" // задается через ldflags
)

var rootCmd = &cobra.Command{
	Use:   "mock-interview",
	Short: "Голосовой тренажер собеседований",
	Long: `mock-interview проводит пробное интервью голосом: слушает кандидата через
потоковое распознавание речи, задает вопросы от лица интервьюера и
отдает метрики ответов по websocket.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
}

// Execute запускает корневую команду. Вызывается из main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "путь к YAML с настройками интервью (по умолчанию INTERVIEW_CONFIG)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(validateCmd)
}

// newLogger собирает slog по LOG_LEVEL и LOG_FORMAT
func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if strings.ToLower(format) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
