package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/atrisk/internal/config"
	"github.com/abhisek/atrisk/internal/store"
)

// settings is the loaded configuration, set before any subcommand runs.
var settings *config.Config

var rootCmd = &cobra.Command{
	Use:   "atrisk",
	Short: "Predict whether a student is at risk of failing",
	Long: "atrisk scores a student's study profile with a fixed indicator rubric and a trained\n" +
		"classifier, decides Pass or AtRisk, and suggests what to improve.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		flag, _ := cmd.Flags().GetString("config")
		path, explicit := config.Path(flag, os.Getenv)
		cfg, err := config.Load(path, explicit, os.Getenv)
		if err != nil {
			return err
		}
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			cfg.Log.Level = "debug"
		}
		settings = cfg
		slog.SetDefault(newLogger(os.Stderr, cfg.Log))
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file or postgres:// URL (overrides ATRISK_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file (overrides ATRISK_CONFIG env var)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("plain", false, "Disable colors and box drawing")

	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database DSN using --db flag (highest priority),
// then ATRISK_DB or the config file, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if settings != nil && settings.Store.DSN != "" {
		return settings.Store.DSN, store.EnsureDir(settings.Store.DSN)
	}
	return store.DefaultDBPath()
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

func plainOutput(cmd *cobra.Command) bool {
	plain, _ := cmd.Flags().GetBool("plain")
	return plain || os.Getenv("NO_COLOR") != ""
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
