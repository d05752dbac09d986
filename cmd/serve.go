package cmd

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/atrisk/internal/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve predictions over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt, err := buildApp(ctx, cmd, true)
		if err != nil {
			return err
		}
		defer rt.Close()

		cfg := httpapi.DefaultConfig()
		cfg.Addr = settings.Server.Addr
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Addr = addr
		}
		cfg.Workers = settings.Batch.Workers

		srv := httpapi.NewServer(rt.app, cfg, slog.Default())
		slog.Debug("serving", "model", rt.app.DefaultVariant(), "coach", rt.app.CoachEnabled())
		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides config, default :8080)")
}
