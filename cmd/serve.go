package cmd

import (
	"github.com/spf13/cobra"

	"github.com/debreselam/schoolbot/internal/transport/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the bot over a JSON HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTPAddr = addr
		}

		ctx, stop := signalContext(cmd)
		defer stop()

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		a.TopUpQuestions(ctx)
		go a.RunJanitor(ctx)

		h := httpapi.NewRouter(a.Machine, httpapi.Options{
			AllowedOrigins: cfg.CORSOrigins,
			Logger:         log,
		})
		return httpapi.Serve(ctx, cfg.HTTPAddr, h, log)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides SCHOOLBOT_HTTP_ADDR)")
}
