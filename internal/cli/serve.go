package cli

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"modhub/internal/server"
	"modhub/internal/store"
)

func newServeCmd(app *App) *cobra.Command {
	var (
		addr   string
		dbPath string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the modhub backend (HTTP API + refresh feeds)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = app.cfg.ServerAddr()
			}
			if dbPath == "" {
				dbPath = app.cfg.DBPath()
			}
			if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
				return err
			}

			log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(zerolog.InfoLevel).
				With().Timestamp().Logger()

			st, err := store.Open(cmd.Context(), dbPath, log.With().Str("component", "store").Logger())
			if err != nil {
				return err
			}
			defer st.Close()

			srv := server.New(st, log.With().Str("component", "http").Logger())
			log.Info().Str("addr", addr).Str("db", dbPath).Msg("modhub server listening")
			return http.ListenAndServe(addr, srv.Handler())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", envOr("MODHUB_ADDR", ""), "Listen address (default from config)")
	cmd.Flags().StringVar(&dbPath, "db", envOr("MODHUB_DB", ""), "SQLite database path (default from config)")
	return cmd
}
