package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/edl-session-search/internal/server"
)

func serveCmd() *cobra.Command {
	var addr string
	var watchRoots bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the index as a read-only JSON API",
		Long: `Serves the index over HTTP:
  GET /healthz
  GET /api/sessions?q=&since=&limit=
  GET /api/sessions/<sessionKey>?entries=1
  GET /api/search?q=&kind=&session=&since=&limit=`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, db, err := openIndex()
			if err != nil {
				return err
			}
			defer db.Close()

			if addr == "" {
				addr = cfg.ServeAddr
			}

			if watchRoots {
				w, err := startWatcher(ctx, db, cfg)
				if err != nil {
					return err
				}
				defer w.Close()
			}

			return server.New(db).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config serve_addr)")
	cmd.Flags().BoolVar(&watchRoots, "watch", false, "Keep the index current while serving")

	return cmd
}
