package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-policyforge/internal/metrics"
	"github.com/goliatone/go-policyforge/internal/server"
)

func newServeCommand(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web wizard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}

func (a *app) serve(ctx context.Context, addr string) error {
	m := metrics.New()
	catalog := a.catalog(m)
	// The server starts with an empty list; sessions pick the entries up once
	// the single fetch completes.
	go loadCatalog(ctx, catalog, m)

	def, err := a.definition()
	if err != nil {
		return err
	}
	assembler, err := a.assembler()
	if err != nil {
		return err
	}

	srv, err := server.New(
		server.WithDefinition(def),
		server.WithCountries(catalog),
		server.WithAssembler(assembler),
		server.WithGenerationDelay(a.cfg.Wizard.GenerationDelay),
		server.WithMetrics(m),
		server.WithLogger(a.logger),
		server.WithTemplatesDir(a.cfg.Server.TemplatesDir),
		server.WithSessionTTL(a.cfg.Server.SessionTTL),
		server.WithCookieName(a.cfg.Server.CookieName),
		server.WithBrand(a.cfg.Policy.Brand),
	)
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx, addr)
}
