package cli

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/WalterStager/thaumcraft-research-solver/pkg/api"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/cache"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/config"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/history"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/observability"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/pipeline"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		recipes string
		scope   string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API. Solves are cached through the configured cache backend,
recorded in the configured history store and counted on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			cfg := c.config()
			if !cmd.Flags().Changed("addr") {
				addr = cfg.Server.Addr
			}

			g, err := c.loadAspects(recipes)
			if err != nil {
				return err
			}
			cc, err := c.newCache(noCache)
			if err != nil {
				return err
			}
			var keyer cache.Keyer
			if scope != "" {
				keyer = cache.NewScopedKeyer(nil, scope)
			}
			runner := pipeline.NewRunner(cc, keyer, c.Logger)
			defer runner.Close()

			store, err := openHistory(ctx, cfg.History)
			if err != nil {
				return err
			}
			defer store.Close(context.WithoutCancel(ctx))

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			hooks := observability.NewPrometheusHooks(reg)
			observability.SetSolverHooks(hooks)
			observability.SetCacheHooks(hooks)
			observability.SetHTTPHooks(hooks)
			defer observability.Reset()

			srv := api.New(api.Config{
				Runner:   runner,
				Aspects:  g,
				History:  store,
				Gatherer: reg,
				Defaults: pipeline.Options{
					Strategy:    cfg.Solver.Strategy,
					Mode:        cfg.Solver.Mode,
					Seed:        cfg.Solver.Seed,
					MaxTimeSecs: cfg.Exact.MaxTimeSeconds,
					NumWorkers:  cfg.Exact.NumWorkers,
				},
				Logger: c.Logger,
			})

			logger.Info("serving", "addr", addr, "aspects", g.Len(), "cache", cfg.Cache.Backend, "history", cfg.History.Backend)
			err = srv.ListenAndServe(ctx, addr, cfg.ReadTimeout())
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&recipes, "recipes", "", "recipe book (.json or .toml; default built-in)")
	cmd.Flags().StringVar(&scope, "cache-scope", "", "prefix for cache keys when several servers share a cache")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")

	return cmd
}

// openHistory returns the run store named by the history config.
func openHistory(ctx context.Context, cfg config.HistoryConfig) (history.Store, error) {
	switch cfg.Backend {
	case config.HistoryMongo:
		return history.NewMongoStore(ctx, history.MongoConfig{
			URI:        cfg.MongoURI,
			Database:   cfg.Database,
			Collection: cfg.Collection,
		})
	case config.HistoryNone:
		return history.NopStore{}, nil
	}
	return history.NewMemoryStore(0), nil
}
