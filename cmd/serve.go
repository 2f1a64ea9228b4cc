package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/esg-benchmark/internal/analysiscache"
	"github.com/ziadkadry99/esg-benchmark/internal/audit"
	"github.com/ziadkadry99/esg-benchmark/internal/benchmark"
	"github.com/ziadkadry99/esg-benchmark/internal/config"
	"github.com/ziadkadry99/esg-benchmark/internal/server"
	"github.com/ziadkadry99/esg-benchmark/internal/standards"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the benchmark HTTP API",
	Long:  `Starts the internal benchmark REST API: company analyses, keyword coverage, disclosure classification and the run journal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		port := a.cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		srv := server.New(server.Config{
			Port:     port,
			AllowAll: a.cfg.Server.AllowAllOrigins,
		}, a.logger)

		classifier, err := a.classifier()
		if err != nil {
			return fmt.Errorf("creating classifier: %w", err)
		}
		registerAllRoutes(srv, a, classifier)

		if a.cfg.Cache.Watch && a.cfg.Cache.Backend != config.CacheSQLite {
			path := a.cfg.CachePath()
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("creating cache dir: %w", err)
			}
			w := analysiscache.NewWatcher(a.cache, path, a.logger)
			go func() {
				if err := w.Run(ctx); err != nil {
					a.logger.Error("cache watcher stopped", "error", err)
				}
			}()
		}

		// Graceful shutdown.
		go func() {
			<-ctx.Done()
			a.logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		a.logger.Info("esgbench server starting",
			"version", Version,
			"port", port,
			"database", a.cfg.DatabasePath(),
			"cache_backend", a.cfg.Cache.Backend,
			"cached_companies", len(a.service.CachedCompanies()),
		)
		return srv.Start()
	},
}

// registerAllRoutes wires up the feature routes.
func registerAllRoutes(srv *server.Server, a *app, classifier *standards.Classifier) {
	r := srv.Router()

	benchmark.RegisterRoutes(r, benchmark.RoutesDeps{
		Service:    a.service,
		UploadsDir: a.cfg.UploadsPath(),
	})
	standards.RegisterRoutes(r, classifier)
	audit.RegisterRoutes(r, a.journal)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8000, "port to listen on (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}
