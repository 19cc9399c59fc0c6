package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/viewing-scheduler/internal/audit"
	"github.com/BruksfildServices01/viewing-scheduler/internal/cache"
	dbpkg "github.com/BruksfildServices01/viewing-scheduler/internal/db"
	"github.com/BruksfildServices01/viewing-scheduler/internal/geo"
	"github.com/BruksfildServices01/viewing-scheduler/internal/routes"
	"github.com/BruksfildServices01/viewing-scheduler/internal/storage"
)

func newServeCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if migrateUp {
				if err := dbpkg.Migrate(db); err != nil {
					return err
				}
			}

			// ------------------------------
			// Geo lookup (+ optional cache)
			// ------------------------------
			var lookup geo.Lookup = geo.NewClient(geo.Options{
				PostcodeURL:   cfg.PostcodeAPIURL,
				RoutingURL:    cfg.RoutingAPIURL,
				RoutingKey:    cfg.RoutingAPIKey,
				Timeout:       cfg.GeoTimeout,
				RatePerSecond: cfg.GeoRatePerSecond,
			}, log.Named("geo"))

			if cfg.RedisURL != "" {
				rdb, err := cache.NewRedis(ctx, cfg.RedisURL)
				if err != nil {
					log.Warn("redis unavailable, travel cache disabled", zap.Error(err))
				} else {
					defer rdb.Close()
					lookup = geo.NewCachedLookup(lookup, rdb, cfg.TravelCacheTTL, log.Named("geo.cache"))
				}
			}

			// ------------------------------
			// Photo storage
			// ------------------------------
			var photos storage.ObjectStore
			if store := storage.NewS3Store(storage.Options{
				Endpoint:  cfg.S3Endpoint,
				Region:    cfg.S3Region,
				Bucket:    cfg.S3Bucket,
				AccessKey: cfg.S3AccessKey,
				SecretKey: cfg.S3SecretKey,
			}); store != nil {
				photos = store
			}

			dispatcher := audit.NewDispatcher(audit.New(db), log.Named("audit"))
			defer dispatcher.Close()

			// ------------------------------
			// HTTP
			// ------------------------------
			if cfg.IsProduction() {
				gin.SetMode(gin.ReleaseMode)
			}
			r := gin.New()
			r.Use(gin.Recovery())

			r.GET("/health", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"status": "ok"})
			})

			routes.RegisterRoutes(r, routes.Deps{
				DB:     db,
				Config: cfg,
				Log:    log,
				Geo:    lookup,
				Photos: photos,
				Audit:  dispatcher,
			})

			srv := &http.Server{
				Addr:              cfg.Addr(),
				Handler:           r,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("server running", zap.String("addr", cfg.Addr()))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")
	return cmd
}
