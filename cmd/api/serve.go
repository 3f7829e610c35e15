// cmd/api/serve.go

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"propmap/internal/adapter/events"
	"propmap/internal/adapter/source"
	"propmap/internal/adapter/storage"
	"propmap/internal/config"
	"propmap/internal/domain/temporal"
	"propmap/internal/server"
	"propmap/internal/service/mapview"
	"propmap/internal/service/symbol"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() { rootCmd.AddCommand(serveCmd) }

func serve(parent context.Context) error {
	log := zap.L()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Dataset source
	var (
		src temporal.Source
		db  *pgxpool.Pool
	)
	switch cfg.Data.Source {
	case config.SourcePostgres:
		pool, err := initDatabase(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()
		db = pool

		store := storage.NewDatasetStore(db)
		if err := store.Migrate(ctx); err != nil {
			return err
		}
		src = store
	case config.SourceHTTP:
		src = source.NewHTTPSource(cfg.Data.BaseURL, cfg.Data.Timeout)
	default:
		src = source.NewFileSource(cfg.Data.Dir)
	}

	// Event bus
	var bus temporal.EventBus
	if cfg.NATS.URL != "" {
		nc, err := initNATS(cfg.NATS, log)
		if err != nil {
			return err
		}
		defer nc.Close()
		bus = events.NewNATSBus(nc)
	} else {
		bus = events.NewLocalBus()
	}

	settings := mapSettings(cfg.Map)
	catalog := mapview.NewCatalog(src, cfg.Symbol.SeriesProperty, log)
	catalog.SetLoadTimeout(cfg.Data.Timeout)
	manager := mapview.NewManager(catalog, bus, mapview.ManagerConfig{
		EventsTopic:        cfg.View.EventsTopic,
		IdleTimeout:        cfg.View.IdleTimeout,
		MonitoringInterval: cfg.View.MonitoringInterval,
		MaxViews:           cfg.View.MaxViews,
		ScaleFactor:        cfg.Symbol.ScaleFactor,
		Map:                settings,
		Layer:              layerConfig(cfg.Symbol),
	}, log)

	// Warm the default dataset so the first view does not wait on it
	if _, err := catalog.Get(ctx, cfg.Data.DefaultDataset); err != nil {
		log.Warn("default dataset unavailable", zap.String("dataset", cfg.Data.DefaultDataset), zap.Error(err))
	}

	httpServer := server.NewServer(cfg.Server, manager, catalog, bus, cfg.Data.DefaultDataset, settings)

	errc := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", zap.String("host", cfg.Server.Host), zap.Int("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errc:
		return eris.Wrap(err, "http server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown", zap.Error(err))
	}
	if err := manager.Stop(shutdownCtx); err != nil {
		log.Error("view manager shutdown", zap.Error(err))
	}

	log.Info("shutdown complete")
	return nil
}

func mapSettings(c config.MapConfig) temporal.MapSettings {
	return temporal.MapSettings{
		CenterLat:   c.CenterLat,
		CenterLng:   c.CenterLng,
		Zoom:        c.Zoom,
		TileURL:     c.TileURL,
		Attribution: c.Attribution,
	}
}

func layerConfig(c config.SymbolConfig) symbol.LayerConfig {
	return symbol.LayerConfig{
		SeriesProperty: c.SeriesProperty,
		NameProperty:   c.NameProperty,
		EntityLabel:    c.EntityLabel,
		ValueLabel:     c.ValueLabel,
		Style:          temporal.DefaultStyle,
	}
}

// initDatabase opens a pgx pool
func initDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "unable to parse connection string")
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.MaxLifetime

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, eris.Wrap(err, "unable to connect to database")
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "unable to ping database")
	}

	return db, nil
}

// initNATS connects to the event broker
func initNATS(cfg config.NATSConfig, log *zap.Logger) (*nats.Conn, error) {
	options := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, eris.Wrap(err, "unable to connect to NATS")
	}

	return nc, nil
}
