package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/wb-go/wbf/zlog"

	commenthttp "github.com/MyNameIsWhaaat/commentforest/internal/comment/handler/http"
	"github.com/MyNameIsWhaaat/commentforest/internal/comment/service"
	"github.com/MyNameIsWhaaat/commentforest/internal/comment/storage"
	"github.com/MyNameIsWhaaat/commentforest/internal/comment/storage/cache"
	"github.com/MyNameIsWhaaat/commentforest/internal/comment/storage/inmemory"
	"github.com/MyNameIsWhaaat/commentforest/internal/comment/storage/postgres"
	"github.com/MyNameIsWhaaat/commentforest/internal/comment/storage/redisstore"
	"github.com/MyNameIsWhaaat/commentforest/internal/config"
)

func runServe(cmd *cobra.Command, args []string) error {
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Port = port
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	svc := service.New(repo)
	h := commenthttp.New(svc)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Logger.Info().Str("addr", srv.Addr).Str("storage", cfg.Storage).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	zlog.Logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openRepository builds the configured backend, with the LRU in front of the
// remote ones.
func openRepository(ctx context.Context, cfg config.Config) (storage.Repository, func(), error) {
	var (
		repo    storage.Repository
		closeFn = func() {}
	)

	switch cfg.Storage {
	case config.StorageMemory:
		return inmemory.New(), closeFn, nil

	case config.StoragePostgres:
		db, err := postgres.Open(ctx, cfg.Postgres.DSN, cfg.RetryStrategy())
		if err != nil {
			return nil, nil, err
		}
		pg := postgres.New(db)
		if err := pg.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		repo, closeFn = pg, func() { _ = db.Close() }

	case config.StorageRedis:
		rdb, err := redisstore.Open(ctx, cfg.Redis.URL, cfg.RetryStrategy())
		if err != nil {
			return nil, nil, err
		}
		repo, closeFn = redisstore.New(rdb, cfg.Redis.TTL), func() { _ = rdb.Close() }

	default:
		return nil, nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}

	if cfg.Cache.Size > 0 {
		repo = cache.New(repo, cfg.Cache.Size, cfg.Cache.TTL)
	}
	return repo, closeFn, nil
}
