package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/iliyamo/reading-list/internal/config"
	"github.com/iliyamo/reading-list/internal/queue"
	"github.com/iliyamo/reading-list/internal/router"
	"github.com/iliyamo/reading-list/internal/utils"
)

func newServeCommand(envFile *string) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap(*envFile)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, err := openDB(ctx, cfg, migrate)
			if err != nil {
				return err
			}
			defer func() {
				if err := db.Close(); err != nil {
					log.WithError(err).Warn("db close")
				}
			}()

			codec, err := utils.NewTokenCodec(cfg.JWT)
			if err != nil {
				return err
			}

			var rdb *redis.Client
			if cfg.RateLimit.Enabled {
				if rdb = config.NewRedisClient(cfg.Redis); rdb == nil {
					log.WithField("addr", cfg.Redis.Addr).Warn("redis unreachable; rate limiting disabled")
				} else {
					defer func() { _ = rdb.Close() }()
				}
			}

			events, err := queue.NewPublisher(cfg.Events)
			if err != nil {
				return err
			}
			defer func() {
				if err := events.Close(); err != nil {
					log.WithError(err).Warn("events close")
				}
			}()

			e := router.New(router.Deps{
				Config: cfg,
				Log:    log,
				DB:     db,
				Codec:  codec,
				Redis:  rdb,
				Events: events,
			})
			srv := &http.Server{
				Addr:         ":" + cfg.Port,
				Handler:      e,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.WithField("addr", srv.Addr).WithField("env", cfg.Env).Info("listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return err
				}
			case <-ctx.Done():
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply the schema before serving")
	return cmd
}
