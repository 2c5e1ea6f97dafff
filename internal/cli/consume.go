package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iliyamo/reading-list/internal/queue"
)

func newConsumeCommand(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "consume-events",
		Short: "Append auth events from RabbitMQ to the audit log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap(*envFile)
			if err != nil {
				return err
			}
			if cfg.Events.Backend != "rabbitmq" {
				return fmt.Errorf("consume-events needs EVENTS_BACKEND=rabbitmq, got %q", cfg.Events.Backend)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			c := &queue.AuditConsumer{
				URL:     cfg.Events.AMQPURL,
				Queue:   cfg.Events.Queue,
				LogPath: cfg.Events.AuditLogPath,
				Log:     log,
			}
			log.WithField("queue", c.Queue).WithField("file", c.LogPath).Info("audit consumer started")
			if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
