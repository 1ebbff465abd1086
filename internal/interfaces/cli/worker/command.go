package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/orris-inc/usdtpay/internal/infrastructure/database"
	"github.com/orris-inc/usdtpay/internal/interfaces/cli/server"
	httpRouter "github.com/orris-inc/usdtpay/internal/interfaces/http"
	"github.com/orris-inc/usdtpay/internal/shared/logger"
)

var env string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run payment pollers without the HTTP API",
		Long:  `Run the chain pollers, the expiry sweep and the transfer queue consumer. Use this when the API is served by separate replicas.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := server.Bootstrap(env)
	if err != nil {
		return err
	}
	defer database.Close()

	log := logger.NewLogger().Named("worker")
	log.Infow("starting worker", "environment", env, "queue_enabled", cfg.Queue.Enabled)

	if err := server.HandleMigrations(env, false, false, log); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := httpRouter.NewContainer(ctx, database.Get(), cfg, log)
	if err != nil {
		return fmt.Errorf("failed to build container: %w", err)
	}
	defer container.Shutdown()

	container.StartBackground(ctx)
	log.Infow("worker started")

	<-ctx.Done()
	log.Infow("worker stopping")

	return nil
}
