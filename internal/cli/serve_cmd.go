package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sparrow/internal/domain"
)

func newServeCmd(app *App) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run scheduled discovery and the expiry sweep until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := app.Scheduler.Initialize(ctx); err != nil {
				return err
			}
			app.Scheduler.Start()
			defer app.Scheduler.Stop()

			addr := app.Config.Metrics.Addr
			if metricsAddr != "" {
				addr = metricsAddr
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return app.Sweeper.Run(gctx)
			})
			if addr != "" {
				g.Go(func() error {
					return app.Metrics.Serve(gctx, addr)
				})
			}

			app.Logger.Info("sparrow serving",
				zap.Int("scheduled_jobs", app.Scheduler.JobCount()),
				zap.String("metrics_addr", addr))

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Listen address for /metrics and /health (overrides config)")

	return cmd
}

func newDiscoverCmd(app *App) *cobra.Command {
	var typ string

	cmd := &cobra.Command{
		Use:   "discover ACCOUNT_ID",
		Short: "Run one discovery pass for an account now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !domain.ValidDiscoveryTypes[typ] {
				return fmt.Errorf("invalid discovery type %q", typ)
			}

			result, err := app.Scheduler.TriggerNow(context.Background(), args[0], domain.DiscoveryType(typ))
			if err != nil {
				return err
			}
			fmt.Printf("Discovery complete: %d found, %d created, %d skipped\n",
				result.Found, result.Created, result.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVar(&typ, "type", "replies", "Discovery type (replies|search)")

	return cmd
}

func newSweepCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Expire overdue pending opportunities once",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := app.Sweeper.RunOnce(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("Expired %d opportunities\n", n)
			return nil
		},
	}
}
