package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/opsgrid/defectpulse/pkg/cli/config"
	controller "github.com/opsgrid/defectpulse/pkg/controller/http"
	"github.com/opsgrid/defectpulse/pkg/service/classifier"
	"github.com/opsgrid/defectpulse/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var (
		serverCfg    config.Server
		firestoreCfg config.Firestore
		metricsCfg   config.Metrics
	)

	flags := joinFlags(
		serverCfg.Flags(),
		firestoreCfg.Flags(),
		metricsCfg.Flags(),
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Start HTTP server",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			logger.Info("Starting defectpulse server",
				slog.String("addr", serverCfg.Addr),
				slog.Any("firestore", firestoreCfg),
				slog.Any("metrics", metricsCfg),
			)

			repo, err := firestoreCfg.Configure(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			rules, err := metricsCfg.Rules()
			if err != nil {
				return err
			}
			cls, err := classifier.New(rules)
			if err != nil {
				return err
			}

			thresholds, err := metricsCfg.Thresholds()
			if err != nil {
				return err
			}

			weekday, err := metricsCfg.Weekday()
			if err != nil {
				return err
			}

			ledger := usecase.NewUpload(repo,
				usecase.WithClassifier(cls),
				usecase.WithWeekEndingDay(weekday),
			)
			dashboard := usecase.NewDashboard(repo,
				usecase.WithThresholds(thresholds),
				usecase.WithDashboardClassifier(cls),
			)

			server := controller.NewServer(ctx, serverCfg.Addr, ledger, dashboard)

			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
