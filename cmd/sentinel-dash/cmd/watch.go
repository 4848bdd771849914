package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/version"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/earth-sentinel/sentinel-dash/internal/common"
	"github.com/earth-sentinel/sentinel-dash/internal/config"
	"github.com/earth-sentinel/sentinel-dash/internal/domain/entity"
	"github.com/earth-sentinel/sentinel-dash/internal/factory"
	"github.com/earth-sentinel/sentinel-dash/internal/log"
	"github.com/earth-sentinel/sentinel-dash/internal/poller"
	"github.com/earth-sentinel/sentinel-dash/internal/server"
	"github.com/earth-sentinel/sentinel-dash/internal/simulation"
	"github.com/earth-sentinel/sentinel-dash/internal/store"
)

const metricsNamespace = "sentinel_dash"

var conf *config.Config

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the Earth Sentinel backend and serve the dashboard API",
	PreRunE: func(cmd *cobra.Command, args []string) error {
		parsed, err := config.Parse(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to parse config %s: %w", cfgFile, err)
		}

		conf = parsed

		// Init logger
		err = log.Init(conf.Logs)
		if err != nil {
			return fmt.Errorf("failed to init logger: %w", err)
		}

		logger := log.Logger()

		// Dump generic information
		logger.Info("Starting sentinel dashboard",
			"version", version.Info(),
			"buildContext", version.BuildContext(),
		)
		logger.Info("Using config", "config", fmt.Sprintf("%+v", conf))

		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		logger := log.Logger()

		// Set max procs based on cpu limits
		err := common.SetMaxProcs()
		if err != nil {
			logger.Error(err, "failed to set max procs")

			return
		}

		// Set max memory
		err = common.SetMemLimit()
		if err != nil {
			logger.Error(err, "failed to set mem limit")

			return
		}

		// Listen to sigterm and interrupt signals
		ctx := common.SetupSignalHandler(context.Background())

		clock := clockwork.NewRealClock()

		// Backend client (with startup probe)
		backend, closeBackend, err := factory.CreateBackendClient(ctx, conf.Backend, conf.DefaultTimeout, clock)
		if err != nil {
			logger.Error(err, "failed to create backend client")

			return
		}

		// Snapshot store
		snapshotStore := store.New(clock)

		// Metrics
		registry := prometheus.NewRegistry()

		pollerMetrics, err := poller.NewMetrics(registry, poller.MetricsConfig{Namespace: metricsNamespace})
		if err != nil {
			logger.Error(err, "failed to register poller metrics")

			return
		}

		// Sync poller
		syncPoller := poller.New(backend, snapshotStore, clock, poller.Config{
			Interval:     conf.Poll.Interval,
			HistoryLimit: conf.Poll.HistoryLimit,
		}).WithLogger(logger.WithName("poller")).WithMetrics(pollerMetrics)

		simulationMetrics, err := simulation.NewMetrics(registry, simulation.MetricsConfig{Namespace: metricsNamespace})
		if err != nil {
			logger.Error(err, "failed to register simulation metrics")

			return
		}

		// Simulation orchestrator
		orchestrator := simulation.New(backend, clock, simulation.Config{
			DefaultType: conf.Simulation.DefaultType,
			DefaultLocation: entity.Location{
				Lat:     conf.Simulation.DefaultLocation.Lat,
				Lon:     conf.Simulation.DefaultLocation.Lon,
				Address: conf.Simulation.DefaultLocation.Address,
			},
		}).WithLogger(logger.WithName("simulation")).WithMetrics(simulationMetrics)

		// HTTP servers
		handler := server.NewHandler(snapshotStore, orchestrator, syncPoller, logger.WithName("api"))
		apiServer := factory.CreateAPIServer(conf.API, handler.Router())
		metricsServer := factory.CreatePrometheusServer(conf.Metrics, registry)

		group, groupCtx := errgroup.WithContext(ctx)

		group.Go(func() error {
			err := syncPoller.Start(groupCtx)
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("poller stopped: %w", err)
			}

			return nil
		})

		group.Go(func() error {
			err := apiServer.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("api server stopped: %w", err)
			}

			return nil
		})

		group.Go(func() error {
			err := metricsServer.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server stopped: %w", err)
			}

			return nil
		})

		group.Go(func() error {
			<-groupCtx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), conf.GracefulDuration)
			defer cancel()

			_ = apiServer.Shutdown(shutdownCtx)
			_ = metricsServer.Shutdown(shutdownCtx)

			// In-flight fetches drain as no-op writes.
			snapshotStore.Close()

			return closeBackend(shutdownCtx)
		})

		err = group.Wait()
		if err != nil {
			logger.Error(err, "Dashboard stopped with error")

			return
		}

		logger.V(2).Info("Dashboard stopped")
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
