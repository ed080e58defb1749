package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/planday/app"
	"github.com/kilianp07/planday/config"
	"github.com/kilianp07/planday/infra/logger"
	inframetrics "github.com/kilianp07/planday/infra/metrics"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "planday",
	Short:        "Weighted interval scheduling: corpus generation, solving and candidate scoring",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI until completion or an interrupt.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// startService loads the configuration and builds the service. The metrics
// endpoint is served until ctx ends when prometheus_addr is set.
func startService(ctx context.Context) (*app.Service, *config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	if addr := cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := inframetrics.StartPromServer(ctx, addr, svc.Gatherer(), svc.Logger()); err != nil {
				svc.Logger().Errorf("prom server: %v", err)
			}
		}()
	}
	return svc, cfg, nil
}

func closeService(svc *app.Service) {
	if err := svc.Close(); err != nil {
		logger.New("main").Errorf("service close: %v", err)
	}
}
