package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fjsm/app"
	"github.com/kilianp07/fjsm/config"
	coremon "github.com/kilianp07/fjsm/core/monitoring"
	"github.com/kilianp07/fjsm/infra/logger"
)

var (
	cfgPath   string
	outputFmt string
	baseURL   string
)

var rootCmd = &cobra.Command{
	Use:          "fjsm",
	Short:        "Client for the job shop scheduling backend",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", os.Getenv("FJSM_CONFIG"), "configuration file (yaml or json)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "json", "output format: json or yaml")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "backend URL, overrides backend.base_url")
}

// Execute runs the CLI until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

type serviceRunE func(cmd *cobra.Command, args []string, svc *app.Service) error

// withService loads the configuration, builds the service for the duration
// of one command and reports the command's failure to the monitor.
func withService(fn serviceRunE) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := checkOutputFormat(); err != nil {
			return err
		}
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if baseURL != "" {
			cfg.Backend.BaseURL = baseURL
			if err := cfg.Backend.Validate(); err != nil {
				return err
			}
		}
		svc, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := svc.Close(); err != nil {
				logger.New("cli").Errorf("service close: %v", err)
			}
		}()
		return coremon.ReportCommand(cmd.CommandPath(), fn(cmd, args, svc))
	}
}
