package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kilianp07/fjsm/app"
	"github.com/kilianp07/fjsm/core/preference"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Print backend metrics",
	Args:  cobra.NoArgs,
	RunE:  withService(runMetrics),
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize the client configuration and backend metrics",
	Args:  cobra.NoArgs,
	RunE:  withService(runStatus),
}

func init() {
	rootCmd.AddCommand(metricsCmd, statusCmd)
}

func runMetrics(cmd *cobra.Command, _ []string, svc *app.Service) error {
	return printResult(cmd.OutOrStdout(), svc.Client.Metrics(cmd.Context()))
}

type statusView struct {
	BaseURL   string           `json:"base_url"`
	DB        string           `json:"db"`
	Store     string           `json:"store"`
	Notify    string           `json:"notify,omitempty"`
	Selection preference.Stats `json:"selection"`
	Metrics   map[string]any   `json:"metrics"`
}

func runStatus(cmd *cobra.Command, _ []string, svc *app.Service) error {
	cfg := svc.Config()
	view := statusView{
		BaseURL:   svc.Client.BaseURL(),
		DB:        svc.Selection().HeaderValue(),
		Store:     cfg.Preference.Store.Type,
		Selection: svc.Store.Stats(),
		Metrics:   svc.Client.Metrics(cmd.Context()),
	}
	if topic := svc.NotifyTopic(); topic != "" {
		view.Notify = cfg.Notify.Broker + " " + topic
	}
	return printResult(cmd.OutOrStdout(), view)
}
