package cmd

import (
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fjsm/app"
	"github.com/kilianp07/fjsm/core/model"
	"github.com/kilianp07/fjsm/infra/chart"
	"github.com/kilianp07/fjsm/pkg/export"
)

var (
	htmlPath  string
	csvPath   string
	tasksPath string
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "Browse the plans produced by the solver",
}

var plansRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recent plans",
	Args:  cobra.NoArgs,
	RunE:  withService(runPlansRecent),
}

var plansGanttCmd = &cobra.Command{
	Use:   "gantt [run_id]",
	Short: "Print the Gantt data of a run or render it as HTML",
	Args:  cobra.MaximumNArgs(1),
	RunE:  withService(runPlansGantt),
}

func init() {
	plansGanttCmd.Flags().StringVar(&htmlPath, "html", "", "write an HTML chart to this file instead of printing the data")
	plansGanttCmd.Flags().StringVar(&csvPath, "csv", "", "write the tasks as CSV to this file, - for stdout")
	plansGanttCmd.Flags().StringVar(&tasksPath, "tasks-json", "", "write the normalized tasks as JSON to this file, - for stdout")
	plansGanttCmd.MarkFlagsMutuallyExclusive("html", "csv", "tasks-json")
	plansCmd.AddCommand(plansRecentCmd, plansGanttCmd)
	rootCmd.AddCommand(plansCmd)
}

func runPlansRecent(cmd *cobra.Command, _ []string, svc *app.Service) error {
	plans, err := svc.Client.RecentPlans(cmd.Context())
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), plans)
}

type chartView struct {
	RunID string `json:"run_id"`
	HTML  string `json:"html"`
	Tasks int    `json:"tasks"`
}

func runPlansGantt(cmd *cobra.Command, args []string, svc *app.Service) error {
	var runID model.RunID
	if len(args) == 1 {
		runID = model.RunID(args[0])
	}
	raw, err := svc.Client.PlanGantt(cmd.Context(), runID)
	if err != nil {
		return err
	}
	switch {
	case csvPath != "":
		return writeTasks(cmd, csvPath, raw, export.WriteCSV)
	case tasksPath != "":
		return writeTasks(cmd, tasksPath, raw, export.WriteJSON)
	}
	if htmlPath == "" {
		return printResult(cmd.OutOrStdout(), raw)
	}
	page, err := chart.GanttHTML(runID, raw)
	if errors.Is(err, chart.ErrNoTasks) && runID.Empty() {
		return errors.New("a run_id is required to render a chart")
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(htmlPath, []byte(page), 0o644); err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), chartView{RunID: runID.String(), HTML: htmlPath, Tasks: len(model.ParseGantt(raw))})
}

func writeTasks(cmd *cobra.Command, path string, raw []byte, write func(io.Writer, []model.GanttTask) error) error {
	tasks := model.ParseGantt(raw)
	if path == "-" {
		return write(cmd.OutOrStdout(), tasks)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f, tasks); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
