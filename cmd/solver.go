package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fjsm/app"
	"github.com/kilianp07/fjsm/core/model"
	"github.com/kilianp07/fjsm/infra/backend"
)

var (
	lockValues    []string
	locksFile     string
	watchInterval time.Duration
)

var solverCmd = &cobra.Command{
	Use:   "solver",
	Short: "Start solver runs and follow their progress",
}

var solverStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a solver run, optionally keeping locked assignments",
	Args:  cobra.NoArgs,
	RunE:  withService(runSolverStart),
}

var solverStatusCmd = &cobra.Command{
	Use:   "status [run_id]",
	Short: "Print the status of a solver run",
	Args:  cobra.MaximumNArgs(1),
	RunE:  withService(runSolverStatus),
}

var solverWatchCmd = &cobra.Command{
	Use:   "watch <run_id>",
	Short: "Poll a solver run until it finishes",
	Args:  cobra.ExactArgs(1),
	RunE:  withService(runSolverWatch),
}

func init() {
	solverStartCmd.Flags().StringArrayVar(&lockValues, "lock", nil, "locked assignment as a JSON value, repeatable")
	solverStartCmd.Flags().StringVar(&locksFile, "locks-file", "", "file holding a JSON array of locked assignments")
	solverWatchCmd.Flags().DurationVar(&watchInterval, "interval", backend.DefaultWatchInterval, "time between two status polls")
	solverCmd.AddCommand(solverStartCmd, solverStatusCmd, solverWatchCmd)
	rootCmd.AddCommand(solverCmd)
}

func runSolverStart(cmd *cobra.Command, _ []string, svc *app.Service) error {
	locks, withLocks, err := readLocks()
	if err != nil {
		return err
	}
	var out json.RawMessage
	if withLocks {
		out, err = svc.Client.StartSolverWithLocks(cmd.Context(), locks)
	} else {
		out, err = svc.Client.StartSolver(cmd.Context())
	}
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), out)
}

// readLocks gathers --locks-file entries followed by --lock values. The
// second result is false when neither flag was used.
func readLocks() ([]model.Lock, bool, error) {
	if locksFile == "" && len(lockValues) == 0 {
		return nil, false, nil
	}
	locks := []model.Lock{}
	if locksFile != "" {
		data, err := os.ReadFile(locksFile)
		if err != nil {
			return nil, false, err
		}
		var fromFile []json.RawMessage
		if err := json.Unmarshal(data, &fromFile); err != nil {
			return nil, false, fmt.Errorf("%s: expected a JSON array: %w", locksFile, err)
		}
		locks = append(locks, fromFile...)
	}
	for _, v := range lockValues {
		if !json.Valid([]byte(v)) {
			return nil, false, fmt.Errorf("lock %q is not valid JSON", v)
		}
		locks = append(locks, model.Lock(v))
	}
	return locks, true, nil
}

func runSolverStatus(cmd *cobra.Command, args []string, svc *app.Service) error {
	var runID model.RunID
	if len(args) == 1 {
		runID = model.RunID(args[0])
	}
	out, err := svc.Client.SolverStatus(cmd.Context(), runID)
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), out)
}

func runSolverWatch(cmd *cobra.Command, args []string, svc *app.Service) error {
	ctx := cmd.Context()
	svc.ServeMetrics(ctx)
	var (
		lastStatus string
		printed    bool
		printErr   error
	)
	_, err := svc.Client.Watch(ctx, model.RunID(args[0]), watchInterval, func(u backend.StatusUpdate) {
		if (printed && u.Status.Status == lastStatus) || printErr != nil {
			return
		}
		printed, lastStatus = true, u.Status.Status
		printErr = printResult(cmd.OutOrStdout(), u.Raw)
	})
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return errors.Join(err, printErr)
}
