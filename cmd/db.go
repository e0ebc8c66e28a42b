package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fjsm/app"
	"github.com/kilianp07/fjsm/core/model"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Show or change the backend database variant",
}

var dbGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the selected database",
	Args:  cobra.NoArgs,
	RunE:  withService(runDBGet),
}

var dbSetCmd = &cobra.Command{
	Use:   "set <PG|MONGO>",
	Short: "Select the database used by every backend call",
	Args:  cobra.ExactArgs(1),
	RunE:  withService(runDBSet),
}

func init() {
	dbCmd.AddCommand(dbGetCmd, dbSetCmd)
	rootCmd.AddCommand(dbCmd)
}

type selectionView struct {
	DB    string `json:"db"`
	Query string `json:"query"`
}

func viewOf(sel model.DatabaseSelection) selectionView {
	return selectionView{DB: sel.HeaderValue(), Query: sel.QueryValue()}
}

func runDBGet(cmd *cobra.Command, _ []string, svc *app.Service) error {
	return printResult(cmd.OutOrStdout(), viewOf(svc.Selection()))
}

func runDBSet(cmd *cobra.Command, args []string, svc *app.Service) error {
	sel, err := svc.SetSelection(cmd.Context(), args[0])
	if !model.DatabaseSelection(strings.ToUpper(args[0])).Valid() {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "unrecognized database %q, using %s\n", args[0], sel)
	}
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), viewOf(sel))
}
