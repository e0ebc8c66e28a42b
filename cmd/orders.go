package cmd

import (
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fjsm/app"
)

var (
	orderFile string
	orderData string
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Manage production orders",
}

var ordersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an order from a JSON document",
	Long: "Create an order from a JSON document given with --data or read from --file.\n" +
		"Use --file - to read standard input. The document is sent to the backend unchanged.",
	Args: cobra.NoArgs,
	RunE: withService(runOrdersCreate),
}

func init() {
	ordersCreateCmd.Flags().StringVarP(&orderFile, "file", "f", "", "JSON file holding the order, - for stdin")
	ordersCreateCmd.Flags().StringVarP(&orderData, "data", "d", "", "order as inline JSON")
	ordersCreateCmd.MarkFlagsMutuallyExclusive("file", "data")
	ordersCmd.AddCommand(ordersCreateCmd)
	rootCmd.AddCommand(ordersCmd)
}

func readOrder(stdin io.Reader) (json.RawMessage, error) {
	var data []byte
	var err error
	switch {
	case orderData != "":
		data = []byte(orderData)
	case orderFile == "-":
		data, err = io.ReadAll(stdin)
	case orderFile != "":
		data, err = os.ReadFile(orderFile)
	default:
		return nil, errors.New("an order is required: use --file or --data")
	}
	if err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, errors.New("order is not valid JSON")
	}
	return json.RawMessage(data), nil
}

func runOrdersCreate(cmd *cobra.Command, _ []string, svc *app.Service) error {
	order, err := readOrder(cmd.InOrStdin())
	if err != nil {
		return err
	}
	out, err := svc.Client.CreateOrder(cmd.Context(), order)
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), out)
}
