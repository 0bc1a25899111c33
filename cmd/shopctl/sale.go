package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"batteryshop/internal/app"
	appctx "batteryshop/internal/core/context"
	"batteryshop/internal/infrastructure/http/v1/dto"
)

var (
	saleFile  string
	saleActor string
)

var saleCmd = &cobra.Command{
	Use:   "sale",
	Short: "Submit a sale from a JSON request file",
	Long: `Submit a sale through the same service the API uses. The file holds the
request body accepted by POST /api/v1/sales, either with an items array or
the flattened single-item form. Use "-" to read from stdin.`,
	Example: `  shopctl sale --file sale.json --actor counter-1
  cat sale.json | shopctl sale --file - --actor counter-1`,
	Args: cobra.NoArgs,
	RunE: runSale,
}

func init() {
	saleCmd.Flags().StringVarP(&saleFile, "file", "f", "", "Path to the JSON sale request (- for stdin)")
	saleCmd.Flags().StringVar(&saleActor, "actor", "shopctl", "User id recorded as the seller")
	_ = saleCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(saleCmd)
}

func readSaleRequest(path string, stdin io.Reader) (*dto.CreateSaleRequest, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}

	var body dto.CreateSaleRequest
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("parse request: %w", err)
	}
	return &body, nil
}

func runSale(cmd *cobra.Command, _ []string) error {
	body, err := readSaleRequest(saleFile, cmd.InOrStdin())
	if err != nil {
		return err
	}
	req, err := body.ToDomain()
	if err != nil {
		return err
	}

	ctx := appctx.WithUser(cmd.Context(), &appctx.UserContext{UserID: saleActor})
	ctx = appctx.WithTrace(ctx, appctx.NewTraceContext(""))

	return withApp(ctx, func(a *app.App) error {
		res, err := a.Sales.Submit(ctx, req)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), dto.FromSaleResult(res))
	})
}
