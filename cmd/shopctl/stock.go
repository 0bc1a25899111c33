package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"batteryshop/internal/app"
	"batteryshop/internal/core/apperror"
	"batteryshop/internal/core/id"
	"batteryshop/internal/domain/catalog"
)

var stockLimit int

var stockCmd = &cobra.Command{
	Use:   "stock [product-id|sku]",
	Short: "List available units of a product in allocation order",
	Example: `  shopctl stock BAT-100
  shopctl stock 0190b3a4-0000-7000-8000-000000000001 --limit 5`,
	Args: cobra.ExactArgs(1),
	RunE: runStock,
}

func init() {
	stockCmd.Flags().IntVarP(&stockLimit, "limit", "n", 0, "Show at most n units (0 = all)")
	rootCmd.AddCommand(stockCmd)
}

func runStock(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withApp(ctx, func(a *app.App) error {
		product, err := lookupProduct(cmd, a, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s  %s  [%s]  MRP %s  on hand %d\n",
			product.SKU, product.Name, product.Category, product.MRP.StringFixed(2), product.OnHandQuantity)

		if !product.Category.IsSerialized() {
			return nil
		}

		units, err := a.Units.ListAvailable(ctx, product.ID, stockLimit)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tSERIAL\tACQUIRED\tPURCHASED")
		for i, u := range units {
			purchased := "-"
			if u.PurchaseDate != nil {
				purchased = u.PurchaseDate.Format("2006-01-02")
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, u.SerialNumber, u.AcquiredAt.Format("2006-01-02 15:04"), purchased)
		}
		return tw.Flush()
	})
}

// lookupProduct accepts a product id or a SKU.
func lookupProduct(cmd *cobra.Command, a *app.App, ref string) (*catalog.Product, error) {
	if productID, err := id.Parse(ref); err == nil {
		return a.Products.GetByID(cmd.Context(), productID)
	}
	p, err := a.Products.GetBySKU(cmd.Context(), ref)
	if apperror.IsNotFound(err) {
		return nil, fmt.Errorf("no product with id or sku %q", ref)
	}
	return p, err
}
