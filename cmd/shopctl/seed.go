package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"batteryshop/internal/app"
	"batteryshop/internal/core/apperror"
	"batteryshop/internal/core/types"
	"batteryshop/internal/domain/catalog"
	"batteryshop/internal/domain/commission"
	"batteryshop/internal/domain/stock"
	"batteryshop/pkg/logger"
)

var seedUnits int

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert demo products, stock units and a commission agent",
	Long: `Insert the demo catalog. Products whose SKU already exists are left
untouched, so the command can be run repeatedly.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&seedUnits, "units", 5, "Serialized units to create per battery product")
	rootCmd.AddCommand(seedCmd)
}

type productSeed struct {
	product catalog.Product
	serials []string
}

func strPtr(s string) *string { return &s }

// demoCatalog returns the demo products. Serialized products carry perProduct
// serials acquired one hour apart so FIFO order is visible.
func demoCatalog(perProduct int) []productSeed {
	defs := []catalog.Product{
		{SKU: "BAT-100", Name: "Exide Mileage 65Ah", Category: catalog.CategoryCarTruckTractor,
			AhVa: strPtr("65Ah"), Warranty: strPtr("36 months"), MRP: types.MustMoney("5900")},
		{SKU: "BAT-150", Name: "Amaron Hi-Life 150Ah", Category: catalog.CategoryCarTruckTractor,
			AhVa: strPtr("150Ah"), Warranty: strPtr("48 months"), MRP: types.MustMoney("14160")},
		{SKU: "BAT-200", Name: "Exide Xplore 9Ah", Category: catalog.CategoryBike,
			AhVa: strPtr("9Ah"), Warranty: strPtr("24 months"), MRP: types.MustMoney("1770")},
		{SKU: "INV-1100", Name: "Luminous Zelio 1100VA", Category: catalog.CategoryUPSInverter,
			AhVa: strPtr("1100VA"), Warranty: strPtr("24 months"), MRP: types.MustMoney("8260")},
		{SKU: "WATER-5L", Name: "Distilled battery water 5L", Category: catalog.CategoryWater,
			MRP: types.MustMoney("118")},
	}

	out := make([]productSeed, 0, len(defs))
	for _, p := range defs {
		s := productSeed{product: p}
		if p.Category.IsSerialized() {
			for i := 1; i <= perProduct; i++ {
				s.serials = append(s.serials, fmt.Sprintf("%s-%04d", p.SKU, i))
			}
			s.product.OnHandQuantity = len(s.serials)
		} else {
			s.product.OnHandQuantity = 50
		}
		out = append(out, s)
	}
	return out
}

// seedUnitsFor builds the stock units of one seeded product, oldest first.
func seedUnitsFor(p *catalog.Product, serials []string, start time.Time) []stock.Unit {
	units := make([]stock.Unit, 0, len(serials))
	for i, serial := range serials {
		units = append(units, stock.Unit{
			ProductID:    p.ID,
			SerialNumber: serial,
			Status:       stock.StatusAvailable,
			AcquiredAt:   start.Add(time.Duration(i) * time.Hour),
		})
	}
	return units
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	return withApp(ctx, func(a *app.App) error {
		return a.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
			start := time.Now().Add(-30 * 24 * time.Hour).Truncate(time.Hour)

			for _, seed := range demoCatalog(seedUnits) {
				_, err := a.Products.GetBySKU(ctx, seed.product.SKU)
				if err == nil {
					logger.Info(ctx, "product exists, skipped", "sku", seed.product.SKU)
					continue
				}
				if !apperror.IsNotFound(err) {
					return err
				}

				p := seed.product
				if err := a.Products.Create(ctx, &p); err != nil {
					return fmt.Errorf("create %s: %w", p.SKU, err)
				}
				if err := a.Units.CreateUnits(ctx, seedUnitsFor(&p, seed.serials, start)); err != nil {
					return fmt.Errorf("units for %s: %w", p.SKU, err)
				}
				logger.Info(ctx, "product seeded", "sku", p.SKU, "id", p.ID, "on_hand", p.OnHandQuantity)
			}

			agent, err := a.Agents.Ensure(ctx, &commission.Agent{
				Name:                "Suresh Mechanic",
				MobileNumber:        "9123456789",
				TotalCommissionPaid: types.Zero(),
			})
			if err != nil {
				return fmt.Errorf("seed agent: %w", err)
			}
			logger.Info(ctx, "agent ready", "id", agent.ID, "mobile", agent.MobileNumber)
			return nil
		})
	})
}
