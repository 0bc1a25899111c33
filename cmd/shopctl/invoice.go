package main

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"batteryshop/internal/app"
	"batteryshop/internal/infrastructure/http/v1/dto"
	"batteryshop/internal/infrastructure/storage/postgres"
)

var invoiceHistory bool

var invoiceCmd = &cobra.Command{
	Use:   "invoice [invoice-number]",
	Short: "Print an invoice with its lines and totals",
	Example: `  shopctl invoice INV-20261016-0001
  shopctl invoice INV-20261016-0001 --history`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withApp(ctx, func(a *app.App) error {
			inv, err := a.Sales.GetInvoice(ctx, args[0])
			if err != nil {
				return err
			}
			if !invoiceHistory {
				return printJSON(cmd.OutOrStdout(), dto.FromInvoice(inv))
			}

			if a.Audit == nil {
				return errors.New("audit trail is disabled (AUDIT_ENABLED=false)")
			}
			entries, err := a.Audit.GetEntityHistory(ctx, "sale", inv.InvoiceNumber, 50)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), invoiceWithHistory{
				InvoiceResponse: dto.FromInvoice(inv),
				History:         historyEntries(entries),
			})
		})
	},
}

func init() {
	invoiceCmd.Flags().BoolVar(&invoiceHistory, "history", false, "Include the audit trail of the sale")
	rootCmd.AddCommand(invoiceCmd)
}

type auditEntry struct {
	Action    string         `json:"action"`
	UserID    string         `json:"userId"`
	RequestID string         `json:"requestId,omitempty"`
	Changes   map[string]any `json:"changes,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

type invoiceWithHistory struct {
	dto.InvoiceResponse
	History []auditEntry `json:"history"`
}

// historyEntries flattens stored audit rows. Undecodable changes are left empty.
func historyEntries(entries []postgres.AuditEntry) []auditEntry {
	out := make([]auditEntry, 0, len(entries))
	for _, e := range entries {
		item := auditEntry{
			Action:    e.Action,
			UserID:    e.UserID,
			RequestID: e.RequestID,
			CreatedAt: e.CreatedAt,
		}
		if len(e.Changes) > 0 {
			_ = json.Unmarshal(e.Changes, &item.Changes)
		}
		out = append(out, item)
	}
	return out
}
