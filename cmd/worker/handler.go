package main

import (
	"context"
	"encoding/json"
	"fmt"

	"batteryshop/internal/domain/sale"
	"batteryshop/internal/infrastructure/storage/postgres"
	"batteryshop/pkg/logger"
)

// saleEventHandler hands committed sales to downstream consumers. Today that is the
// log stream the shop's reporting picks up.
type saleEventHandler struct {
	log *logger.Logger
}

func newSaleEventHandler(log *logger.Logger) *saleEventHandler {
	return &saleEventHandler{log: log}
}

// Handle implements postgres.OutboxHandler.
func (h *saleEventHandler) Handle(_ context.Context, msg *postgres.OutboxMessage) error {
	if msg.EventType != sale.EventCompleted {
		h.log.Debugw("outbox event ignored", "event", msg.EventType, "key", msg.AggregateKey)
		return nil
	}

	var ev sale.CompletedEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return fmt.Errorf("decode %s: %w", msg.EventType, err)
	}

	fields := []any{
		"invoice", ev.InvoiceNumber,
		"customer_id", ev.CustomerID,
		"customer_created", ev.CustomerWasCreated,
		"channel", ev.SaleChannel,
		"units", ev.Units,
		"final", ev.Final.StringFixed(2),
		"sold_by", ev.SoldBy,
	}
	if ev.AgentID != nil {
		fields = append(fields, "agent_id", *ev.AgentID, "commission", ev.Commission.StringFixed(2))
	}
	h.log.Infow("sale completed", fields...)
	return nil
}
