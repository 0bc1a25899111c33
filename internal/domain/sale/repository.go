package sale

import (
	"context"
)

// Repository stores sale lines.
type Repository interface {
	// CreateLines writes all lines of one invoice. A duplicate invoice line or stock unit
	// is reported as CONFLICT.
	CreateLines(ctx context.Context, lines []LineItem) error

	// ListByInvoice returns the lines of an invoice ordered by line number.
	ListByInvoice(ctx context.Context, invoiceNumber string) ([]LineItem, error)
}

// AuditRecorder keeps an audit trail of committed sales.
type AuditRecorder interface {
	Record(ctx context.Context, entityType, entityKey, action string, changes map[string]any) error
}

// EventPublisher records events in the sale's unit of work for later delivery.
type EventPublisher interface {
	Emit(ctx context.Context, aggregateType, aggregateKey, eventType string, payload any) error
}
