// Package numerator provides the PostgreSQL invoice number generator.
// It implements core/numerator.Generator and runs inside the caller's transaction.
package numerator

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "batteryshop/internal/core/numerator"
	"batteryshop/internal/infrastructure/storage/postgres"
	"batteryshop/pkg/logger"
)

// Backend is the storage access the generator needs.
type Backend interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	// RunInSavepoint isolates a failed read so the enclosing sale transaction stays usable.
	RunInSavepoint(ctx context.Context, fn func(ctx context.Context) error) error
}

type txBackend struct {
	txManager *postgres.TxManager
}

func (b txBackend) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return b.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...)
}

func (b txBackend) RunInSavepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	return b.txManager.RunInSavepoint(ctx, fn)
}

// Service generates invoice numbers.
type Service struct {
	backend Backend
	now     func() time.Time
}

// Ensure compile-time interface compliance.
var _ corenumerator.Generator = (*Service)(nil)

// New creates a numerator bound to the transaction manager.
func New(txManager *postgres.TxManager) *Service {
	return NewWithBackend(txBackend{txManager: txManager})
}

// NewWithBackend creates a numerator over any backend.
func NewWithBackend(b Backend) *Service {
	return &Service{
		backend: b,
		now:     time.Now,
	}
}

const strictNextSQL = `
	INSERT INTO sys_sequences (key, current_val, updated_at)
	VALUES ($1, 1, now())
	ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + 1, updated_at = now()
	RETURNING current_val`

// scanMaxSQL finds the highest numeric suffix issued for the day. Timestamp fallback
// numbers carry a "T" and never match the pattern.
const scanMaxSQL = `
	SELECT COALESCE(MAX(CAST(substring(invoice_number FROM '-([0-9]+)$') AS BIGINT)), 0)
	FROM sale_line_items
	WHERE invoice_number LIKE $1`

// GetNextNumber generates the next number for the period: PREFIX-YYYYMMDD-NNNN.
//
// When the sequence cannot be read the number degrades to PREFIX-YYYYMMDD-T<unix millis>;
// a cancelled context is reported instead.
func (s *Service) GetNextNumber(ctx context.Context, cfg corenumerator.Config, opts *corenumerator.Options, period time.Time) (string, error) {
	if s == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}
	if opts == nil {
		opts = corenumerator.DefaultOptions()
	}

	var num int64
	err := s.backend.RunInSavepoint(ctx, func(ctx context.Context) error {
		var err error
		switch opts.Strategy {
		case corenumerator.StrategyScan:
			num, err = s.nextByScan(ctx, cfg, period)
		default:
			num, err = s.nextStrict(ctx, cfg, period)
		}
		return err
	})

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		fallback := s.fallbackNumber(cfg, period)
		logger.Warn(ctx, "invoice sequence unavailable, using timestamp number",
			"strategy", opts.Strategy.String(),
			"invoice_number", fallback,
			"error", err)
		return fallback, nil
	}

	return formatNumber(cfg, period, num), nil
}

func (s *Service) nextStrict(ctx context.Context, cfg corenumerator.Config, period time.Time) (int64, error) {
	var num int64
	if err := s.backend.QueryRow(ctx, strictNextSQL, buildKey(cfg, period)).Scan(&num); err != nil {
		return 0, fmt.Errorf("strict next: %w", err)
	}
	return num, nil
}

func (s *Service) nextByScan(ctx context.Context, cfg corenumerator.Config, period time.Time) (int64, error) {
	var highest int64
	pattern := periodPrefix(cfg, period) + "-%"
	if err := s.backend.QueryRow(ctx, scanMaxSQL, pattern).Scan(&highest); err != nil {
		return 0, fmt.Errorf("scan highest: %w", err)
	}
	return highest + 1, nil
}

func (s *Service) fallbackNumber(cfg corenumerator.Config, period time.Time) string {
	return fmt.Sprintf("%s-T%d", periodPrefix(cfg, period), s.now().UnixMilli())
}

// buildKey creates the sys_sequences key, e.g. INV:20240115.
func buildKey(cfg corenumerator.Config, period time.Time) string {
	switch cfg.ResetPeriod {
	case "day":
		return cfg.Prefix + ":" + period.Format("20060102")
	case "month":
		return cfg.Prefix + ":" + period.Format("200601")
	case "year":
		return cfg.Prefix + ":" + period.Format("2006")
	default:
		return cfg.Prefix
	}
}

// periodPrefix is the number without its sequence part.
func periodPrefix(cfg corenumerator.Config, period time.Time) string {
	switch cfg.ResetPeriod {
	case "month":
		return cfg.Prefix + "-" + period.Format("200601")
	case "year":
		return cfg.Prefix + "-" + period.Format("2006")
	case "never":
		return cfg.Prefix
	default:
		return cfg.Prefix + "-" + period.Format("20060102")
	}
}

func formatNumber(cfg corenumerator.Config, period time.Time, num int64) string {
	padWidth := cfg.PadWidth
	if padWidth == 0 {
		padWidth = 4
	}
	return fmt.Sprintf("%s-%0*d", periodPrefix(cfg, period), padWidth, num)
}

// ParseNumber extracts the sequence part of a formatted number.
// Returns -1 for fallback numbers and anything unparsable.
func ParseNumber(formatted string) int64 {
	i := strings.LastIndexByte(formatted, '-')
	if i < 0 || i == len(formatted)-1 {
		return -1
	}
	num, err := strconv.ParseInt(formatted[i+1:], 10, 64)
	if err != nil || num < 0 {
		return -1
	}
	return num
}
