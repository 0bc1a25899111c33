// Package numerator provides domain contracts for invoice numbering.
package numerator

// Strategy defines how the next number is derived.
type Strategy int

const (
	// StrategyStrict increments a per-day counter row with UPSERT ... RETURNING.
	// Sequential without gaps; the counter row lock orders concurrent sales.
	StrategyStrict Strategy = iota

	// StrategyScan reads the highest number already issued for the day and adds one.
	// Concurrent sales may compute the same candidate; the line-item unique index rejects the loser.
	StrategyScan
)

// ParseStrategy maps a configuration value to a Strategy. Unknown values select StrategyStrict.
func ParseStrategy(s string) Strategy {
	if s == "scan" {
		return StrategyScan
	}
	return StrategyStrict
}

// String returns the configuration name of the strategy.
func (s Strategy) String() string {
	if s == StrategyScan {
		return "scan"
	}
	return "strict"
}

// Options configuration for number generation.
type Options struct {
	Strategy Strategy
}

// DefaultOptions returns standard options (Strict).
func DefaultOptions() *Options {
	return &Options{
		Strategy: StrategyStrict,
	}
}

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g., "INV")
	Prefix string

	// PadWidth is the minimum sequence width (default 4)
	PadWidth int

	// ResetPeriod: "day", "month", "year", "never"
	ResetPeriod string
}

// InvoiceConfig returns the invoice numbering scheme: PREFIX-YYYYMMDD-NNNN, reset daily.
func InvoiceConfig(prefix string) Config {
	if prefix == "" {
		prefix = "INV"
	}
	return Config{
		Prefix:      prefix,
		PadWidth:    4,
		ResetPeriod: "day",
	}
}
