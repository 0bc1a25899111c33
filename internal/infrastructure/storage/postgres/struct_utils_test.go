package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"batteryshop/internal/core/id"
)

type auditedRow struct {
	ID        id.ID     `db:"id"`
	CreatedAt time.Time `db:"created_at"`
}

type mockLine struct {
	auditedRow
	Invoice string  `db:"invoice_number"`
	LineNo  int     `db:"line_no"`
	Vehicle *string `db:"vehicle_number"`
	Note    string  `db:"-"`
	scratch int
}

func TestExtractDBColumns_EmbeddedFirst(t *testing.T) {
	cols := ExtractDBColumns[mockLine]()

	assert.Equal(t, []string{"id", "created_at", "invoice_number", "line_no", "vehicle_number"}, cols)
}

func TestWithout(t *testing.T) {
	cols := []string{"id", "seq", "serial_number", "status"}

	assert.Equal(t, []string{"id", "serial_number", "status"}, Without(cols, "seq"))
	assert.Equal(t, cols, Without(cols))
}

func TestStructToMap_Fields(t *testing.T) {
	now := time.Now().UTC()
	vehicle := "KA01AB1234"
	line := mockLine{
		auditedRow: auditedRow{ID: id.New(), CreatedAt: now},
		Invoice:    "INV-20240115-0001",
		LineNo:     2,
		Vehicle:    &vehicle,
		Note:       "ignored",
		scratch:    7,
	}

	m := StructToMap(&line)

	assert.Equal(t, line.ID, m["id"])
	assert.Equal(t, now, m["created_at"])
	assert.Equal(t, "INV-20240115-0001", m["invoice_number"])
	assert.Equal(t, 2, m["line_no"])
	assert.Equal(t, &vehicle, m["vehicle_number"])
	assert.NotContains(t, m, "Note")
	assert.Len(t, m, 5)
}

func TestRowValues_ColumnOrder(t *testing.T) {
	line := mockLine{Invoice: "INV-20240115-0002", LineNo: 1}

	row := RowValues(line, []string{"line_no", "invoice_number", "missing"})

	assert.Equal(t, []any{1, "INV-20240115-0002", nil}, row)
}

func TestStructToMap_NonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
	var nilLine *mockLine
	assert.Nil(t, StructToMap(nilLine))
}
