package dataset

import (
	"slices"

	"geosales-dashboard/internal/models"
)

// Table is an ingested sales sheet: the canonical header plus one typed
// record per data row, in file order.
type Table struct {
	Name    string
	Columns []string
	Rows    []models.Transaction
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

func (t *Table) HasColumn(column string) bool {
	return t != nil && slices.Contains(t.Columns, column)
}

// Clean keeps the rows holding a valid value for every required column.
// The header is preserved so the cleaned table still validates.
func (t *Table) Clean(required ...string) *Table {
	fields := FieldsFor(required...)
	out := &Table{
		Name:    t.Name,
		Columns: t.Columns,
		Rows:    make([]models.Transaction, 0, len(t.Rows)),
	}
	for _, row := range t.Rows {
		if row.Has(fields) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// Prepare validates the header and then cleans the rows in one step. Every
// report that shares a request must be fed from the same prepared table.
func Prepare(t *Table, required ...string) (*Table, error) {
	if _, err := Validate(t, required...); err != nil {
		return nil, err
	}
	return t.Clean(required...), nil
}

// WithCoordinates returns the rows usable for spatial analysis.
func WithCoordinates(rows []models.Transaction) []models.Transaction {
	out := make([]models.Transaction, 0, len(rows))
	for _, row := range rows {
		if row.Has(models.FieldCoordinates) {
			out = append(out, row)
		}
	}
	return out
}
