package dataset

import (
	"strings"

	"geosales-dashboard/internal/models"
)

// Canonical column names of a sales sheet.
const (
	ColumnID        = "id_venta"
	ColumnDate      = "fecha"
	ColumnTime      = "hora"
	ColumnLatitude  = "latitud"
	ColumnLongitude = "longitud"
	ColumnProduct   = "producto"
	ColumnCategory  = "categoria"
	ColumnQuantity  = "cantidad"
	ColumnPrice     = "precio"
)

// Required column sets, one per report family.
var (
	MapColumns       = []string{ColumnLatitude, ColumnLongitude, ColumnProduct, ColumnQuantity}
	ChartColumns     = []string{ColumnDate, ColumnCategory, ColumnQuantity, ColumnPrice, ColumnLatitude, ColumnLongitude, ColumnProduct}
	TrendColumns     = []string{ColumnDate, ColumnQuantity, ColumnPrice}
	HeatmapColumns   = []string{ColumnDate, ColumnTime, ColumnLatitude, ColumnLongitude, ColumnQuantity, ColumnPrice}
	SummaryColumns   = []string{ColumnDate, ColumnCategory, ColumnProduct, ColumnQuantity, ColumnPrice}
	DashboardColumns = []string{ColumnDate, ColumnCategory, ColumnQuantity, ColumnPrice, ColumnLatitude, ColumnLongitude, ColumnProduct, ColumnTime}
)

var columnFields = map[string]models.Field{
	ColumnID:        models.FieldID,
	ColumnDate:      models.FieldDate,
	ColumnTime:      models.FieldTime,
	ColumnLatitude:  models.FieldLatitude,
	ColumnLongitude: models.FieldLongitude,
	ColumnProduct:   models.FieldProduct,
	ColumnCategory:  models.FieldCategory,
	ColumnQuantity:  models.FieldQuantity,
	ColumnPrice:     models.FieldPrice,
}

var columnAliases = map[string]string{
	"id":         ColumnID,
	"sale_id":    ColumnID,
	"date":       ColumnDate,
	"time":       ColumnTime,
	"hour":       ColumnTime,
	"latitude":   ColumnLatitude,
	"lat":        ColumnLatitude,
	"longitude":  ColumnLongitude,
	"lon":        ColumnLongitude,
	"lng":        ColumnLongitude,
	"product":    ColumnProduct,
	"category":   ColumnCategory,
	"quantity":   ColumnQuantity,
	"qty":        ColumnQuantity,
	"price":      ColumnPrice,
	"unit_price": ColumnPrice,
}

// CanonicalColumn normalizes a header cell and resolves English aliases.
// Unknown headers are returned normalized but otherwise untouched.
func CanonicalColumn(header string) string {
	name := strings.ToLower(strings.TrimSpace(header))
	name = strings.ReplaceAll(name, " ", "_")
	if canonical, ok := columnAliases[name]; ok {
		return canonical
	}
	return name
}

// FieldFor reports which record field backs a canonical column.
func FieldFor(column string) (models.Field, bool) {
	f, ok := columnFields[column]
	return f, ok
}

// FieldsFor folds a column list into the field set a row must hold.
func FieldsFor(columns ...string) models.Field {
	var fields models.Field
	for _, c := range columns {
		if f, ok := columnFields[c]; ok {
			fields |= f
		}
	}
	return fields
}

// SchemaError lists every required column the dataset lacks, in the order
// they were required.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "dataset must contain the columns: " + strings.Join(e.Missing, ", ")
}

// Validate returns t unchanged when it carries every required column.
func Validate(t *Table, required ...string) (*Table, error) {
	var missing []string
	for _, c := range required {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}
	return t, nil
}
