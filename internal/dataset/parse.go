package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"

	"geosales-dashboard/internal/models"
	"github.com/xuri/excelize/v2"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
}

// Excel's 1900 date system runs from serial 1 (1900-01-01) to 2958465
// (9999-12-31).
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465
)

// rowParser maps each known field to its position in the header row.
// Spreadsheet serial dates are only honored for workbook input, where a bare
// number in a date column is how the cell is stored.
type rowParser struct {
	index       map[models.Field]int
	serialDates bool
}

func newRowParser(columns []string, serialDates bool) rowParser {
	p := rowParser{index: make(map[models.Field]int, len(columns)), serialDates: serialDates}
	for i, c := range columns {
		f, ok := FieldFor(c)
		if !ok {
			continue
		}
		// first occurrence wins on duplicate headers
		if _, seen := p.index[f]; !seen {
			p.index[f] = i
		}
	}
	return p
}

func (p rowParser) cell(record []string, f models.Field) (string, bool) {
	i, ok := p.index[f]
	if !ok || i >= len(record) {
		return "", false
	}
	v := strings.TrimSpace(record[i])
	return v, v != ""
}

// parse never fails: an invalid cell only clears that field's bit.
func (p rowParser) parse(record []string) models.Transaction {
	var tx models.Transaction

	if v, ok := p.cell(record, models.FieldID); ok {
		tx.ID = v
		tx.Present |= models.FieldID
	}
	if v, ok := p.cell(record, models.FieldDate); ok {
		if d, ok := p.date(v); ok {
			tx.Date = d
			tx.Present |= models.FieldDate
		}
	}
	if v, ok := p.cell(record, models.FieldTime); ok {
		tx.Time = normalizeTime(v)
		tx.Present |= models.FieldTime
	}
	if v, ok := p.cell(record, models.FieldLatitude); ok {
		if f, ok := parseCoordinate(v, 90); ok {
			tx.Latitude = f
			tx.Present |= models.FieldLatitude
		}
	}
	if v, ok := p.cell(record, models.FieldLongitude); ok {
		if f, ok := parseCoordinate(v, 180); ok {
			tx.Longitude = f
			tx.Present |= models.FieldLongitude
		}
	}
	if v, ok := p.cell(record, models.FieldProduct); ok {
		tx.ProductName = v
		tx.Present |= models.FieldProduct
	}
	if v, ok := p.cell(record, models.FieldCategory); ok {
		tx.Category = v
		tx.Present |= models.FieldCategory
	}
	if v, ok := p.cell(record, models.FieldQuantity); ok {
		if f, ok := parseNonNegative(v); ok {
			tx.Quantity = f
			tx.Present |= models.FieldQuantity
		}
	}
	if v, ok := p.cell(record, models.FieldPrice); ok {
		if f, ok := parseNonNegative(v); ok {
			tx.UnitPrice = f
			tx.Present |= models.FieldPrice
		}
	}
	return tx
}

func (p rowParser) date(s string) (time.Time, bool) {
	if p.serialDates {
		if d, ok := ParseSerialDate(s); ok {
			return d, true
		}
	}
	return ParseDate(s)
}

func parseFinite(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseNonNegative(s string) (float64, bool) {
	f, ok := parseFinite(s)
	if !ok || f < 0 {
		return 0, false
	}
	return f, true
}

func parseCoordinate(s string, limit float64) (float64, bool) {
	f, ok := parseFinite(s)
	if !ok || f < -limit || f > limit {
		return 0, false
	}
	return f, true
}

// ParseDate accepts ISO-style calendar dates. Bare numbers are rejected.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseSerialDate reads a spreadsheet serial number in the 1900 date system.
func ParseSerialDate(s string) (time.Time, bool) {
	serial, ok := parseFinite(strings.TrimSpace(s))
	if !ok || serial < minExcelSerial || serial >= maxExcelSerial+1 {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// normalizeTime turns a spreadsheet time fraction into a clock string.
// Anything else is kept verbatim for the hour parser.
func normalizeTime(s string) string {
	frac, err := strconv.ParseFloat(s, 64)
	if err != nil || frac < 0 || frac >= 1 {
		return s
	}
	minutes := int(math.Round(frac * 24 * 60))
	t := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(minutes) * time.Minute)
	return t.Format("3:04 PM")
}
