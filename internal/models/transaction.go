package models

import (
	"strconv"
	"time"
)

// Field identifies one semantic column of a sales record. Fields combine as a
// bit set so a record can state which of its values were present and valid.
type Field uint16

const (
	FieldID Field = 1 << iota
	FieldDate
	FieldTime
	FieldLatitude
	FieldLongitude
	FieldProduct
	FieldCategory
	FieldQuantity
	FieldPrice
)

// FieldCoordinates is the pair every spatial computation needs.
const FieldCoordinates = FieldLatitude | FieldLongitude

// Transaction is one geotagged sale. Values whose Field bit is not set in
// Present were missing or invalid in the source row and must not be read.
type Transaction struct {
	ID          string
	Date        time.Time
	Time        string
	Latitude    float64
	Longitude   float64
	ProductName string
	Category    string
	Quantity    float64
	UnitPrice   float64
	Present     Field
}

func (t Transaction) Has(fields Field) bool {
	return t.Present&fields == fields
}

// Revenue is derived on every read and never stored.
func (t Transaction) Revenue() float64 {
	return t.Quantity * t.UnitPrice
}

type DatasetInfo struct {
	Name    string    `json:"filename"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modified"`
	Format  string    `json:"format"`
}

// Identity changes whenever the underlying dataset content may have changed.
func (d DatasetInfo) Identity() string {
	return d.Name + "@" + d.ModTime.UTC().Format(time.RFC3339Nano) + "#" + strconv.FormatInt(d.Size, 10)
}

type UploadResult struct {
	UploadID     string `json:"upload_id"`
	Filename     string `json:"filename"`
	RecordsCount int    `json:"records_count"`
	Size         int64  `json:"size"`
}
