package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"geosales-dashboard/internal/models"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
)

const (
	batchSize  = 10000
	maxWorkers = 10

	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format, use .xlsx or .csv")
	ErrNoHeader          = errors.New("empty file")
)

// FormatFromName derives the sheet format from a file extension.
func FormatFromName(name string) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

func Decode(ctx context.Context, name, format string, r io.Reader) (*Table, error) {
	switch format {
	case FormatCSV:
		return DecodeCSV(ctx, name, r)
	case FormatXLSX:
		return DecodeXLSX(ctx, name, r)
	default:
		return nil, ErrUnsupportedFormat
	}
}

func DecodeCSV(ctx context.Context, name string, r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = false

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return FromRecords(ctx, name, records)
}

// DecodeXLSX reads the first sheet of a workbook. Cells are read raw so
// dates arrive as serial numbers rather than locale-formatted strings.
func DecodeXLSX(ctx context.Context, name string, r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeader
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return fromRecords(ctx, name, rows, true)
}

// FromRecords builds a table from a header row followed by data rows of
// text cells. Rows are parsed in parallel batches but keep their file order.
func FromRecords(ctx context.Context, name string, records [][]string) (*Table, error) {
	return fromRecords(ctx, name, records, false)
}

func fromRecords(ctx context.Context, name string, records [][]string, serialDates bool) (*Table, error) {
	if len(records) == 0 {
		return nil, ErrNoHeader
	}

	columns := make([]string, len(records[0]))
	for i, h := range records[0] {
		columns[i] = CanonicalColumn(strings.TrimPrefix(h, "\ufeff"))
	}

	data := records[1:]
	parser := newRowParser(columns, serialDates)
	rows := make([]models.Transaction, len(data))

	var g errgroup.Group
	g.SetLimit(maxWorkers)

	for start := 0; start < len(data); start += batchSize {
		end := min(start+batchSize, len(data))
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			for i := start; i < end; i++ {
				rows[i] = parser.parse(data[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// blank lines in spreadsheets come through as all-empty records
	kept := rows[:0]
	for _, row := range rows {
		if row.Present != 0 {
			kept = append(kept, row)
		}
	}

	return &Table{Name: name, Columns: columns, Rows: kept}, nil
}
