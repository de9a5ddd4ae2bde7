package report

import (
	"math"
	"math/big"
	"strconv"
	"time"

	"github.com/cuongbtq/weather-report/internal/domain"
	"github.com/cuongbtq/weather-report/internal/metric"
)

// TimestampLayout renders the date and the time of day of an instant, seconds precision, no zone
const TimestampLayout = "Mon Jan 02 2006 15:04:05"

// roundingPrec keeps v*10^precision and the added half exact for any float64 in reporting range
const roundingPrec = 128

// CellKind tells how a Cell is written to the sheet
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
)

// Cell is one formatted value of the report table
type Cell struct {
	Kind      CellKind
	Text      string
	Number    float64
	Precision int
}

// String returns the cell as it appears in the sheet
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', c.Precision, 64)
	default:
		return ""
	}
}

// Table is the tabular content of a report: one header row and one row per reading
type Table struct {
	Header []string
	Rows   [][]Cell
	// Missing counts cells left empty because the reading had no value
	Missing int
}

// Formatter turns readings into a Table
type Formatter struct {
	registry *metric.Registry
}

// NewFormatter creates a Formatter that takes header labels from registry
func NewFormatter(registry *metric.Registry) *Formatter {
	return &Formatter{registry: registry}
}

// Format builds the table for readings with columns in the order of fields.
// Timestamps are rendered in the location they already carry. A missing
// value yields an empty cell; Format never fails.
func (f *Formatter) Format(readings []domain.Reading, fields []string) Table {
	table := Table{
		Header: make([]string, len(fields)),
		Rows:   make([][]Cell, 0, len(readings)),
	}

	for i, key := range fields {
		table.Header[i] = f.registry.LabelOr(key)
	}

	for _, r := range readings {
		row := make([]Cell, len(fields))
		for i, key := range fields {
			if key == metric.Timestamp {
				row[i] = Cell{Kind: CellText, Text: FormatTimestamp(r.Timestamp)}
				continue
			}

			v, ok := r.Value(key)
			if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
				table.Missing++
				continue
			}

			precision := PrecisionOf(key)
			row[i] = Cell{Kind: CellNumber, Number: Round(v, precision), Precision: precision}
		}
		table.Rows = append(table.Rows, row)
	}

	return table
}

// FormatTimestamp renders t using TimestampLayout
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// PrecisionOf returns the number of decimals a metric is reported with
func PrecisionOf(key string) int {
	if key == metric.Temperature {
		return 2
	}
	return 0
}

// Round rounds the exact binary value of v half away from zero to precision
// decimals, so 10.045 (stored as 10.04499...) becomes 10.04 and 2.5 becomes 3.
// precision must be between 0 and 15.
func Round(v float64, precision int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}

	scale := math.Pow10(precision)
	x := new(big.Float).SetPrec(roundingPrec).SetFloat64(math.Abs(v))
	x.Mul(x, new(big.Float).SetPrec(roundingPrec).SetFloat64(scale))
	x.Add(x, big.NewFloat(0.5))

	n, _ := x.Int(nil)
	r, _ := new(big.Float).SetInt(n).Float64()
	return math.Copysign(r/scale, v)
}
