package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/cuongbtq/weather-report/internal/domain"
	"github.com/cuongbtq/weather-report/internal/metric"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func readSheet(t *testing.T, data []byte) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	return rows
}

func TestEncodeXLSX(t *testing.T) {
	f := NewFormatter(metric.Default())
	ts := time.Date(2024, 1, 1, 0, 0, 30, 0, time.UTC)
	table := f.Format([]domain.Reading{
		{Timestamp: ts, Values: map[string]float64{"temperature": 21.004, "co2": 410.6}},
		{Timestamp: ts.Add(time.Minute), Values: map[string]float64{"temperature": 23.456, "co2": 7.89}},
	}, []string{"timestamp", "temperature", "co2"})

	data, err := EncodeXLSX(table)
	require.NoError(t, err)

	rows := readSheet(t, data)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Date", "Temperature", "Carbon-Dioxide"}, rows[0])
	assert.Equal(t, []string{"Mon Jan 01 2024 00:00:30", "21.00", "411"}, rows[1])
	assert.Equal(t, []string{"Mon Jan 01 2024 00:01:30", "23.46", "8"}, rows[2])
}

func TestEncodeXLSX_HeaderOnly(t *testing.T) {
	table := NewFormatter(metric.Default()).Format(nil, []string{"timestamp", "humidity"})

	data, err := EncodeXLSX(table)
	require.NoError(t, err)

	rows := readSheet(t, data)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"Date", "Humidity"}, rows[0])
}

func TestEncodeXLSX_EmptyCellKeepsColumns(t *testing.T) {
	table := NewFormatter(metric.Default()).Format([]domain.Reading{
		{Timestamp: time.Unix(0, 0).UTC(), Values: map[string]float64{"co2": 400}},
	}, []string{"timestamp", "humidity", "co2"})

	data, err := EncodeXLSX(table)
	require.NoError(t, err)

	rows := readSheet(t, data)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Thu Jan 01 1970 00:00:00", "", "400"}, rows[1])
}
