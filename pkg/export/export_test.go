package export

import (
	"bytes"
	"testing"

	"github.com/korjavin/preacherbot/pkg/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var sample = schedule.Schedule{
	"07.05.2025": {"Петро"},
	"04.05.2025": {"Іван", "Андрій"},
	"01.06.2025": {"Іван"},
	"28.12.2024": {"Марк"},
}

func TestMonths(t *testing.T) {
	assert.Equal(t, []string{"12.2024", "05.2025", "06.2025"}, Months(sample))
	assert.Empty(t, Months(schedule.Schedule{}))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "rozklad-05-2025.xlsx", FileName("05.2025"))
}

func TestWorkbook(t *testing.T) {
	data, err := Workbook(sample, "05.2025")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Дата", "День", "Проповідники"},
		{"04.05.2025", "Нд", "Іван, Андрій"},
		{"07.05.2025", "Ср", "Петро"},
	}, rows)
}

func TestWorkbookEmptyMonth(t *testing.T) {
	_, err := Workbook(sample, "01.2025")
	assert.ErrorIs(t, err, ErrEmptyMonth)
}
