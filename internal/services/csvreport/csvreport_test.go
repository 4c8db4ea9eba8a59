package csvreport

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sathvik-zluri/moneytrack/internal/models"
)

func TestErrorRecordsOrder(t *testing.T) {
	dups := []models.TransactionRow{
		{Date: "01-01-2024", Description: "Coffee", Amount: "4.5", Currency: "USD", AmountINR: "375"},
		{Date: "02-01-2024", Description: "Tea", Amount: "3", Currency: "USD"},
	}
	schemaErrs := []models.SchemaError{
		{Row: map[string]models.RawValue{"Date": "bad", "Amount": "x"}, Message: "Invalid date"},
		{Row: map[string]models.RawValue{}, Message: "Missing fields"},
	}

	records := ErrorRecords(dups, schemaErrs)

	require.Len(t, records, 4)
	assert.Equal(t, DuplicateError, records[0].Error)
	assert.Equal(t, "Coffee", records[0].Description)
	assert.Equal(t, "Tea", records[1].Description)
	assert.Equal(t, "Invalid date", records[2].Error)
	assert.Equal(t, "bad", records[2].Date)
	assert.Equal(t, "", records[2].Currency)
	assert.Equal(t, models.ErrorReportRecord{Error: "Missing fields"}, records[3])
}

func TestBuildErrorReport(t *testing.T) {
	records := ErrorRecords(
		[]models.TransactionRow{{Date: "01-01-2024", Description: "Dinner, drinks", Amount: "50", Currency: "EUR"}},
		[]models.SchemaError{{Row: map[string]models.RawValue{"Description": `say "hi"`}, Message: "Amount is required"}},
	)

	data, err := BuildErrorReport(records)
	require.NoError(t, err)

	want := "Date,Description,Amount,Currency,Error\r\n" +
		"01-01-2024,\"Dinner, drinks\",50,EUR,Duplicate transaction\r\n" +
		",\"say \"\"hi\"\"\",,,Amount is required\r\n"
	assert.Equal(t, want, string(data))
	assert.NotContains(t, string(data), "undefined")
	assert.NotContains(t, string(data), "null")
}

func TestBuildErrorReportEmpty(t *testing.T) {
	data, err := BuildErrorReport(nil)
	require.NoError(t, err)
	assert.Equal(t, "Date,Description,Amount,Currency,Error\r\n", string(data))
}

func TestBuildExportRoundTrip(t *testing.T) {
	inr := decimal.RequireFromString("8300")
	txs := []models.Transaction{
		{ID: 3, Date: models.NewDate(2024, 3, 1), Description: "Rent, March", Amount: decimal.RequireFromString("1200.50"), Currency: "USD", AmountINR: &inr},
		{ID: 1, Date: models.NewDate(2023, 12, 31), Description: `Quote "this"`, Amount: decimal.RequireFromString("-7"), Currency: "EUR"},
		{ID: 2, Date: models.NewDate(2024, 1, 9), Description: "Groceries", Amount: decimal.RequireFromString("0.01"), Currency: "INR"},
	}

	data, err := BuildExport(txs)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, len(txs)+1)
	assert.Equal(t, []string{"Date", "Description", "Amount", "Currency"}, records[0])

	for i, tx := range txs {
		row := records[i+1]
		require.Len(t, row, 4)
		assert.Equal(t, tx.Date.Display(), row[0])
		assert.Equal(t, tx.Description, row[1])
		amount, err := decimal.NewFromString(row[2])
		require.NoError(t, err)
		assert.True(t, tx.Amount.Equal(amount), "row %d amount %s", i, row[2])
		assert.Equal(t, tx.Currency, row[3])
	}
}

func TestBuildExportLineCount(t *testing.T) {
	txs := []models.Transaction{
		{Date: models.NewDate(2024, 1, 1), Description: "a", Amount: decimal.NewFromInt(1), Currency: "USD"},
		{Date: models.NewDate(2024, 1, 2), Description: "b", Amount: decimal.NewFromInt(2), Currency: "USD"},
	}

	data, err := BuildExport(txs)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\r\n"), "\r\n")
	assert.Len(t, lines, 3)
	assert.Equal(t, "01-01-2024,a,1,USD", lines[1])
}
