package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	want := NewDate(2025, time.January, 9)
	for _, in := range []string{
		"2025-01-09T00:00:00.000Z",
		"2025-01-09T23:30:00+05:30",
		"2025-01-09T10:00:00",
		"2025-01-09",
		"09-01-2025",
		" 2025-01-09 ",
	} {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got.Time), in)
	}

	_, err := ParseDate("January 9th")
	assert.Error(t, err)
}

func TestDateJSON(t *testing.T) {
	var tx Transaction
	require.NoError(t, json.Unmarshal([]byte(`{"id":4,"Date":"2025-03-01","Description":"Rent","Amount":"900.50","Currency":"EUR"}`), &tx))

	assert.Equal(t, "01-03-2025", tx.Date.Display())
	assert.Equal(t, "2025-03-01", tx.Date.FormValue())
	assert.True(t, decimal.RequireFromString("900.5").Equal(tx.Amount))
	assert.Nil(t, tx.AmountINR)

	out, err := json.Marshal(tx.Date)
	require.NoError(t, err)
	assert.Equal(t, `"01-03-2025"`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"Date":20250301}`), &tx))
}

func TestTransactionInputValidate(t *testing.T) {
	valid := TransactionInput{Date: "2025-01-09", Description: "Tea", Amount: decimal.NewFromInt(2), Currency: "USD"}
	assert.NoError(t, valid.Validate())

	err := TransactionInput{Date: "2025-01-09", Amount: decimal.Zero}.Validate()
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Equal(t, "required: Description, Amount, Currency", err.Error())

	bad := valid
	bad.Date = "09-01-2025"
	err = bad.Validate()
	require.Error(t, err)
	assert.Equal(t, "Date must be yyyy-mm-dd", err.Error())
}

func TestTransactionInputJSON(t *testing.T) {
	in := TransactionInput{Date: "2025-01-09", Description: "Tea", Amount: decimal.RequireFromString("2.50"), Currency: "USD"}

	out, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Date":"2025-01-09","Description":"Tea","Amount":2.5,"Currency":"USD"}`, string(out))
}

func TestRawValue(t *testing.T) {
	var row TransactionRow
	require.NoError(t, json.Unmarshal([]byte(`{"Date":"01-01-2025","Description":null,"Amount":12.50,"Currency":true}`), &row))

	assert.Equal(t, "01-01-2025", row.Date.String())
	assert.Equal(t, "", row.Description.String())
	assert.Equal(t, "12.50", row.Amount.String())
	assert.Equal(t, "true", row.Currency.String())
	assert.Equal(t, "", row.AmountINR.String())

	var v RawValue
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &v))
}

func TestUploadResult(t *testing.T) {
	var res UploadResult
	require.NoError(t, json.Unmarshal([]byte(`{
		"message":"Upload complete","transactionsSaved":0,
		"duplicates":[],
		"schemaErrors":[{"row":{"Date":"bad","Amount":"x"},"message":"Invalid date"}]
	}`), &res))

	assert.True(t, res.HasIssues())
	require.Len(t, res.SchemaErrors, 1)
	assert.Equal(t, RawValue("bad"), res.SchemaErrors[0].Row["Date"])
	assert.Equal(t, "Invalid date", res.SchemaErrors[0].Message)

	assert.False(t, (&UploadResult{}).HasIssues())
}

func TestUploadBatchRecords(t *testing.T) {
	var b UploadBatch
	records, err := b.Records()
	require.NoError(t, err)
	assert.Nil(t, records)

	want := []ErrorReportRecord{{Date: "01-01-2025", Description: "Tea", Amount: "2", Currency: "USD", Error: "Duplicate transaction"}}
	require.NoError(t, b.SetRecords(want))
	records, err = b.Records()
	require.NoError(t, err)
	assert.Equal(t, want, records)

	require.NoError(t, b.SetRecords(nil))
	assert.Nil(t, b.ErrorRows)
}
