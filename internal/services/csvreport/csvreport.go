// Package csvreport builds the two CSV downloads: the export of the loaded
// transactions and the error report for a partially failed upload.
package csvreport

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/sathvik-zluri/moneytrack/internal/models"
)

const (
	ExportFilename      = "transactions.csv"
	ErrorReportFilename = "transaction_errors.csv"

	DuplicateError = "Duplicate transaction"
)

var (
	exportHeader      = []string{"Date", "Description", "Amount", "Currency"}
	errorReportHeader = []string{"Date", "Description", "Amount", "Currency", "Error"}
)

// ErrorRecords flattens duplicates and schema errors into report rows,
// duplicates first, both in the order the backend returned them.
func ErrorRecords(duplicates []models.TransactionRow, schemaErrors []models.SchemaError) []models.ErrorReportRecord {
	records := make([]models.ErrorReportRecord, 0, len(duplicates)+len(schemaErrors))
	for _, d := range duplicates {
		records = append(records, models.ErrorReportRecord{
			Date:        d.Date.String(),
			Description: d.Description.String(),
			Amount:      d.Amount.String(),
			Currency:    d.Currency.String(),
			Error:       DuplicateError,
		})
	}
	for _, se := range schemaErrors {
		records = append(records, models.ErrorReportRecord{
			Date:        se.Row["Date"].String(),
			Description: se.Row["Description"].String(),
			Amount:      se.Row["Amount"].String(),
			Currency:    se.Row["Currency"].String(),
			Error:       se.Message,
		})
	}
	return records
}

func BuildErrorReport(records []models.ErrorReportRecord) ([]byte, error) {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{r.Date, r.Description, r.Amount, r.Currency, r.Error})
	}
	return write(errorReportHeader, rows)
}

// BuildExport writes the transactions in the order given. AmountINR and id
// are left out.
func BuildExport(txs []models.Transaction) ([]byte, error) {
	rows := make([][]string, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, []string{tx.Date.Display(), tx.Description, tx.Amount.String(), tx.Currency})
	}
	return write(exportHeader, rows)
}

func write(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = true

	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("write rows: %w", err)
	}
	return buf.Bytes(), nil
}
