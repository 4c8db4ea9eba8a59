package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// UploadCandidateFile is a file the user dropped or picked, before the type
// gate has looked at it.
type UploadCandidateFile struct {
	Name      string
	MediaType string
	Data      []byte
}

// RawValue is a CSV cell as echoed back by the backend. Numbers and booleans
// keep their literal text; null becomes the empty string.
type RawValue string

func (v *RawValue) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*v = RawValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*v = RawValue(n.String())
		return nil
	}
	var flag bool
	if err := json.Unmarshal(b, &flag); err == nil {
		*v = RawValue(strconv.FormatBool(flag))
		return nil
	}
	return fmt.Errorf("unsupported cell value %s", b)
}

func (v RawValue) String() string {
	return string(v)
}

// TransactionRow is one CSV row before any coercion.
type TransactionRow struct {
	Date        RawValue `json:"Date"`
	Description RawValue `json:"Description"`
	Amount      RawValue `json:"Amount"`
	Currency    RawValue `json:"Currency"`
	AmountINR   RawValue `json:"AmountINR"`
}

type SchemaError struct {
	Row     map[string]RawValue `json:"row"`
	Message string              `json:"message"`
}

// UploadResult is what the backend answers to a CSV upload. The three counts
// are independent; they need not add up to the number of submitted rows.
type UploadResult struct {
	Message           string           `json:"message"`
	TransactionsSaved int              `json:"transactionsSaved"`
	Duplicates        []TransactionRow `json:"duplicates"`
	SchemaErrors      []SchemaError    `json:"schemaErrors"`
}

func (r *UploadResult) HasIssues() bool {
	return len(r.Duplicates) > 0 || len(r.SchemaErrors) > 0
}

// ErrorReportRecord is one line of transaction_errors.csv.
type ErrorReportRecord struct {
	Date        string `json:"Date,omitempty"`
	Description string `json:"Description,omitempty"`
	Amount      string `json:"Amount,omitempty"`
	Currency    string `json:"Currency,omitempty"`
	Error       string `json:"Error"`
}
