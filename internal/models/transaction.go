package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DisplayDateLayout is how dates are shown in the table and exported.
	DisplayDateLayout = "02-01-2006"
	// FormDateLayout is what the backend accepts and the edit form holds.
	FormDateLayout = "2006-01-02"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	FormDateLayout,
	DisplayDateLayout,
}

// Date is a calendar date. The backend sends ISO timestamps or plain
// yyyy-mm-dd strings; the UI shows dd-mm-yyyy.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts any layout the backend or the UI produces.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}, nil
		}
	}
	return Date{}, fmt.Errorf("unrecognised date %q", s)
}

func (d Date) Display() string {
	return d.Format(DisplayDateLayout)
}

func (d Date) FormValue() string {
	return d.Format(FormDateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Display())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

type Transaction struct {
	ID          int              `json:"id"`
	Date        Date             `json:"Date"`
	Description string           `json:"Description"`
	Amount      decimal.Decimal  `json:"Amount"`
	Currency    string           `json:"Currency"`
	AmountINR   *decimal.Decimal `json:"AmountINR,omitempty"`
}

// TransactionInput is the body of the add and update endpoints.
type TransactionInput struct {
	Date        string          `json:"Date"`
	Description string          `json:"Description"`
	Amount      decimal.Decimal `json:"Amount"`
	Currency    string          `json:"Currency"`
}

// MarshalJSON sends Amount as a JSON number, the way the form posts it.
func (in TransactionInput) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date        string      `json:"Date"`
		Description string      `json:"Description"`
		Amount      json.Number `json:"Amount"`
		Currency    string      `json:"Currency"`
	}{
		Date:        in.Date,
		Description: in.Description,
		Amount:      json.Number(in.Amount.String()),
		Currency:    in.Currency,
	})
}

// Validate enforces the form's required fields.
func (in TransactionInput) Validate() error {
	var missing []string
	if strings.TrimSpace(in.Date) == "" {
		missing = append(missing, "Date")
	}
	if strings.TrimSpace(in.Description) == "" {
		missing = append(missing, "Description")
	}
	if in.Amount.IsZero() {
		missing = append(missing, "Amount")
	}
	if strings.TrimSpace(in.Currency) == "" {
		missing = append(missing, "Currency")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	if _, err := time.Parse(FormDateLayout, in.Date); err != nil {
		return &ValidationError{Fields: []string{"Date"}, Reason: "must be yyyy-mm-dd"}
	}
	return nil
}

// ValidationError lists form fields that were left empty or malformed.
type ValidationError struct {
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return strings.Join(e.Fields, ", ") + " " + e.Reason
	}
	return "required: " + strings.Join(e.Fields, ", ")
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
