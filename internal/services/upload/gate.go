// Package upload holds the drop-zone / file-picker control and the CSV type
// gate in front of it.
package upload

import (
	"errors"
	"strings"

	"github.com/sathvik-zluri/moneytrack/internal/models"
	"github.com/sathvik-zluri/moneytrack/internal/notify"
)

const RejectMessage = "Please upload a CSV file"

var ErrRejected = errors.New("file is not a .csv")

// Accepts checks the name suffix only. The check is case-sensitive, so
// REPORT.CSV is refused.
func Accepts(name string) bool {
	return strings.HasSuffix(name, ".csv")
}

// Gate refuses anything that is not a .csv file and tells the user so.
type Gate struct {
	notifier notify.Notifier
}

func NewGate(n notify.Notifier) Gate {
	return Gate{notifier: n}
}

func (g Gate) Check(file models.UploadCandidateFile) error {
	if Accepts(file.Name) {
		return nil
	}
	if g.notifier != nil {
		g.notifier.Notify(notify.Error, RejectMessage)
	}
	return ErrRejected
}
