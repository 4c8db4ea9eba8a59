// Package reconciliation turns the backend's answer to a CSV upload into
// user notifications and, when rows were refused, an error report download.
package reconciliation

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sathvik-zluri/moneytrack/internal/archive"
	"github.com/sathvik-zluri/moneytrack/internal/download"
	"github.com/sathvik-zluri/moneytrack/internal/models"
	"github.com/sathvik-zluri/moneytrack/internal/notify"
	"github.com/sathvik-zluri/moneytrack/internal/services/csvreport"
	"github.com/sathvik-zluri/moneytrack/internal/txnapi"
)

type Outcome string

const (
	FullSuccess    Outcome = "full_success"
	PartialSuccess Outcome = "partial_success"
	NoValidRecords Outcome = "no_valid_records"
	Failure        Outcome = "failure"
)

const NoValidRecordsMessage = "File uploaded but no valid transactions were processed."

// Classify puts a result into an outcome class. The three counts are
// independent; any duplicate or schema error makes the upload partial.
func Classify(res *models.UploadResult) Outcome {
	switch {
	case res.HasIssues():
		return PartialSuccess
	case res.TransactionsSaved > 0:
		return FullSuccess
	default:
		return NoValidRecords
	}
}

type Report struct {
	Outcome Outcome
	Records []models.ErrorReportRecord
}

type Reporter struct {
	notifier notify.Notifier
	sink     download.Sink
	archive  archive.Archiver
	log      zerolog.Logger
}

func NewReporter(n notify.Notifier, sink download.Sink, arch archive.Archiver, log zerolog.Logger) *Reporter {
	if arch == nil {
		arch = archive.Nop{}
	}
	return &Reporter{
		notifier: n,
		sink:     sink,
		archive:  arch,
		log:      log.With().Str("component", "reporter").Logger(),
	}
}

// Report notifies the user about res. Saved rows and refused rows are
// reported separately, so one result can produce both a success and a
// warning. The returned error is a failed report download.
func (r *Reporter) Report(ctx context.Context, res *models.UploadResult) (Report, error) {
	rep := Report{Outcome: Classify(res)}

	if res.TransactionsSaved > 0 {
		r.notifier.Notify(notify.Success, fmt.Sprintf("%s - %d transactions saved.", res.Message, res.TransactionsSaved))
	}

	if res.HasIssues() {
		r.notifier.Notify(notify.Warning, fmt.Sprintf(
			"%s. Duplicates: %d, Schema Errors: %d. Downloading error report...",
			res.Message, len(res.Duplicates), len(res.SchemaErrors),
		))

		rep.Records = csvreport.ErrorRecords(res.Duplicates, res.SchemaErrors)
		data, err := csvreport.BuildErrorReport(rep.Records)
		if err != nil {
			return rep, fmt.Errorf("build error report: %w", err)
		}
		if err := r.sink.Deliver(ctx, csvreport.ErrorReportFilename, data); err != nil {
			return rep, fmt.Errorf("deliver error report: %w", err)
		}
		r.archive.Archive(ctx, csvreport.ErrorReportFilename, data)
	}

	if res.TransactionsSaved == 0 && !res.HasIssues() {
		r.notifier.Notify(notify.Info, NoValidRecordsMessage)
	}

	r.log.Info().
		Str("outcome", string(rep.Outcome)).
		Int("saved", res.TransactionsSaved).
		Int("duplicates", len(res.Duplicates)).
		Int("schema_errors", len(res.SchemaErrors)).
		Msg("Upload reconciled")

	return rep, nil
}

// ReportFailure handles a rejected upload call. Statuses other than 400 and
// 404 are logged only.
func (r *Reporter) ReportFailure(err error) Outcome {
	if msg, ok := txnapi.UploadPolicy.UserMessage(err); ok {
		r.notifier.Notify(notify.Error, msg)
	}
	r.log.Error().Err(err).Msg("Upload failed")
	return Failure
}
