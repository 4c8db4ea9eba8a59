// Package transactions is the transactions page: the loaded list, filters,
// modals and the operations behind every button on it.
package transactions

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/sathvik-zluri/moneytrack/internal/archive"
	"github.com/sathvik-zluri/moneytrack/internal/download"
	"github.com/sathvik-zluri/moneytrack/internal/models"
	"github.com/sathvik-zluri/moneytrack/internal/notify"
	"github.com/sathvik-zluri/moneytrack/internal/services/csvreport"
	"github.com/sathvik-zluri/moneytrack/internal/services/reconciliation"
	"github.com/sathvik-zluri/moneytrack/internal/services/upload"
	"github.com/sathvik-zluri/moneytrack/internal/txnapi"
)

const (
	DefaultPage      = 1
	DefaultLimit     = 10
	DefaultSort      = "desc"
	DefaultFrequency = "365"

	FetchedMessage = "Fetched transactions successfully!"
	AddedMessage   = "Transaction added successfully!"
	UpdatedMessage = "Transaction updated successfully!"
)

// Frequencies are the selectable look-back windows, in days, plus "custom".
var Frequencies = []string{"7", "30", "365", txnapi.FrequencyCustom}

var (
	ErrBusy             = errors.New("an upload is already in progress")
	ErrUnknownFrequency = errors.New("unknown frequency")
	ErrNotLoaded        = errors.New("transaction is not on the current page")
)

type Filters struct {
	Page      int               `json:"page"`
	Limit     int               `json:"limit"`
	Sort      string            `json:"sort"`
	Frequency string            `json:"frequency"`
	Range     *txnapi.DateRange `json:"-"`
}

// FormValues is what the add/edit form shows. Date is yyyy-mm-dd.
type FormValues struct {
	Date        string          `json:"Date"`
	Description string          `json:"Description"`
	Amount      decimal.Decimal `json:"Amount"`
	Currency    string          `json:"Currency"`
}

type State struct {
	Transactions    []models.Transaction `json:"transactions"`
	TotalCount      int                  `json:"totalCount"`
	Loading         bool                 `json:"loading"`
	Filters         Filters              `json:"filters"`
	StartDate       string               `json:"startDate,omitempty"`
	EndDate         string               `json:"endDate,omitempty"`
	Editable        *models.Transaction  `json:"editable"`
	ShowModal       bool                 `json:"showModal"`
	ShowUploadModal bool                 `json:"showUploadModal"`
	Upload          upload.View          `json:"upload"`
}

type Deps struct {
	API      API
	Notifier notify.Notifier
	Sink     download.Sink
	Archive  archive.Archiver
	History  History
	Log      zerolog.Logger

	Limit     int
	Frequency string
}

// Page owns the state of one user's transactions view. Every operation
// clears its share of the loading flag on return, whatever the outcome.
type Page struct {
	api      API
	notifier notify.Notifier
	sink     download.Sink
	reporter *reconciliation.Reporter
	history  History
	log      zerolog.Logger
	surface  *upload.Surface

	loading   atomic.Int32
	uploading atomic.Bool

	mu              sync.Mutex
	transactions    []models.Transaction
	totalCount      int
	filters         Filters
	editable        *models.Transaction
	showModal       bool
	showUploadModal bool
}

func NewPage(d Deps) *Page {
	limit := d.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	frequency := d.Frequency
	if !slices.Contains(Frequencies, frequency) {
		frequency = DefaultFrequency
	}

	p := &Page{
		api:      d.API,
		notifier: d.Notifier,
		sink:     d.Sink,
		reporter: reconciliation.NewReporter(d.Notifier, d.Sink, d.Archive, d.Log),
		history:  d.History,
		log:      d.Log.With().Str("component", "page").Logger(),
		filters: Filters{
			Page:      DefaultPage,
			Limit:     limit,
			Sort:      DefaultSort,
			Frequency: frequency,
		},
		transactions: []models.Transaction{},
	}
	p.surface = upload.NewSurface(upload.NewGate(d.Notifier), p.HandleFileUpload, p.Loading, d.Log)
	return p
}

func (p *Page) Surface() *upload.Surface {
	return p.surface
}

func (p *Page) Loading() bool {
	return p.loading.Load() > 0
}

func (p *Page) begin() func() {
	p.loading.Add(1)
	return func() { p.loading.Add(-1) }
}

func (p *Page) State() State {
	view := p.surface.View()

	p.mu.Lock()
	defer p.mu.Unlock()

	s := State{
		Transactions:    slices.Clone(p.transactions),
		TotalCount:      p.totalCount,
		Loading:         p.Loading(),
		Filters:         p.filters,
		ShowModal:       p.showModal,
		ShowUploadModal: p.showUploadModal,
		Upload:          view,
	}
	if r := p.filters.Range; r != nil {
		s.StartDate = r.Start.FormValue()
		s.EndDate = r.End.FormValue()
	}
	if p.editable != nil {
		e := *p.editable
		s.Editable = &e
	}
	return s
}

func (p *Page) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	p.mu.Lock()
	p.filters.Page = page
	p.mu.Unlock()
}

func (p *Page) SetLimit(limit int) {
	if limit < 1 {
		limit = DefaultLimit
	}
	p.mu.Lock()
	p.filters.Limit = limit
	p.mu.Unlock()
}

func (p *Page) SetFrequency(frequency string) error {
	if !slices.Contains(Frequencies, frequency) {
		return fmt.Errorf("%w: %q", ErrUnknownFrequency, frequency)
	}
	p.mu.Lock()
	p.filters.Frequency = frequency
	p.mu.Unlock()
	return nil
}

// SetDateRange sets the custom window. A nil range clears it.
func (p *Page) SetDateRange(r *txnapi.DateRange) {
	p.mu.Lock()
	p.filters.Range = r
	p.mu.Unlock()
}

func (p *Page) OpenAdd() {
	p.mu.Lock()
	p.showModal = true
	p.editable = nil
	p.mu.Unlock()
}

// OpenEdit opens the form on a transaction from the loaded page.
func (p *Page) OpenEdit(id int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.transactions {
		if p.transactions[i].ID == id {
			tx := p.transactions[i]
			p.editable = &tx
			p.showModal = true
			return nil
		}
	}
	return ErrNotLoaded
}

func (p *Page) CloseModal() {
	p.mu.Lock()
	p.showModal = false
	p.mu.Unlock()
}

func (p *Page) OpenUpload() {
	p.mu.Lock()
	p.showUploadModal = true
	p.mu.Unlock()
}

func (p *Page) CloseUpload() {
	p.mu.Lock()
	p.showUploadModal = false
	p.mu.Unlock()
}

// FormValues fills the form from the transaction being edited. With nothing
// being edited the form is blank.
func (p *Page) FormValues() FormValues {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.editable == nil {
		return FormValues{}
	}
	return FormValues{
		Date:        p.editable.Date.FormValue(),
		Description: p.editable.Description,
		Amount:      p.editable.Amount,
		Currency:    p.editable.Currency,
	}
}

func (p *Page) query() txnapi.ListQuery {
	p.mu.Lock()
	defer p.mu.Unlock()

	q := txnapi.ListQuery{
		Page:      p.filters.Page,
		Limit:     p.filters.Limit,
		Sort:      p.filters.Sort,
		Frequency: p.filters.Frequency,
	}
	if q.Frequency == txnapi.FrequencyCustom && p.filters.Range != nil {
		r := *p.filters.Range
		q.Range = &r
	}
	return q
}

// Fetch loads the current page of transactions with the current filters.
func (p *Page) Fetch(ctx context.Context) error {
	defer p.begin()()

	q := p.query()
	resp, err := p.api.List(ctx, q)
	if err != nil {
		if msg, ok := txnapi.ListPolicy.UserMessage(err); ok {
			p.notifier.Notify(notify.Error, msg)
		}
		p.log.Error().Err(err).Int("page", q.Page).Str("frequency", q.Frequency).Msg("Failed to fetch transactions")
		return err
	}

	data := resp.Data
	if data == nil {
		data = []models.Transaction{}
	}
	p.mu.Lock()
	p.transactions = data
	p.totalCount = resp.Pagination.TotalCount
	p.mu.Unlock()

	p.notifier.Notify(notify.Success, orDefault(resp.Message, FetchedMessage))
	return nil
}

// Submit adds a transaction, or updates the one being edited, then reloads.
func (p *Page) Submit(ctx context.Context, in models.TransactionInput) error {
	if err := in.Validate(); err != nil {
		p.notifier.Notify(notify.Error, err.Error())
		return err
	}

	p.mu.Lock()
	editable := p.editable
	p.mu.Unlock()

	if err := p.save(ctx, editable, in); err != nil {
		return err
	}

	p.mu.Lock()
	p.showModal = false
	p.editable = nil
	p.mu.Unlock()

	return p.Fetch(ctx)
}

func (p *Page) save(ctx context.Context, editable *models.Transaction, in models.TransactionInput) error {
	defer p.begin()()

	var (
		resp   *txnapi.MutationResponse
		err    error
		policy = txnapi.AddPolicy
		done   = AddedMessage
	)
	if editable == nil {
		resp, err = p.api.Add(ctx, in)
	} else {
		policy, done = txnapi.UpdatePolicy, UpdatedMessage
		resp, err = p.api.Update(ctx, editable.ID, in)
	}
	if err != nil {
		if msg, ok := policy.UserMessage(err); ok {
			p.notifier.Notify(notify.Error, msg)
		}
		p.log.Error().Err(err).Str("endpoint", string(policy.Endpoint)).Msg("Failed to save transaction")
		return err
	}

	var msg string
	if resp != nil {
		msg = resp.Message
	}
	p.notifier.Notify(notify.Success, orDefault(msg, done))
	return nil
}

// Delete removes every id independently and reports how many went through,
// then reloads.
func (p *Page) Delete(ctx context.Context, ids ...int) error {
	if len(ids) == 0 {
		return nil
	}

	end := p.begin()
	var (
		wg     sync.WaitGroup
		ok     atomic.Int32
		failed atomic.Int32
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if _, err := p.api.Delete(ctx, id); err != nil {
				failed.Add(1)
				p.log.Error().Err(err).Int("id", id).Msg("Failed to delete transaction")
				return
			}
			ok.Add(1)
		}(id)
	}
	wg.Wait()
	end()

	if n := ok.Load(); n > 0 {
		p.notifier.Notify(notify.Success, fmt.Sprintf("%d transaction(s) deleted successfully!", n))
	}
	if n := failed.Load(); n > 0 {
		p.notifier.Notify(notify.Error, fmt.Sprintf("%d transaction(s) failed to delete. Please try again.", n))
	}

	return p.Fetch(ctx)
}

// HandleFileUpload is the upload surface's callback. Backend failures are
// reported to the user here and not returned; the returned error is a
// failure to hand over the error report, which the surface only logs.
func (p *Page) HandleFileUpload(ctx context.Context, file models.UploadCandidateFile) error {
	if !p.uploading.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer p.uploading.Store(false)

	batch := &models.UploadBatch{
		ID:        uuid.New(),
		Filename:  file.Name,
		StartedAt: time.Now(),
	}

	end := p.begin()
	res, err := p.api.UploadCSV(ctx, file)
	if err != nil {
		end()
		batch.Outcome = string(p.reporter.ReportFailure(err))
		batch.Message = err.Error()
		p.record(ctx, batch)
		return nil
	}

	rep, reportErr := p.reporter.Report(ctx, res)
	end()

	batch.Outcome = string(rep.Outcome)
	batch.Message = res.Message
	batch.TransactionsSaved = res.TransactionsSaved
	batch.DuplicateCount = len(res.Duplicates)
	batch.SchemaErrorCount = len(res.SchemaErrors)
	if err := batch.SetRecords(rep.Records); err != nil {
		p.log.Warn().Err(err).Msg("Failed to keep error rows")
	}
	p.record(ctx, batch)

	if reportErr != nil {
		return reportErr
	}

	p.CloseUpload()
	_ = p.Fetch(ctx)
	return nil
}

func (p *Page) record(ctx context.Context, batch *models.UploadBatch) {
	now := time.Now()
	batch.CompletedAt = &now
	if p.history == nil {
		return
	}
	if err := p.history.Record(ctx, batch); err != nil {
		p.log.Warn().Err(err).Str("batch_id", batch.ID.String()).Msg("Failed to record upload")
	}
}

// Export downloads the currently loaded page as transactions.csv.
func (p *Page) Export(ctx context.Context) error {
	p.mu.Lock()
	txs := slices.Clone(p.transactions)
	p.mu.Unlock()

	data, err := csvreport.BuildExport(txs)
	if err != nil {
		return fmt.Errorf("build export: %w", err)
	}
	if err := p.sink.Deliver(ctx, csvreport.ExportFilename, data); err != nil {
		return fmt.Errorf("deliver export: %w", err)
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
