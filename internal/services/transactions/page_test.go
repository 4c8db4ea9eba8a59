package transactions_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sathvik-zluri/moneytrack/internal/models"
	"github.com/sathvik-zluri/moneytrack/internal/notify"
	"github.com/sathvik-zluri/moneytrack/internal/services/transactions"
	mock_transactions "github.com/sathvik-zluri/moneytrack/internal/services/transactions/mocks"
	"github.com/sathvik-zluri/moneytrack/internal/services/upload"
	"github.com/sathvik-zluri/moneytrack/internal/txnapi"
)

type memorySink struct {
	mu    sync.Mutex
	files map[string][]byte
	err   error
}

func (s *memorySink) Deliver(_ context.Context, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.files == nil {
		s.files = map[string][]byte{}
	}
	s.files[name] = data
	return nil
}

type fixture struct {
	api     *mock_transactions.MockAPI
	history *mock_transactions.MockHistory
	out     *notify.Outbox
	sink    *memorySink
	logs    *bytes.Buffer
	page    *transactions.Page
}

func newFixture(t *testing.T, withHistory bool) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		api:  mock_transactions.NewMockAPI(ctrl),
		out:  notify.NewOutbox(),
		sink: &memorySink{},
		logs: &bytes.Buffer{},
	}
	deps := transactions.Deps{
		API:      f.api,
		Notifier: f.out,
		Sink:     f.sink,
		Log:      zerolog.New(f.logs),
	}
	if withHistory {
		f.history = mock_transactions.NewMockHistory(ctrl)
		deps.History = f.history
	}
	f.page = transactions.NewPage(deps)
	return f
}

func sampleTransactions() []models.Transaction {
	inr := decimal.NewFromInt(8300)
	return []models.Transaction{
		{ID: 11, Date: models.NewDate(2025, 1, 9), Description: "Groceries", Amount: decimal.RequireFromString("100.25"), Currency: "USD", AmountINR: &inr},
		{ID: 12, Date: models.NewDate(2025, 1, 3), Description: "Rent, Jan", Amount: decimal.NewFromInt(900), Currency: "EUR"},
	}
}

func listResponse(msg string) *txnapi.ListResponse {
	return &txnapi.ListResponse{Message: msg, Data: sampleTransactions(), Pagination: txnapi.Pagination{TotalCount: 42}}
}

func apiErr(kind txnapi.Kind, status int, body string) error {
	e := &txnapi.Error{Kind: kind, Status: status}
	if body != "" {
		_ = json.Unmarshal([]byte(body), &e.Body)
	}
	return e
}

func TestPage_Fetch(t *testing.T) {
	tests := []struct {
		name      string
		resp      *txnapi.ListResponse
		err       error
		wantNotes []notify.Notification
		wantCount int
		wantErr   bool
	}{
		{
			name:      "backend message",
			resp:      listResponse("Transactions retrieved"),
			wantNotes: []notify.Notification{{Severity: notify.Success, Message: "Transactions retrieved"}},
			wantCount: 2,
		},
		{
			name:      "default message",
			resp:      listResponse(""),
			wantNotes: []notify.Notification{{Severity: notify.Success, Message: transactions.FetchedMessage}},
			wantCount: 2,
		},
		{
			name:      "no response",
			err:       apiErr(txnapi.KindNetwork, 0, ""),
			wantNotes: []notify.Notification{{Severity: notify.Error, Message: "Failed to fetch transactions. Please try again."}},
			wantErr:   true,
		},
		{
			name:      "400 shows errors",
			err:       apiErr(txnapi.KindClient, 400, `{"errors":"Invalid date range"}`),
			wantNotes: []notify.Notification{{Severity: notify.Error, Message: "Invalid date range"}},
			wantErr:   true,
		},
		{
			name:      "500 is silent",
			err:       apiErr(txnapi.KindServer, 500, `{"errors":"db down"}`),
			wantNotes: []notify.Notification{},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false)
			f.api.EXPECT().
				List(gomock.Any(), txnapi.ListQuery{Page: 1, Limit: 10, Sort: "desc", Frequency: "365"}).
				Return(tt.resp, tt.err)

			err := f.page.Fetch(context.Background())

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantNotes, f.out.Drain().Notifications)
			st := f.page.State()
			assert.Len(t, st.Transactions, tt.wantCount)
			assert.False(t, st.Loading)
		})
	}
}

func TestPage_FetchCustomRange(t *testing.T) {
	f := newFixture(t, false)
	rng := &txnapi.DateRange{Start: models.NewDate(2025, 1, 1), End: models.NewDate(2025, 1, 31)}

	require.NoError(t, f.page.SetFrequency(txnapi.FrequencyCustom))
	f.page.SetDateRange(rng)
	f.page.SetPage(3)
	f.page.SetLimit(25)

	f.api.EXPECT().
		List(gomock.Any(), txnapi.ListQuery{Page: 3, Limit: 25, Sort: "desc", Frequency: "custom", Range: rng}).
		Return(listResponse(""), nil)

	require.NoError(t, f.page.Fetch(context.Background()))
	st := f.page.State()
	assert.Equal(t, "2025-01-01", st.StartDate)
	assert.Equal(t, 42, st.TotalCount)

	assert.ErrorIs(t, f.page.SetFrequency("14"), transactions.ErrUnknownFrequency)
}

func TestPage_SubmitAdd(t *testing.T) {
	f := newFixture(t, false)
	in := models.TransactionInput{Date: "2025-01-10", Description: "Books", Amount: decimal.NewFromInt(30), Currency: "USD"}

	f.page.OpenAdd()
	gomock.InOrder(
		f.api.EXPECT().Add(gomock.Any(), in).Return(&txnapi.MutationResponse{}, nil),
		f.api.EXPECT().List(gomock.Any(), gomock.Any()).Return(listResponse(""), nil),
	)

	require.NoError(t, f.page.Submit(context.Background(), in))

	notes := f.out.Drain().Notifications
	require.Len(t, notes, 2)
	assert.Equal(t, notify.Notification{Severity: notify.Success, Message: transactions.AddedMessage}, notes[0])
	st := f.page.State()
	assert.False(t, st.ShowModal)
	assert.Nil(t, st.Editable)
}

func TestPage_SubmitUpdate(t *testing.T) {
	f := newFixture(t, false)
	f.api.EXPECT().List(gomock.Any(), gomock.Any()).Return(listResponse(""), nil).Times(2)
	require.NoError(t, f.page.Fetch(context.Background()))
	f.out.Drain()

	require.NoError(t, f.page.OpenEdit(12))
	assert.Equal(t, transactions.FormValues{
		Date: "2025-01-03", Description: "Rent, Jan", Amount: decimal.NewFromInt(900), Currency: "EUR",
	}, f.page.FormValues())

	in := models.TransactionInput{Date: "2025-01-03", Description: "Rent", Amount: decimal.NewFromInt(950), Currency: "EUR"}
	f.api.EXPECT().Update(gomock.Any(), 12, in).Return(&txnapi.MutationResponse{Message: "Updated"}, nil)

	require.NoError(t, f.page.Submit(context.Background(), in))
	assert.Equal(t, notify.Notification{Severity: notify.Success, Message: "Updated"}, f.out.Drain().Notifications[0])
	assert.Equal(t, transactions.FormValues{}, f.page.FormValues())
}

func TestPage_SubmitFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []notify.Notification
	}{
		{"no response", apiErr(txnapi.KindNetwork, 0, ""), []notify.Notification{{Severity: notify.Error, Message: "Failed to save transaction. Please try again."}}},
		{"409 error field", apiErr(txnapi.KindClient, 409, `{"error":"Duplicate transaction"}`), []notify.Notification{{Severity: notify.Error, Message: "Duplicate transaction"}}},
		{"404 errors field", apiErr(txnapi.KindClient, 404, `{"errors":"Not found"}`), []notify.Notification{{Severity: notify.Error, Message: "Not found"}}},
		{"400 empty body", apiErr(txnapi.KindClient, 400, `{}`), []notify.Notification{{Severity: notify.Error, Message: txnapi.FallbackMessage}}},
		{"422 silent", apiErr(txnapi.KindClient, 422, `{"error":"x"}`), []notify.Notification{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false)
			f.page.OpenAdd()
			in := models.TransactionInput{Date: "2025-01-10", Description: "Books", Amount: decimal.NewFromInt(30), Currency: "USD"}
			f.api.EXPECT().Add(gomock.Any(), in).Return(nil, tt.err)

			assert.Error(t, f.page.Submit(context.Background(), in))
			assert.Equal(t, tt.want, f.out.Drain().Notifications)
			st := f.page.State()
			assert.True(t, st.ShowModal)
			assert.False(t, st.Loading)
		})
	}
}

func TestPage_SubmitInvalid(t *testing.T) {
	f := newFixture(t, false)

	err := f.page.Submit(context.Background(), models.TransactionInput{Date: "10-01-2025", Description: "x", Amount: decimal.NewFromInt(1), Currency: "USD"})
	assert.True(t, models.IsValidationError(err))
	assert.Len(t, f.out.Drain().Notifications, 1)
}

func TestPage_Delete(t *testing.T) {
	f := newFixture(t, false)
	f.api.EXPECT().Delete(gomock.Any(), 1).Return(&txnapi.MutationResponse{}, nil)
	f.api.EXPECT().Delete(gomock.Any(), 2).Return(nil, apiErr(txnapi.KindClient, 404, `{"error":"Not found"}`))
	f.api.EXPECT().Delete(gomock.Any(), 3).Return(&txnapi.MutationResponse{}, nil)
	f.api.EXPECT().List(gomock.Any(), gomock.Any()).Return(listResponse(""), nil)

	require.NoError(t, f.page.Delete(context.Background(), 1, 2, 3))

	notes := f.out.Drain().Notifications
	require.Len(t, notes, 3)
	assert.Equal(t, notify.Notification{Severity: notify.Success, Message: "2 transaction(s) deleted successfully!"}, notes[0])
	assert.Equal(t, notify.Notification{Severity: notify.Error, Message: "1 transaction(s) failed to delete. Please try again."}, notes[1])
	assert.False(t, f.page.Loading())
}

func TestPage_UploadThroughSurface(t *testing.T) {
	f := newFixture(t, true)
	file := models.UploadCandidateFile{Name: "bank.csv", MediaType: "text/csv", Data: []byte("Date\n")}

	f.api.EXPECT().UploadCSV(gomock.Any(), file).Return(&models.UploadResult{
		Message:           "Upload complete",
		TransactionsSaved: 1,
		Duplicates:        []models.TransactionRow{{Date: "01-01-2025", Description: "Tea", Amount: "2", Currency: "USD"}},
		SchemaErrors:      []models.SchemaError{{Row: map[string]models.RawValue{"Date": "x"}, Message: "Invalid date"}},
	}, nil)
	f.history.EXPECT().Record(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, b *models.UploadBatch) error {
		assert.Equal(t, "bank.csv", b.Filename)
		assert.Equal(t, "partial_success", b.Outcome)
		assert.Equal(t, 1, b.DuplicateCount)
		assert.Equal(t, 1, b.SchemaErrorCount)
		assert.NotNil(t, b.CompletedAt)
		records, err := b.Records()
		assert.NoError(t, err)
		assert.Len(t, records, 2)
		return nil
	})
	f.api.EXPECT().List(gomock.Any(), gomock.Any()).Return(listResponse(""), nil)

	f.page.OpenUpload()
	d := f.page.Surface().Change(context.Background(), []models.UploadCandidateFile{file})

	assert.Equal(t, upload.Accepted, d)
	notes := f.out.Drain().Notifications
	require.Len(t, notes, 3)
	assert.Equal(t, "Upload complete - 1 transactions saved.", notes[0].Message)
	assert.Equal(t, notify.Warning, notes[1].Severity)
	assert.Equal(t, transactions.FetchedMessage, notes[2].Message)

	rows, err := csv.NewReader(bytes.NewReader(f.sink.files["transaction_errors.csv"])).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	st := f.page.State()
	assert.False(t, st.ShowUploadModal)
	assert.False(t, st.Loading)
	assert.Empty(t, st.Upload.InputValue)
}

func TestPage_UploadFailureKeepsModal(t *testing.T) {
	f := newFixture(t, true)
	file := models.UploadCandidateFile{Name: "bank.csv"}

	f.api.EXPECT().UploadCSV(gomock.Any(), file).Return(nil, apiErr(txnapi.KindClient, 400, `{"message":"Invalid CSV"}`))
	f.history.EXPECT().Record(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, b *models.UploadBatch) error {
		assert.Equal(t, "failure", b.Outcome)
		return errors.New("db unavailable")
	})

	f.page.OpenUpload()
	assert.NoError(t, f.page.HandleFileUpload(context.Background(), file))

	assert.Equal(t, []notify.Notification{{Severity: notify.Error, Message: "Invalid CSV"}}, f.out.Drain().Notifications)
	assert.True(t, f.page.State().ShowUploadModal)
	assert.Contains(t, f.logs.String(), "Failed to record upload")
}

func TestPage_UploadReportFailureIsLogged(t *testing.T) {
	f := newFixture(t, false)
	f.sink.err = errors.New("disk full")
	file := models.UploadCandidateFile{Name: "bank.csv"}

	f.api.EXPECT().UploadCSV(gomock.Any(), file).Return(&models.UploadResult{
		Message:      "Upload complete",
		SchemaErrors: []models.SchemaError{{Message: "bad"}},
	}, nil)

	d := f.page.Surface().Drop(context.Background(), []models.UploadCandidateFile{file})

	assert.Equal(t, upload.Accepted, d)
	assert.Contains(t, f.logs.String(), "Upload error:")
	assert.Contains(t, f.logs.String(), "disk full")
	assert.False(t, f.page.Loading())
}

func TestPage_UploadRejectedByGate(t *testing.T) {
	f := newFixture(t, false)

	d := f.page.Surface().Drop(context.Background(), []models.UploadCandidateFile{{Name: "bank.xlsx"}})

	assert.Equal(t, upload.Rejected, d)
	assert.Equal(t, []notify.Notification{{Severity: notify.Error, Message: upload.RejectMessage}}, f.out.Drain().Notifications)
}

func TestPage_Export(t *testing.T) {
	f := newFixture(t, false)
	f.api.EXPECT().List(gomock.Any(), gomock.Any()).Return(listResponse(""), nil)
	require.NoError(t, f.page.Fetch(context.Background()))

	require.NoError(t, f.page.Export(context.Background()))

	rows, err := csv.NewReader(bytes.NewReader(f.sink.files["transactions.csv"])).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Date", "Description", "Amount", "Currency"},
		{"09-01-2025", "Groceries", "100.25", "USD"},
		{"03-01-2025", "Rent, Jan", "900", "EUR"},
	}, rows)
}

func TestPage_OpenEditUnknown(t *testing.T) {
	f := newFixture(t, false)
	assert.ErrorIs(t, f.page.OpenEdit(99), transactions.ErrNotLoaded)
}
