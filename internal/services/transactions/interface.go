package transactions

import (
	"context"

	"github.com/sathvik-zluri/moneytrack/internal/models"
	"github.com/sathvik-zluri/moneytrack/internal/txnapi"
)

// API is the transactions backend. *txnapi.Client implements it.
//
//go:generate mockgen -destination=mocks/mock_api.go -package=mock_transactions -source=interface.go
type API interface {
	List(ctx context.Context, q txnapi.ListQuery) (*txnapi.ListResponse, error)
	Add(ctx context.Context, in models.TransactionInput) (*txnapi.MutationResponse, error)
	Update(ctx context.Context, id int, in models.TransactionInput) (*txnapi.MutationResponse, error)
	Delete(ctx context.Context, id int) (*txnapi.MutationResponse, error)
	UploadCSV(ctx context.Context, file models.UploadCandidateFile) (*models.UploadResult, error)
}

// History records upload attempts. Optional.
type History interface {
	Record(ctx context.Context, batch *models.UploadBatch) error
}
