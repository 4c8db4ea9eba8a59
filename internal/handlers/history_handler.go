package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sathvik-zluri/moneytrack/internal/logger"
	"github.com/sathvik-zluri/moneytrack/internal/models"
	"github.com/sathvik-zluri/moneytrack/internal/repository"
	"github.com/sathvik-zluri/moneytrack/internal/services/csvreport"
)

type BatchStore interface {
	List(ctx context.Context, limit int) ([]models.UploadBatch, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.UploadBatch, error)
}

type HistoryHandler struct {
	store BatchStore
}

// NewHistoryHandler accepts a nil store; the endpoints then answer 503.
func NewHistoryHandler(store BatchStore) *HistoryHandler {
	return &HistoryHandler{store: store}
}

func (h *HistoryHandler) List(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "upload history is not configured"})
		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	batches, err := h.store.List(c.Request.Context(), limit)
	if err != nil {
		log := logger.FromContext(c.Request.Context())
		log.Error().Err(err).Msg("Failed to list uploads")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if batches == nil {
		batches = []models.UploadBatch{}
	}
	c.JSON(http.StatusOK, gin.H{"items": batches, "count": len(batches)})
}

// Errors rebuilds transaction_errors.csv for a past upload.
func (h *HistoryHandler) Errors(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "upload history is not configured"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch ID"})
		return
	}

	batch, err := h.store.GetByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrBatchNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "batch not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	records, err := batch.Records()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	data, err := csvreport.BuildErrorReport(records)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	sendCSV(c, csvreport.ErrorReportFilename, data)
}
