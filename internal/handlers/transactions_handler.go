package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/sathvik-zluri/moneytrack/internal/logger"
	"github.com/sathvik-zluri/moneytrack/internal/models"
	"github.com/sathvik-zluri/moneytrack/internal/services/transactions"
	"github.com/sathvik-zluri/moneytrack/internal/txnapi"
)

type TransactionsHandler struct {
	sessions *SessionStore
}

func NewTransactionsHandler(s *SessionStore) *TransactionsHandler {
	return &TransactionsHandler{sessions: s}
}

type transactionPayload struct {
	Date        string          `json:"Date"`
	Description string          `json:"Description"`
	Amount      decimal.Decimal `json:"Amount"`
	Currency    string          `json:"Currency"`
}

func (p transactionPayload) input() models.TransactionInput {
	return models.TransactionInput{
		Date:        p.Date,
		Description: p.Description,
		Amount:      p.Amount,
		Currency:    p.Currency,
	}
}

// List applies any filters in the query and reloads the page.
func (h *TransactionsHandler) List(c *gin.Context) {
	sess := h.sessions.Get(c)
	page := sess.Page

	if v := c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
			return
		}
		page.SetPage(n)
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		page.SetLimit(n)
	}
	if v := c.Query("frequency"); v != "" {
		if err := page.SetFrequency(v); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if start, end := c.Query("startDate"), c.Query("endDate"); start != "" || end != "" {
		rng, err := parseRange(start, end)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date range, expected yyyy-mm-dd"})
			return
		}
		page.SetDateRange(rng)
	}

	_ = page.Fetch(c.Request.Context())
	respond(c, http.StatusOK, sess, nil)
}

func parseRange(start, end string) (*txnapi.DateRange, error) {
	var rng txnapi.DateRange
	var err error
	if start != "" {
		if rng.Start, err = models.ParseDate(start); err != nil {
			return nil, err
		}
	}
	if end != "" {
		if rng.End, err = models.ParseDate(end); err != nil {
			return nil, err
		}
	}
	return &rng, nil
}

func (h *TransactionsHandler) Create(c *gin.Context) {
	sess := h.sessions.Get(c)

	var payload transactionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	sess.Page.OpenAdd()
	h.submit(c, sess, payload)
}

func (h *TransactionsHandler) Update(c *gin.Context) {
	sess := h.sessions.Get(c)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction ID"})
		return
	}
	var payload transactionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if err := sess.Page.OpenEdit(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	h.submit(c, sess, payload)
}

func (h *TransactionsHandler) submit(c *gin.Context, sess *Session, payload transactionPayload) {
	err := sess.Page.Submit(c.Request.Context(), payload.input())
	if models.IsValidationError(err) {
		respond(c, http.StatusBadRequest, sess, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		log := logger.FromContext(c.Request.Context())
		log.Debug().Err(err).Msg("Submit failed")
	}
	respond(c, http.StatusOK, sess, nil)
}

// Form returns the edit form values for a loaded transaction and marks it
// as the one being edited.
func (h *TransactionsHandler) Form(c *gin.Context) {
	sess := h.sessions.Get(c)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction ID"})
		return
	}
	if err := sess.Page.OpenEdit(id); err != nil {
		if errors.Is(err, transactions.ErrNotLoaded) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, sess.Page.FormValues())
}

func (h *TransactionsHandler) CloseModal(c *gin.Context) {
	sess := h.sessions.Get(c)
	sess.Page.CloseModal()
	respond(c, http.StatusOK, sess, nil)
}

func (h *TransactionsHandler) Delete(c *gin.Context) {
	sess := h.sessions.Get(c)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction ID"})
		return
	}

	_ = sess.Page.Delete(c.Request.Context(), id)
	respond(c, http.StatusOK, sess, nil)
}

func (h *TransactionsHandler) BulkDelete(c *gin.Context) {
	sess := h.sessions.Get(c)

	var payload struct {
		IDs []int `json:"ids"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil || len(payload.IDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids required"})
		return
	}

	_ = sess.Page.Delete(c.Request.Context(), payload.IDs...)
	respond(c, http.StatusOK, sess, nil)
}

// Export offers the loaded page as transactions.csv.
func (h *TransactionsHandler) Export(c *gin.Context) {
	sess := h.sessions.Get(c)

	if err := sess.Page.Export(c.Request.Context()); err != nil {
		log := logger.FromContext(c.Request.Context())
		log.Error().Err(err).Msg("Export failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	respond(c, http.StatusOK, sess, nil)
}
