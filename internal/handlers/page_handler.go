package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type frequencyOption struct {
	Value string
	Label string
}

var frequencyOptions = []frequencyOption{
	{Value: "7", Label: "Last 1 Week"},
	{Value: "30", Label: "Last 1 Month"},
	{Value: "365", Label: "Last 1 Year"},
	{Value: "custom", Label: "Date Range"},
}

type PageHandler struct {
	sessions *SessionStore
}

func NewPageHandler(s *SessionStore) *PageHandler {
	return &PageHandler{sessions: s}
}

// Index renders the page shell; the table is filled in by /api/transactions.
func (h *PageHandler) Index(c *gin.Context) {
	sess := h.sessions.Get(c)
	st := sess.Page.State()

	c.HTML(http.StatusOK, "index.html", gin.H{
		"Frequencies": frequencyOptions,
		"Frequency":   st.Filters.Frequency,
		"Upload":      st.Upload,
	})
}

// State returns the page without reloading it, along with anything queued.
func (h *PageHandler) State(c *gin.Context) {
	respond(c, http.StatusOK, h.sessions.Get(c), nil)
}

