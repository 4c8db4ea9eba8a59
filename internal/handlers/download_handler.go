package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sathvik-zluri/moneytrack/internal/download"
)

type DownloadHandler struct {
	registry *download.Registry
}

func NewDownloadHandler(r *download.Registry) *DownloadHandler {
	return &DownloadHandler{registry: r}
}

// Serve sends a registered file once. The reference is revoked whether or
// not the write succeeds.
func (h *DownloadHandler) Serve(c *gin.Context) {
	ref := c.Param("ref")
	a, err := h.registry.Open(ref)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "download not found"})
		return
	}
	defer h.registry.Revoke(ref)

	sendCSV(c, a.Name, a.Data)
}

func sendCSV(c *gin.Context, name string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}
