package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sathvik-zluri/moneytrack/internal/logger"
	"github.com/sathvik-zluri/moneytrack/internal/models"
	"github.com/sathvik-zluri/moneytrack/internal/services/upload"
)

type UploadHandler struct {
	sessions *SessionStore
}

func NewUploadHandler(s *SessionStore) *UploadHandler {
	return &UploadHandler{sessions: s}
}

func (h *UploadHandler) Open(c *gin.Context) {
	sess := h.sessions.Get(c)
	sess.Page.OpenUpload()
	respond(c, http.StatusOK, sess, nil)
}

func (h *UploadHandler) Close(c *gin.Context) {
	sess := h.sessions.Get(c)
	sess.Page.CloseUpload()
	respond(c, http.StatusOK, sess, nil)
}

// Drag tracks dragenter / dragover / dragleave on the drop zone.
func (h *UploadHandler) Drag(c *gin.Context) {
	sess := h.sessions.Get(c)

	var payload struct {
		Event upload.DragEvent `json:"event"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if err := sess.Page.Surface().Drag(payload.Event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sess.Page.Surface().View())
}

// Browse is a click on the drop zone. The file dialog only opens when no
// upload is running.
func (h *UploadHandler) Browse(c *gin.Context) {
	sess := h.sessions.Get(c)
	c.JSON(http.StatusOK, gin.H{
		"open":   sess.Page.Surface().Click(),
		"upload": sess.Page.Surface().View(),
	})
}

// Upload receives a drop or a file-input change. Zero files is a valid,
// silently ignored selection.
func (h *UploadHandler) Upload(c *gin.Context) {
	sess := h.sessions.Get(c)
	log := logger.FromContext(c.Request.Context())

	source := upload.Source(c.DefaultPostForm("source", string(upload.SourcePicker)))
	if source != upload.SourceDrop && source != upload.SourcePicker {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source must be drop or picker"})
		return
	}

	var files []models.UploadCandidateFile
	if form, err := c.MultipartForm(); err == nil {
		for _, fh := range form.File["file"] {
			f, err := readCandidate(fh)
			if err != nil {
				log.Error().Err(err).Str("file", fh.Filename).Msg("Failed to read uploaded file")
				c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read uploaded file"})
				return
			}
			files = append(files, f)
		}
	}

	log.Info().Str("source", string(source)).Int("files", len(files)).Msg("Upload received")

	var d upload.Decision
	if source == upload.SourceDrop {
		d = sess.Page.Surface().Drop(c.Request.Context(), files)
	} else {
		d = sess.Page.Surface().Change(c.Request.Context(), files)
	}

	respond(c, http.StatusOK, sess, gin.H{"decision": d.String()})
}

func readCandidate(fh *multipart.FileHeader) (models.UploadCandidateFile, error) {
	f, err := fh.Open()
	if err != nil {
		return models.UploadCandidateFile{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return models.UploadCandidateFile{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return models.UploadCandidateFile{
		Name:      fh.Filename,
		MediaType: fh.Header.Get("Content-Type"),
		Data:      data,
	}, nil
}
