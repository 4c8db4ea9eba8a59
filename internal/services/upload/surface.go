package upload

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sathvik-zluri/moneytrack/internal/models"
)

const (
	Label        = "Upload CSV file"
	PromptIdle   = "Click to upload or drag and drop"
	PromptBusy   = "Uploading..."
	Hint         = "CSV files only (max 1MB)"
	AcceptSuffix = ".csv"
)

// UploadFunc receives every file that passed the gate.
type UploadFunc func(ctx context.Context, file models.UploadCandidateFile) error

type Decision int

const (
	Ignored Decision = iota
	Rejected
	Accepted
)

func (d Decision) String() string {
	switch d {
	case Rejected:
		return "rejected"
	case Accepted:
		return "accepted"
	default:
		return "ignored"
	}
}

type DragEvent string

const (
	DragEnter DragEvent = "dragenter"
	DragOver  DragEvent = "dragover"
	DragLeave DragEvent = "dragleave"
)

var ErrUnknownDragEvent = errors.New("unknown drag event")

type Source string

const (
	SourceDrop   Source = "drop"
	SourcePicker Source = "picker"
)

// View is what the control renders.
type View struct {
	DragActive bool   `json:"dragActive"`
	Disabled   bool   `json:"disabled"`
	Label      string `json:"label"`
	Accept     string `json:"accept"`
	Prompt     string `json:"prompt"`
	Hint       string `json:"hint,omitempty"`
	InputValue string `json:"inputValue"`
}

// Surface is the upload drop-zone. Drops and picker changes both end up in
// handleCandidateFile. Failures of the upload callback are logged, never
// shown to the user.
type Surface struct {
	mu         sync.Mutex
	dragActive bool
	inputValue string

	gate     Gate
	onUpload UploadFunc
	loading  func() bool
	log      zerolog.Logger
}

func NewSurface(gate Gate, onUpload UploadFunc, loading func() bool, log zerolog.Logger) *Surface {
	if loading == nil {
		loading = func() bool { return false }
	}
	return &Surface{
		gate:     gate,
		onUpload: onUpload,
		loading:  loading,
		log:      log,
	}
}

func (s *Surface) BeginDrag() {
	s.mu.Lock()
	s.dragActive = true
	s.mu.Unlock()
}

func (s *Surface) EndDrag() {
	s.mu.Lock()
	s.dragActive = false
	s.mu.Unlock()
}

func (s *Surface) Drag(ev DragEvent) error {
	switch ev {
	case DragEnter, DragOver:
		s.BeginDrag()
	case DragLeave:
		s.EndDrag()
	default:
		return ErrUnknownDragEvent
	}
	return nil
}

// Click reports whether the hidden file input would open.
func (s *Surface) Click() bool {
	return !s.loading()
}

// Drop handles a drop payload. Only the first file is used.
func (s *Surface) Drop(ctx context.Context, files []models.UploadCandidateFile) Decision {
	s.EndDrag()
	if len(files) == 0 || s.loading() {
		return Ignored
	}

	d, _ := s.handleCandidateFile(ctx, files[0])
	s.EndDrag()
	return d
}

// Change handles a file-input change. The input is cleared after a
// successful upload so the same file can be picked again.
func (s *Surface) Change(ctx context.Context, files []models.UploadCandidateFile) Decision {
	if len(files) == 0 || s.loading() {
		return Ignored
	}

	s.mu.Lock()
	s.inputValue = files[0].Name
	s.mu.Unlock()

	d, err := s.handleCandidateFile(ctx, files[0])
	if d == Accepted && err == nil {
		s.mu.Lock()
		s.inputValue = ""
		s.mu.Unlock()
	}
	return d
}

func (s *Surface) handleCandidateFile(ctx context.Context, file models.UploadCandidateFile) (Decision, error) {
	if err := s.gate.Check(file); err != nil {
		return Rejected, err
	}
	if s.onUpload == nil {
		return Accepted, nil
	}

	if err := s.onUpload(ctx, file); err != nil {
		s.log.Error().Err(err).Str("file", file.Name).Msg("Upload error:")
		return Accepted, err
	}
	return Accepted, nil
}

func (s *Surface) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		DragActive: s.dragActive,
		Label:      Label,
		Accept:     AcceptSuffix,
		InputValue: s.inputValue,
	}
	if s.loading() {
		v.Disabled = true
		v.Prompt = PromptBusy
	} else {
		v.Prompt = PromptIdle
		v.Hint = Hint
	}
	return v
}

func (s *Surface) InputValue() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inputValue
}
