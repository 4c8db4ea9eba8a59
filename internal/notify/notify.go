// Package notify carries user-visible notifications (toasts) from the page
// core to whatever surface displays them.
package notify

import (
	"fmt"
	"io"
	"sync"
)

type Severity string

const (
	Success Severity = "success"
	Warning Severity = "warning"
	Info    Severity = "info"
	Error   Severity = "error"
)

type Notification struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Notifier receives user-visible messages.
type Notifier interface {
	Notify(severity Severity, message string)
}

// Download is a generated file offered to the user.
type Download struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Batch is everything queued for the user since the last drain.
type Batch struct {
	Notifications []Notification `json:"notifications"`
	Downloads     []Download     `json:"downloads"`
}

// Outbox queues notifications and download offers for one session until the
// web layer drains them into a response.
type Outbox struct {
	mu        sync.Mutex
	notes     []Notification
	downloads []Download
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Notify(severity Severity, message string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.notes = append(o.notes, Notification{Severity: severity, Message: message})
}

func (o *Outbox) Offer(d Download) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.downloads = append(o.downloads, d)
}

// Drain returns and clears the queue. Slices are never nil.
func (o *Outbox) Drain() Batch {
	o.mu.Lock()
	defer o.mu.Unlock()

	b := Batch{
		Notifications: make([]Notification, len(o.notes)),
		Downloads:     make([]Download, len(o.downloads)),
	}
	copy(b.Notifications, o.notes)
	copy(b.Downloads, o.downloads)
	o.notes = nil
	o.downloads = nil
	return b
}

// Printer writes notifications as lines, for the CLI.
type Printer struct {
	mu     sync.Mutex
	w      io.Writer
	counts map[Severity]int
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, counts: make(map[Severity]int)}
}

func (p *Printer) Notify(severity Severity, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counts[severity]++
	fmt.Fprintf(p.w, "[%s] %s\n", severity, message)
}

// Count reports how many messages of a severity were printed.
func (p *Printer) Count(severity Severity) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts[severity]
}
