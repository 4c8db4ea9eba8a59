// Package download holds generated files until the user fetches them.
// A reference is served at most once and then revoked.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sathvik-zluri/moneytrack/internal/notify"
)

var ErrNotFound = errors.New("download not found")

// Sink delivers a generated file to the user.
type Sink interface {
	Deliver(ctx context.Context, name string, data []byte) error
}

type Artifact struct {
	Name      string
	Data      []byte
	CreatedAt time.Time
}

type Registry struct {
	mu    sync.Mutex
	items map[string]Artifact
	ttl   time.Duration
	now   func() time.Time
}

func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		items: make(map[string]Artifact),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Register stores data under a fresh reference. Expired entries are swept
// on the way in.
func (r *Registry) Register(name string, data []byte) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if r.ttl > 0 {
		for ref, a := range r.items {
			if now.Sub(a.CreatedAt) > r.ttl {
				delete(r.items, ref)
			}
		}
	}

	ref := uuid.NewString()
	r.items[ref] = Artifact{Name: name, Data: data, CreatedAt: now}
	return ref
}

func (r *Registry) Open(ref string) (Artifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.items[ref]
	if !ok {
		return Artifact{}, ErrNotFound
	}
	if r.ttl > 0 && r.now().Sub(a.CreatedAt) > r.ttl {
		delete(r.items, ref)
		return Artifact{}, ErrNotFound
	}
	return a, nil
}

func (r *Registry) Revoke(ref string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, ref)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func URL(ref string) string {
	return "/downloads/" + ref
}

// OutboxSink registers the file and offers its link through a session outbox.
type OutboxSink struct {
	Registry *Registry
	Outbox   *notify.Outbox
}

func (s OutboxSink) Deliver(_ context.Context, name string, data []byte) error {
	if s.Registry == nil || s.Outbox == nil {
		return errors.New("download sink not configured")
	}
	ref := s.Registry.Register(name, data)
	s.Outbox.Offer(notify.Download{Name: name, URL: URL(ref)})
	return nil
}

// DirSink writes files into a directory, for the CLI.
type DirSink struct {
	Dir string
	Out io.Writer
}

func (s DirSink) Deliver(_ context.Context, name string, data []byte) error {
	path := filepath.Join(s.Dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if s.Out != nil {
		fmt.Fprintf(s.Out, "saved %s\n", path)
	}
	return nil
}
