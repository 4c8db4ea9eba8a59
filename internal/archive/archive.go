// Package archive keeps a copy of every generated error report in Cloud
// Storage so an upload's problems can be looked at after the fact.
package archive

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Archiver stores a generated report. Implementations must not block the
// caller on the upload.
type Archiver interface {
	Archive(ctx context.Context, name string, data []byte)
}

// Nop discards everything. Used when no bucket is configured.
type Nop struct{}

func (Nop) Archive(context.Context, string, []byte) {}

type GCSArchiver struct {
	client *storage.Client
	bucket string
	log    zerolog.Logger
	wg     sync.WaitGroup
	now    func() time.Time
	write  func(ctx context.Context, object string, data []byte) error
}

// NewGCSArchiver uses Application Default Credentials.
func NewGCSArchiver(ctx context.Context, bucket string, log zerolog.Logger) (*GCSArchiver, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	a := &GCSArchiver{
		client: client,
		bucket: bucket,
		log:    log.With().Str("component", "archive").Str("bucket", bucket).Logger(),
		now:    time.Now,
	}
	a.write = a.upload
	return a, nil
}

// ObjectName lays reports out by day: reports/YYYY/MM/DD/<uuid>-<name>.
func ObjectName(now time.Time, name string) string {
	return fmt.Sprintf("reports/%s/%s-%s", now.UTC().Format("2006/01/02"), uuid.NewString(), name)
}

func (a *GCSArchiver) Archive(ctx context.Context, name string, data []byte) {
	object := ObjectName(a.now(), name)
	buf := append([]byte(nil), data...)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Minute)
		defer cancel()

		if err := a.write(ctx, object, buf); err != nil {
			a.log.Error().Err(err).Str("object", object).Msg("Failed to archive report")
			return
		}
		a.log.Info().Str("uri", fmt.Sprintf("gs://%s/%s", a.bucket, object)).Int("bytes", len(buf)).Msg("Report archived")
	}()
}

func (a *GCSArchiver) upload(ctx context.Context, object string, data []byte) error {
	w := a.client.Bucket(a.bucket).Object(object).NewWriter(ctx)
	w.ContentType = "text/csv"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload: %w", err)
	}
	return nil
}

// Close waits for pending uploads and releases the client.
func (a *GCSArchiver) Close() error {
	a.wg.Wait()
	if a.client == nil {
		return nil
	}
	return a.client.Close()
}
