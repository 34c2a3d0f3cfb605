// Package archive stores generated salary slips in object storage.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/storage"
	"github.com/dvloznov/edufin/internal/domain"
)

// ErrNotArchived is returned by Fetch for unknown slip ids.
var ErrNotArchived = errors.New("slip not archived")

// Bucket is the object store the archive writes to.
type Bucket interface {
	Put(ctx context.Context, object string, data []byte, contentType string) error
	Get(ctx context.Context, object string) ([]byte, error)
	Name() string
}

// Archiver writes slips as JSON objects under "slips/<id>.json".
type Archiver struct {
	bucket Bucket
}

// New returns an archiver backed by bucket.
func New(bucket Bucket) *Archiver {
	return &Archiver{bucket: bucket}
}

// ObjectName is the object path for a slip id.
func ObjectName(slipID string) string {
	return path.Join("slips", slipID+".json")
}

// Archive stores slip and returns its gs:// URI.
func (a *Archiver) Archive(ctx context.Context, slip domain.SalarySlip) (string, error) {
	if slip.ID == "" {
		return "", fmt.Errorf("Archive: slip has no id")
	}
	data, err := json.Marshal(slip)
	if err != nil {
		return "", fmt.Errorf("Archive: marshal %s: %w", slip.ID, err)
	}
	object := ObjectName(slip.ID)
	if err := a.bucket.Put(ctx, object, data, "application/json"); err != nil {
		return "", fmt.Errorf("Archive: upload %s: %w", slip.ID, err)
	}
	return fmt.Sprintf("gs://%s/%s", a.bucket.Name(), object), nil
}

// Fetch loads a previously archived slip.
func (a *Archiver) Fetch(ctx context.Context, slipID string) (domain.SalarySlip, error) {
	data, err := a.bucket.Get(ctx, ObjectName(slipID))
	if err != nil {
		return domain.SalarySlip{}, fmt.Errorf("Fetch: %s: %w", slipID, err)
	}
	var slip domain.SalarySlip
	if err := json.Unmarshal(data, &slip); err != nil {
		return domain.SalarySlip{}, fmt.Errorf("Fetch: decode %s: %w", slipID, err)
	}
	return slip, nil
}

// ParseURI splits "gs://bucket/path/to/object" into bucket and object.
func ParseURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}

// GCSBucket implements Bucket on Google Cloud Storage. It assumes
// Application Default Credentials are configured.
type GCSBucket struct {
	client *storage.Client
	name   string
}

// NewGCSBucket creates a storage client for bucketName.
func NewGCSBucket(ctx context.Context, bucketName string) (*GCSBucket, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSBucket: create storage client: %w", err)
	}
	return &GCSBucket{client: client, name: bucketName}, nil
}

func (b *GCSBucket) Name() string { return b.name }

// Close releases the storage client.
func (b *GCSBucket) Close() error {
	return b.client.Close()
}

func (b *GCSBucket) Put(ctx context.Context, object string, data []byte, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := b.client.Bucket(b.name).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write GCS object %s: %w", object, err)
	}
	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload %s: %w", object, err)
	}
	return nil
}

func (b *GCSBucket) Get(ctx context.Context, object string) ([]byte, error) {
	r, err := b.client.Bucket(b.name).Object(object).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotArchived
	}
	if err != nil {
		return nil, fmt.Errorf("open GCS object reader %s: %w", object, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read GCS object %s: %w", object, err)
	}
	return data, nil
}

// MemoryBucket keeps objects in memory.
type MemoryBucket struct {
	BucketName string

	mu      sync.RWMutex
	objects map[string][]byte
}

func (m *MemoryBucket) Name() string { return m.BucketName }

func (m *MemoryBucket) Put(_ context.Context, object string, data []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[object] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryBucket) Get(_ context.Context, object string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[object]
	if !ok {
		return nil, ErrNotArchived
	}
	return append([]byte(nil), data...), nil
}

var (
	_ Bucket = (*GCSBucket)(nil)
	_ Bucket = (*MemoryBucket)(nil)
)
