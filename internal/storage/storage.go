package storage

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"path/filepath"
	"strings"
	"time"
)

// Storage abstracts where uploaded binaries live. The local-disk backend is
// the default; MinIO can be selected via configuration. Save returns the
// path/key later fed back to Open and Remove.
type Storage interface {
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Remove(ctx context.Context, path string) error
}

// GenerateFilename builds a collision-resistant on-disk name from the upload
// field name and the original filename's extension:
// "<field>-<unix millis>-<9 digit random><ext>".
func GenerateFilename(field, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return fmt.Sprintf("%s-%d-%09d%s", field, time.Now().UnixMilli(), rand.Intn(1_000_000_000), ext)
}
