package proof

import (
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"coswo/pkg/apperr"
)

// BlobStore writes proof media to the local uploads directory, which the HTTP
// server serves statically. Save returns the retrievable URL path.
type BlobStore struct {
	dir     string
	baseURL string
}

func NewBlobStore(log *zap.Logger) *BlobStore {
	dir := os.Getenv("UPLOAD_DIR")
	if dir == "" {
		dir = "uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Fatal("Failed to create upload directory", zap.Error(err))
	}
	return &BlobStore{dir: dir, baseURL: "/uploads"}
}

// Dir is the on-disk directory the server should serve at /uploads.
func (b *BlobStore) Dir() string { return b.dir }

func (b *BlobStore) Save(src io.Reader, originalName string) (string, error) {
	key := uuid.NewString() + filepath.Ext(originalName)

	dst, err := os.Create(filepath.Join(b.dir, key))
	if err != nil {
		return "", apperr.Wrap(apperr.KindUnavailable, "blob write failed", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", apperr.Wrap(apperr.KindUnavailable, "blob write failed", err)
	}
	return b.baseURL + "/" + key, nil
}
