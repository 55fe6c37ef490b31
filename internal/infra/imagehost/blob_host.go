// Package imagehost stores uploaded photos in a blob bucket and hands back
// public URLs plus handles for later deletion.
package imagehost

import (
	"context"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	// Bucket drivers selectable via the configured URL scheme.
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"

	"memorylane/config"
	"memorylane/internal/domain/service"
)

// blobImageHost implements service.ImageHost on a gocloud blob bucket.
type blobImageHost struct {
	bucket        *blob.Bucket
	publicBaseURL string
	logger        *slog.Logger
}

// NewBlobImageHost opens the configured bucket. The caller owns the returned
// closer and should invoke it on shutdown.
func NewBlobImageHost(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.ImageHost, func() error, error) {
	if cfg.Images.BucketURL == "" {
		return nil, nil, errors.New("image bucket URL must be provided")
	}

	bucket, err := blob.OpenBucket(ctx, cfg.Images.BucketURL)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to open image bucket")
	}

	host := &blobImageHost{
		bucket:        bucket,
		publicBaseURL: strings.TrimSuffix(cfg.Images.PublicBaseURL, "/"),
		logger:        logger,
	}

	return host, bucket.Close, nil
}

// Upload stores the image under a collision-free key and returns its public
// URL and handle.
func (h *blobImageHost) Upload(ctx context.Context, name, contentType string, body io.Reader) (*service.StoredImage, error) {
	key := objectKey(name)

	w, err := h.bucket.NewWriter(ctx, key, &blob.WriterOptions{ContentType: contentType})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open bucket writer")
	}
	if _, err := io.Copy(w, body); err != nil {
		w.Close()

		return nil, errors.Wrap(err, "failed to write image")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to finish upload")
	}

	return &service.StoredImage{
		URL:      h.publicBaseURL + "/" + key,
		PublicID: key,
	}, nil
}

// Delete removes a previously uploaded image. A missing object is not an
// error; the caller treats deletion as best-effort anyway.
func (h *blobImageHost) Delete(ctx context.Context, publicID string) error {
	err := h.bucket.Delete(ctx, publicID)
	if err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return errors.Wrap(err, "failed to delete image")
	}

	return nil
}

// objectKey builds a date-partitioned, unique object key keeping the
// original extension so content type sniffing stays plausible.
func objectKey(name string) string {
	ext := strings.ToLower(path.Ext(name))

	return time.Now().UTC().Format("2006/01/02") + "/" + uuid.NewString() + ext
}
