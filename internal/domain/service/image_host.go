package service

import (
	"context"
	"io"
)

// StoredImage describes an uploaded image. PublicID is the host-side handle
// later used to delete the image.
type StoredImage struct {
	URL      string
	PublicID string
}

// ImageHost defines the interface for hosting user-uploaded photos.
type ImageHost interface {
	// Upload stores the image and returns its public URL and handle.
	Upload(ctx context.Context, name, contentType string, body io.Reader) (*StoredImage, error)

	// Delete removes a previously uploaded image by its handle.
	Delete(ctx context.Context, publicID string) error
}
