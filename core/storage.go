package core

import (
	"context"
	"errors"
	"io"
)

var ErrAssetNotFound = errors.New("file not found")

// AssetStore persists uploaded files (marketing PDFs, testimonial images) by name.
type AssetStore interface {
	Save(ctx context.Context, name string, r io.Reader) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}
