package storage

import (
	"context"
	"io"
)

// Kind partitions stored files into namespaces.
type Kind string

const (
	KindCover Kind = "covers"
	KindBook  Kind = "books"
)

// Location tells a handler how to hand a stored file to the client. Exactly
// one field is set: Path for files served off local disk, URL for remote
// objects fetched through a presigned link.
type Location struct {
	Path string
	URL  string
}

// FileStorage persists uploaded files and resolves them for download.
type FileStorage interface {
	// Save stores the stream and returns an opaque key for later retrieval.
	Save(ctx context.Context, kind Kind, filename string, r io.Reader) (string, error)

	// Resolve turns a key into a servable location.
	Resolve(ctx context.Context, key string) (Location, error)

	// Delete removes the object. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
}
