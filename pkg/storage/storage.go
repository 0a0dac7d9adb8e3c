package storage

import "context"

// Reader provides read access to report files stored in a backend (local
// filesystem or S3). It is used by the report store to discover and read
// report files without knowing the underlying storage details.
type Reader interface {
	// List returns the paths of all files below root, recursively.
	// Returns (nil, nil) when root does not exist or is not a directory.
	List(ctx context.Context, root string) ([]string, error)

	// Read returns the contents of a file previously returned by List.
	// Returns (nil, nil) when the file does not exist.
	Read(ctx context.Context, path string) ([]byte, error)

	// Name identifies the backend in logs.
	Name() string
}
