package storage

import "context"

// UploadOptions conveys upload destination metadata.
type UploadOptions struct {
	Bucket    string
	KeyPrefix string
}

// Archiver copies local files (database backups, retained uploads) to
// remote object storage. It is optional; a nil Archiver means archival
// is disabled.
type Archiver interface {
	UploadFile(ctx context.Context, localPath string, opts UploadOptions) (string, error)
}
