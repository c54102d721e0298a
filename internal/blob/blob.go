// Package blob selects and wires a blob storage backend for the
// snapshot and schema archive features.
package blob

import (
	"context"
	"fmt"
	"os"
	"strings"

	"recordcore/internal/blob/core"
	fsstore "recordcore/internal/infra/blob/fs"
	memstore "recordcore/internal/infra/blob/memory"
	s3store "recordcore/internal/infra/blob/s3"
)

// Re-exported backend-neutral types so callers do not import core directly.
type (
	Driver           = core.Driver
	Store            = core.Store
	Info             = core.Info
	PutOptions       = core.PutOptions
	SignedURLOptions = core.SignedURLOptions
)

const (
	DriverMemory     = core.DriverMemory
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
)

var ErrUnsupported = core.ErrUnsupported

// NewMemory returns an in-memory store.
func NewMemory() Store { return memstore.New() }

// NewFilesystem returns a store rooted at dir.
func NewFilesystem(dir string) (Store, error) { return fsstore.New(dir) }

// NewS3 returns a store talking to an S3-compatible backend.
func NewS3(ctx context.Context, cfg s3store.Config) (Store, error) { return s3store.New(ctx, cfg) }

// Open selects a driver from RECORDCORE_BLOB_DRIVER (default memory):
//
//	memory — process-local, volatile
//	fs     — filesystem rooted at RECORDCORE_BLOB_FS_ROOT (default ./blobdata)
//	s3     — S3-compatible backend, see the s3 package for its variables
func Open(ctx context.Context) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(os.Getenv("RECORDCORE_BLOB_DRIVER")))
	switch driver {
	case "", string(DriverMemory):
		return memstore.New(), nil
	case string(DriverFilesystem):
		root := os.Getenv("RECORDCORE_BLOB_FS_ROOT")
		if root == "" {
			root = "blobdata"
		}
		return fsstore.New(root)
	case string(DriverS3):
		return s3store.OpenFromEnv(ctx)
	default:
		return nil, fmt.Errorf("unknown blob driver %q", driver)
	}
}
