package blob

import (
	"context"
	"testing"
)

func TestOpenDefaultsToMemory(t *testing.T) {
	t.Setenv("RECORDCORE_BLOB_DRIVER", "")
	store, err := Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.Driver() != DriverMemory {
		t.Fatalf("unexpected driver %q", store.Driver())
	}
}

func TestOpenFilesystemDriver(t *testing.T) {
	t.Setenv("RECORDCORE_BLOB_DRIVER", "fs")
	t.Setenv("RECORDCORE_BLOB_FS_ROOT", t.TempDir())
	store, err := Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.Driver() != DriverFilesystem {
		t.Fatalf("unexpected driver %q", store.Driver())
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Setenv("RECORDCORE_BLOB_DRIVER", "tape")
	if _, err := Open(context.Background()); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}

func TestOpenS3RequiresBucket(t *testing.T) {
	t.Setenv("RECORDCORE_BLOB_DRIVER", "s3")
	t.Setenv("RECORDCORE_BLOB_S3_BUCKET", "")
	if _, err := Open(context.Background()); err == nil {
		t.Fatalf("expected missing bucket error")
	}
}
