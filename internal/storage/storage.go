// Package storage persists the finished audio to a local path or S3.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Store writes a finished artifact to dest.
type Store interface {
	Save(ctx context.Context, dest string, r io.Reader, size int64) error
}

// ParseS3URL splits s3://bucket/key. ok is false for anything else.
func ParseS3URL(dest string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(dest, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

// IsRemote reports whether dest names an S3 object.
func IsRemote(dest string) bool {
	return strings.HasPrefix(dest, "s3://")
}

// Router sends s3:// destinations to S3 and everything else to Local.
type Router struct {
	Local *FileStore
	// S3 is optional; Save fails for s3:// destinations when nil.
	S3 *S3Store
}

func (r *Router) Save(ctx context.Context, dest string, rd io.Reader, size int64) error {
	if IsRemote(dest) {
		if r.S3 == nil {
			return fmt.Errorf("no S3 client configured for %s", dest)
		}
		return r.S3.Save(ctx, dest, rd, size)
	}
	return r.Local.Save(ctx, dest, rd, size)
}
