package minio

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/widegest/printflow/internal/repository/ports"
)

// Feed reads order files from one bucket. New files arrive under the
// incoming prefix; triage copies them under processed/ or failed/ and
// removes the original.
type Feed struct {
	client          *minio.Client
	bucket          string
	incomingPrefix  string
	processedPrefix string
	failedPrefix    string
}

func NewFeed(client *minio.Client, bucket, incoming, processed, failed string) *Feed {
	return &Feed{
		client:          client,
		bucket:          bucket,
		incomingPrefix:  normalizePrefix(incoming),
		processedPrefix: normalizePrefix(processed),
		failedPrefix:    normalizePrefix(failed),
	}
}

func (f *Feed) List(ctx context.Context) ([]ports.FeedObject, error) {
	objects := []ports.FeedObject{}
	for info := range f.client.ListObjects(ctx, f.bucket, minio.ListObjectsOptions{
		Prefix:    f.incomingPrefix,
		Recursive: true,
	}) {
		if info.Err != nil {
			return nil, fmt.Errorf("listing feed: %w", info.Err)
		}
		if strings.HasSuffix(info.Key, "/") {
			continue
		}
		objects = append(objects, ports.FeedObject{Key: info.Key, Size: info.Size})
	}
	return objects, nil
}

func (f *Feed) Fetch(ctx context.Context, key string) ([]byte, error) {
	obj, err := f.client.GetObject(ctx, f.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return data, nil
}

func (f *Feed) MoveToProcessed(ctx context.Context, key string) error {
	return f.move(ctx, key, f.processedPrefix)
}

func (f *Feed) MoveToFailed(ctx context.Context, key string) error {
	return f.move(ctx, key, f.failedPrefix)
}

func (f *Feed) move(ctx context.Context, key, prefix string) error {
	dst := prefix + path.Base(key)
	_, err := f.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: f.bucket, Object: dst},
		minio.CopySrcOptions{Bucket: f.bucket, Object: key},
	)
	if err != nil {
		return fmt.Errorf("copying %s to %s: %w", key, dst, err)
	}
	if err := f.client.RemoveObject(ctx, f.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	return nil
}

func normalizePrefix(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	return p + "/"
}
