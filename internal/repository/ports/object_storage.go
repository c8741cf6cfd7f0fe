package ports

import (
	"context"
	"io"
)

// FeedObject is one candidate file listed on the ingestion feed.
type FeedObject struct {
	Key  string
	Size int64
}

// Feed is the pull-based file feed the poller drains. Triage moves a source
// file out of the incoming location once it has been handled.
type Feed interface {
	List(ctx context.Context) ([]FeedObject, error)
	Fetch(ctx context.Context, key string) ([]byte, error)
	MoveToProcessed(ctx context.Context, key string) error
	MoveToFailed(ctx context.Context, key string) error
}

// AssetStorage holds locally retrieved print files keyed by
// store/order/sku-derived object keys.
type AssetStorage interface {
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error
	Open(ctx context.Context, key string) (io.ReadCloser, int64, error)
	Exists(ctx context.Context, key string) (bool, int64, error)
}
