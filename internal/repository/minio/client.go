package minio

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

func NewClient(endpoint, key, secret string, useSSL bool) (*minio.Client, error) {
	return minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(key, secret, ""),
		Secure: useSSL,
	})
}

// Pinger adapts a bucket-existence probe to the health check.
type Pinger struct {
	client *minio.Client
	bucket string
}

func NewPinger(client *minio.Client, bucket string) *Pinger {
	return &Pinger{client: client, bucket: bucket}
}

func (p *Pinger) PingContext(ctx context.Context) error {
	ok, err := p.client.BucketExists(ctx, p.bucket)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %s does not exist", p.bucket)
	}
	return nil
}
