package docextract

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSOpener reads gs:// objects with application default credentials.
type GCSOpener struct {
	client *storage.Client
}

func NewGCSOpener(ctx context.Context, opts ...option.ClientOption) (*GCSOpener, error) {
	opts = append([]option.ClientOption{option.WithScopes(storage.ScopeReadOnly)}, opts...)
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	return &GCSOpener{client: client}, nil
}

func (g *GCSOpener) Open(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	return g.client.Bucket(bucket).Object(object).NewReader(ctx)
}

func (g *GCSOpener) Close() error {
	if g == nil || g.client == nil {
		return nil
	}
	return g.client.Close()
}
