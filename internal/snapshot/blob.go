package snapshot

import (
	"context"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"github.com/kode4food/argyll/wizard/pkg/store"

	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
)

// BlobStore implements Store using gocloud.dev/blob. The mem:// and
// file:// schemes are registered; other drivers can be linked in by the
// binary
type BlobStore struct {
	bucket *blob.Bucket
	prefix string
}

var _ Store = (*BlobStore)(nil)

func NewBlobStore(
	ctx context.Context, bucketURL, prefix string,
) (*BlobStore, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, err
	}
	return &BlobStore{bucket: bucket, prefix: prefix}, nil
}

func (s *BlobStore) Load(
	ctx context.Context, id string,
) ([]store.Entry, error) {
	data, err := s.bucket.ReadAll(ctx, s.keyFor(id))
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decode(data)
}

func (s *BlobStore) Save(
	ctx context.Context, id string, entries []store.Entry,
) error {
	data, err := encode(entries)
	if err != nil {
		return err
	}
	return s.bucket.WriteAll(ctx, s.keyFor(id), data, nil)
}

func (s *BlobStore) Delete(ctx context.Context, id string) error {
	err := s.bucket.Delete(ctx, s.keyFor(id))
	if err != nil && gcerrors.Code(err) == gcerrors.NotFound {
		return nil
	}
	return err
}

func (s *BlobStore) Close() error {
	return s.bucket.Close()
}

func (s *BlobStore) keyFor(id string) string {
	return s.prefix + id + ".json"
}
