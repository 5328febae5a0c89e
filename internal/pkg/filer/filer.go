package filer

import (
	"context"
	"fmt"
	"io"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/audiary/audiary/internal/pkg/utils"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Options keeps minio connection settings
type Options struct {
	URL    string
	User   string
	Key    string
	Bucket string
	Secure bool
}

// Filer saves and loads audio blobs in minio
type Filer struct {
	client *minio.Client
	bucket string
}

// NewFiler creates minio client and makes sure the bucket exists
func NewFiler(ctx context.Context, opts Options) (*Filer, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("no URL")
	}
	if opts.Bucket == "" {
		return nil, fmt.Errorf("no bucket")
	}
	client, err := minio.New(opts.URL, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.User, opts.Key, ""),
		Secure: opts.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("can't init minio client: %w", err)
	}
	res := &Filer{client: client, bucket: opts.Bucket}
	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("can't check bucket: %w", err)
	}
	if !exists {
		goapp.Log.Info().Str("bucket", opts.Bucket).Msg("create bucket")
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("can't create bucket: %w", err)
		}
	}
	return res, nil
}

// SaveFile puts audio object into the bucket
func (f *Filer) SaveFile(ctx context.Context, name string, r io.Reader, fileSize int64) error {
	goapp.Log.Info().Str("name", name).Int64("size", fileSize).Msg("save file")
	_, err := f.client.PutObject(ctx, f.bucket, name, r, fileSize,
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return fmt.Errorf("can't save '%s': %w", name, err)
	}
	return nil
}

// LoadFile returns a reader for the stored object. A missing object
// maps to utils.ErrNotFound
func (f *Filer) LoadFile(ctx context.Context, name string) (io.ReadSeekCloser, error) {
	obj, err := f.client.GetObject(ctx, f.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, loadErr(name, err)
	}
	// GetObject is lazy, stat to surface missing objects now
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, loadErr(name, err)
	}
	return obj, nil
}

func loadErr(name string, err error) error {
	if IsNotFound(err) {
		return fmt.Errorf("can't load '%s': %w", name, utils.ErrNotFound)
	}
	return fmt.Errorf("can't load '%s': %w", name, err)
}

// RemoveFile drops the object, removing an already absent one is not an error
func (f *Filer) RemoveFile(ctx context.Context, name string) error {
	goapp.Log.Info().Str("name", name).Msg("remove file")
	err := f.client.RemoveObject(ctx, f.bucket, name, minio.RemoveObjectOptions{})
	if err != nil && !IsNotFound(err) {
		return fmt.Errorf("can't remove '%s': %w", name, err)
	}
	return nil
}

// IsNotFound checks for minio missing key failure
func IsNotFound(err error) bool {
	var mErr minio.ErrorResponse
	if errResp := minio.ToErrorResponse(err); errResp.Code != "" {
		mErr = errResp
	}
	return mErr.Code == "NoSuchKey" || mErr.Code == "NoSuchBucket"
}
