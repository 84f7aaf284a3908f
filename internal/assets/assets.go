// Package assets stores uploaded files (images, attachments) in S3-compatible
// object storage and hands out presigned download URLs.
package assets

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"studio/api/internal/util"
)

// Asset describes a stored object.
type Asset struct {
	ID          string    `json:"id"`
	ObjectName  string    `json:"objectName"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// Store wraps a MinIO (or any S3-compatible) bucket.
type Store struct {
	client *minio.Client
	bucket string
}

// New connects to object storage and ensures the bucket exists.
func New(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*Store, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect object storage: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
		log.Printf("assets: created bucket %s", bucket)
	}

	return &Store{client: client, bucket: bucket}, nil
}

// Upload stores a file under a generated object name, keyed by content id so
// objects of one item group together.
func (s *Store) Upload(ctx context.Context, contentID, fileName, contentType string, r io.Reader, size int64) (Asset, error) {
	id := util.NewID("ast")
	objectName := contentID + "/" + id + path.Ext(fileName)

	info, err := s.client.PutObject(ctx, s.bucket, objectName, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return Asset{}, fmt.Errorf("upload %s: %w", fileName, err)
	}

	return Asset{
		ID:          id,
		ObjectName:  objectName,
		FileName:    fileName,
		ContentType: contentType,
		Size:        info.Size,
		UploadedAt:  time.Now().UTC(),
	}, nil
}

// PresignedURL returns a time-limited download URL for an object.
func (s *Store) PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	reqParams := make(url.Values)
	reqParams.Set("response-content-disposition", "inline")

	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, reqParams)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", objectName, err)
	}
	return u.String(), nil
}

// Delete removes an object. Missing objects are not an error.
func (s *Store) Delete(ctx context.Context, objectName string) error {
	err := s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{})
	if err != nil && !strings.Contains(err.Error(), "NoSuchKey") {
		return fmt.Errorf("delete %s: %w", objectName, err)
	}
	return nil
}

// DeleteAll removes every object stored for a content id.
func (s *Store) DeleteAll(ctx context.Context, contentID string) {
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    contentID + "/",
		Recursive: true,
	})
	for object := range objects {
		if object.Err != nil {
			log.Printf("assets: list objects for %s: %v", contentID, object.Err)
			return
		}
		if err := s.Delete(ctx, object.Key); err != nil {
			log.Printf("assets: %v", err)
		}
	}
}
