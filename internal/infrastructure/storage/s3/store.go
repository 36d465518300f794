// Package s3 archives photos in an S3 (or S3-compatible) bucket
package s3

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	awss3 "github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/rasoiops/rasoiops/internal/ports/outbound"
	"go.uber.org/zap"
)

// Name identifies the store in logs and metrics
const Name = "s3"

// Config holds bucket settings. Endpoint is optional and switches to
// path-style addressing for S3-compatible services.
type Config struct {
	Bucket   string
	Region   string
	Endpoint string
}

// Store uploads photos with the s3manager uploader
type Store struct {
	bucket   string
	uploader s3manageriface.UploaderAPI
	client   s3iface.S3API
	logger   *zap.Logger
}

var _ outbound.PhotoStore = (*Store)(nil)

// NewStore creates an S3 store using the default credential chain
func NewStore(cfg Config, logger *zap.Logger) (*Store, error) {
	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return NewStoreWithClients(cfg.Bucket, s3manager.NewUploader(sess), awss3.New(sess), logger), nil
}

// NewStoreWithClients creates a store from existing clients
func NewStoreWithClients(bucket string, uploader s3manageriface.UploaderAPI, client s3iface.S3API, logger *zap.Logger) *Store {
	return &Store{
		bucket:   bucket,
		uploader: uploader,
		client:   client,
		logger:   logger.Named("photos-s3"),
	}
}

// Name returns "s3"
func (s *Store) Name() string {
	return Name
}

// Upload puts data at key and returns the object URL
func (s *Store) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	out, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		s.logger.Error("S3 upload failed", zap.String("key", key), zap.Error(err))
		return "", err
	}

	s.logger.Debug("Photo archived", zap.String("location", out.Location), zap.Int("bytes", len(data)))
	return out.Location, nil
}

// Delete removes the object at key
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}
