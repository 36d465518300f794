package s3

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	awss3 "github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUploader struct {
	input *s3manager.UploadInput
	body  []byte
	err   error
}

func (f *fakeUploader) UploadWithContext(_ aws.Context, in *s3manager.UploadInput, _ ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3manager.UploadOutput{Location: "https://bucket.example/" + aws.StringValue(in.Key)}, nil
}

func (f *fakeUploader) Upload(in *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	return f.UploadWithContext(context.Background(), in, opts...)
}

type fakeS3 struct {
	s3iface.S3API
	deleted []string
}

func (f *fakeS3) DeleteObjectWithContext(_ aws.Context, in *awss3.DeleteObjectInput, _ ...request.Option) (*awss3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, aws.StringValue(in.Bucket)+"/"+aws.StringValue(in.Key))
	return &awss3.DeleteObjectOutput{}, nil
}

func TestStore_Upload(t *testing.T) {
	up := &fakeUploader{}
	store := NewStoreWithClients("pantry", up, &fakeS3{}, zap.NewNop())

	loc, err := store.Upload(context.Background(), "photos/2026/01/a.png", []byte("png"), "image/png")
	require.NoError(t, err)

	assert.Equal(t, "https://bucket.example/photos/2026/01/a.png", loc)
	assert.Equal(t, "pantry", aws.StringValue(up.input.Bucket))
	assert.Equal(t, "image/png", aws.StringValue(up.input.ContentType))
	assert.Equal(t, "png", string(up.body))
}

func TestStore_UploadError(t *testing.T) {
	store := NewStoreWithClients("pantry", &fakeUploader{err: errors.New("access denied")}, &fakeS3{}, zap.NewNop())

	_, err := store.Upload(context.Background(), "k", []byte("x"), "image/png")
	assert.EqualError(t, err, "access denied")
}

func TestStore_Delete(t *testing.T) {
	client := &fakeS3{}
	store := NewStoreWithClients("pantry", &fakeUploader{}, client, zap.NewNop())

	require.NoError(t, store.Delete(context.Background(), "photos/x.jpg"))
	assert.Equal(t, []string{"pantry/photos/x.jpg"}, client.deleted)
	assert.Equal(t, Name, store.Name())
}
