package output

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// UploadTimeout bounds a single upload.
const UploadTimeout = 30 * time.Second

// S3Config describes the destination bucket. Endpoint and the static keys
// are optional; without keys the default AWS credential chain is used.
type S3Config struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	ACL       string
}

// S3Uploader puts rendered frames into a bucket as PNG objects.
type S3Uploader struct {
	client s3iface.S3API
	acl    string
}

// NewS3Uploader opens an AWS session for cfg.
func NewS3Uploader(cfg S3Config) (*S3Uploader, error) {
	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("create S3 session: %w", err)
	}
	return NewS3UploaderWithClient(s3.New(sess), cfg.ACL), nil
}

// NewS3UploaderWithClient wraps an existing S3 client.
func NewS3UploaderWithClient(client s3iface.S3API, acl string) *S3Uploader {
	return &S3Uploader{client: client, acl: acl}
}

// Upload encodes img as PNG and stores it at bucket/key.
func (u *S3Uploader) Upload(ctx context.Context, bucket, key string, img image.Image) error {
	var buf bytes.Buffer
	if err := WritePNG(&buf, img); err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	ctx, cancel := context.WithTimeout(ctx, UploadTimeout)
	defer cancel()

	size := int64(buf.Len())
	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(size),
		ContentType:   aws.String("image/png"),
	}
	if u.acl != "" {
		input.ACL = aws.String(u.acl)
	}
	if _, err := u.client.PutObjectWithContext(ctx, input); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}

	slog.Info("uploaded frame", "bucket", bucket, "key", key, "bytes", size)
	return nil
}
