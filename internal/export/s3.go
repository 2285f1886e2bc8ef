package export

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"plib-go/internal/photolib"
)

// S3Target uploads exported files to an S3 bucket under an optional key
// prefix. Large files go through the multipart upload manager.
type S3Target struct {
	bucket   string
	prefix   string
	uploader *manager.Uploader
}

// NewS3Target builds an S3 client from the default credential chain,
// optionally overridden with static credentials.
func NewS3Target(ctx context.Context, bucket, prefix, region, accessKey, secretKey string) (*S3Target, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 export requires a bucket")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if accessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return &S3Target{
		bucket:   bucket,
		prefix:   prefix,
		uploader: manager.NewUploader(client),
	}, nil
}

// Put uploads content under the target's prefix. The upload manager
// chunks the body itself, so the declared size is not forwarded.
func (t *S3Target) Put(key string, r io.Reader, _ int64) error {
	fullKey := key
	if t.prefix != "" {
		fullKey = path.Join(t.prefix, key)
	}

	_, err := t.uploader.Upload(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(t.bucket),
		Key:    aws.String(fullKey),
		Body:   r,
	})
	if err != nil {
		return fmt.Errorf("uploading s3://%s/%s: %w", t.bucket, fullKey, err)
	}
	return nil
}

// Compile-time check that S3Target implements photolib.ExportTarget
var _ photolib.ExportTarget = (*S3Target)(nil)
