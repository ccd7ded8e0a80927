package report

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/oshokin/smart-home/internal/config"
)

const contentType = "text/csv"

// Sink stores finished reports.
type Sink interface {
	Put(ctx context.Context, name string, body []byte) error
}

// DirectorySink writes reports into a local directory.
type DirectorySink struct {
	dir string
}

// NewDirectorySink creates a sink writing into dir.
func NewDirectorySink(dir string) *DirectorySink {
	return &DirectorySink{dir: filepath.Clean(dir)}
}

// Put writes body to dir/name, replacing an earlier report of the same day.
func (s *DirectorySink) Put(_ context.Context, name string, body []byte) error {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	target := filepath.Join(s.dir, filepath.Base(name))
	if err := os.WriteFile(target, body, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write report %s: %w", target, err)
	}

	return nil
}

// ObjectPutter is the part of the S3 client used by S3Sink.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads reports to a bucket.
type S3Sink struct {
	client ObjectPutter
	bucket string
	prefix string
}

// NewS3Sink loads the default AWS configuration and creates a sink for bucket.
func NewS3Sink(ctx context.Context, bucket, prefix string) (*S3Sink, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return NewS3SinkWithClient(client, bucket, prefix), nil
}

// NewS3SinkWithClient creates a sink using an existing client.
func NewS3SinkWithClient(client ObjectPutter, bucket, prefix string) *S3Sink {
	return &S3Sink{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

// Put uploads body under prefix/name.
func (s *S3Sink) Put(ctx context.Context, name string, body []byte) error {
	key := path.Join(s.prefix, name)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("upload s3://%s/%s: %w", s.bucket, key, err)
	}

	return nil
}
