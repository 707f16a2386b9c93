package kv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// objectAPI is the subset of the S3 client the store uses.
type objectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config holds the bucket settings. Credentials come from the default AWS chain.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // optional; e.g. MinIO
	PathStyle bool
	Prefix    string
}

// S3 stores each record as one JSON object. Writes are conditional on the ETag read
// (or on absence), so concurrent writers retry instead of overwriting each other.
type S3 struct {
	client     objectAPI
	bucket     string
	prefix     string
	maxRetries int
}

var _ Store = (*S3)(nil)

// NewS3 builds an S3-backed store from cfg.
func NewS3(ctx context.Context, cfg S3Config, maxRetries int) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("error loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return newS3(client, cfg.Bucket, cfg.Prefix, maxRetries), nil
}

func newS3(client objectAPI, bucket, prefix string, maxRetries int) *S3 {
	return &S3{client: client, bucket: bucket, prefix: prefix, maxRetries: retries(maxRetries)}
}

func (s *S3) objectKey(key string) string {
	return s.prefix + key + ".json"
}

// read returns the body and ETag of the object for key; both are empty when it does not exist.
func (s *S3) read(ctx context.Context, key string) ([]byte, *string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if isNotFound(err) {
		return nil, nil, nil
	}

	if err != nil {
		return nil, nil, fmt.Errorf("error loading %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("error reading %s: %w", key, err)
	}

	return data, out.ETag, nil
}

// Get returns the object body for key.
func (s *S3) Get(ctx context.Context, key string) ([]byte, error) {
	data, _, err := s.read(ctx, key)

	return data, err
}

// Update writes the new body with If-Match on the ETag read, or If-None-Match when the object was absent.
func (s *S3) Update(ctx context.Context, key string, fn UpdateFunc) error {
	for i := 0; i < s.maxRetries; i++ {
		current, etag, err := s.read(ctx, key)
		if err != nil {
			return err
		}

		next, write, err := apply(fn, current)
		if err != nil || !write {
			return err
		}

		in := &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(s.objectKey(key)),
			Body:        bytes.NewReader(next),
			ContentType: aws.String("application/json"),
		}
		if etag != nil {
			in.IfMatch = etag
		} else {
			in.IfNoneMatch = aws.String("*")
		}

		_, err = s.client.PutObject(ctx, in)
		if isPreconditionFailed(err) {
			continue
		}

		if err != nil {
			return fmt.Errorf("error saving %s: %w", key, err)
		}

		return nil
	}

	return fmt.Errorf("error saving %s: %w", key, ErrConflict)
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (s *S3) Close() error {
	return nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}

	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "NoSuchKey" || apiErr.ErrorCode() == "NotFound"
	}

	return false
}

func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "PreconditionFailed", "ConditionalRequestConflict":
			return true
		}
	}

	return false
}
