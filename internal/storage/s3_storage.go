package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Sink receives static copies of export payloads for edge caching.
type Sink interface {
	// Put uploads body under the relative path.
	Put(ctx context.Context, path string, body []byte) error
	// URL is the public address of a relative path.
	URL(path string) string
}

// MirrorError is a failed upload to the CDN bucket. It is logged, never returned to clients.
type MirrorError struct {
	Path  string
	Cause error
}

func (e *MirrorError) Error() string {
	return fmt.Sprintf("cdn mirror %s: %v", e.Path, e.Cause)
}

func (e *MirrorError) Unwrap() error {
	return e.Cause
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Storage struct {
	client  objectPutter
	bucket  string
	baseURL string
	prefix  string
	region  string
}

type S3Options struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // S3-compatible endpoint such as MinIO
	BaseURL         string // CloudFront or custom domain in front of the bucket
	PathPrefix      string
}

func NewS3Storage(opts S3Options) *S3Storage {
	var cfg aws.Config
	var err error

	// If credentials are provided, use them. Otherwise, use default credential chain
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		cfg = aws.Config{
			Region: opts.Region,
			Credentials: credentials.NewStaticCredentialsProvider(
				opts.AccessKeyID,
				opts.SecretAccessKey,
				"",
			),
		}
	} else {
		cfg, err = config.LoadDefaultConfig(context.TODO(),
			config.WithRegion(opts.Region),
		)
		if err != nil {
			cfg = aws.Config{Region: opts.Region}
		}
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Storage(client, opts)
}

func newS3Storage(client objectPutter, opts S3Options) *S3Storage {
	return &S3Storage{
		client:  client,
		bucket:  opts.Bucket,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		prefix:  strings.Trim(opts.PathPrefix, "/"),
		region:  opts.Region,
	}
}

func (s *S3Storage) objectKey(path string) string {
	path = strings.TrimLeft(path, "/")
	if s.prefix == "" {
		return path
	}
	return s.prefix + "/" + path
}

// Put uploads a JSON document. Failures come back as *MirrorError.
func (s *S3Storage) Put(ctx context.Context, path string, body []byte) error {
	key := s.objectKey(path)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String("application/json; charset=utf-8"),
		CacheControl: aws.String("public, max-age=300"),
	})
	if err != nil {
		return &MirrorError{Path: key, Cause: err}
	}
	return nil
}

func (s *S3Storage) URL(path string) string {
	key := s.objectKey(path)
	if s.baseURL != "" {
		return fmt.Sprintf("%s/%s", s.baseURL, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// ExportPath is the relative object path of an export mirror:
// {kind}/{identifier}.json for default parameters, {kind}/{identifier}.{hash}.json otherwise.
func ExportPath(kind, identifier, hash string, defaultParams bool) string {
	if defaultParams || hash == "" {
		return fmt.Sprintf("%s/%s.json", kind, identifier)
	}
	return fmt.Sprintf("%s/%s.%s.json", kind, identifier, hash)
}

var _ Sink = (*S3Storage)(nil)
