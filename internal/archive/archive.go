// Package archive keeps a copy of every raw upload in S3 so a bad import can
// be replayed or inspected later.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// API is the part of the S3 client used here.
type API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Config selects the bucket and credentials.
type Config struct {
	Bucket          string
	Region          string
	Prefix          string
	Profile         string
	AccessKeyID     string
	SecretAccessKey string
}

// Archiver writes objects under prefix/kind/YYYY/MM/DD/.
type Archiver struct {
	client API
	bucket string
	prefix string
	now    func() time.Time
}

// New builds an Archiver from the default AWS credential chain, a shared
// profile, or static keys.
func New(ctx context.Context, cfg Config) (*Archiver, *s3.Client, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	switch {
	case cfg.AccessKeyID != "" && cfg.SecretAccessKey != "":
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	case cfg.Profile != "":
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	return NewWithClient(client, cfg.Bucket, cfg.Prefix), client, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client API, bucket, prefix string) *Archiver {
	return &Archiver{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		now:    time.Now,
	}
}

// Bucket returns the target bucket.
func (a *Archiver) Bucket() string { return a.bucket }

// Put stores data and returns the object key.
func (a *Archiver) Put(ctx context.Context, kind, filename, contentType string, data []byte) (string, error) {
	key := a.key(kind, filename)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		Metadata:      map[string]string{"kind": kind},
	})
	if err != nil {
		return "", fmt.Errorf("S3 PutObject %s/%s: %w", a.bucket, key, err)
	}
	return key, nil
}

// Ping checks that the bucket is reachable.
func (a *Archiver) Ping(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)})
	return err
}

func (a *Archiver) key(kind, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "upload"
	}
	day := a.now().UTC().Format("2006/01/02")
	return path.Join(a.prefix, kind, day, uuid.NewString()+"-"+name)
}
