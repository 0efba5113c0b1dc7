package blobstore

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sciforge/depository/pkg/common/config"
)

// S3Backend stores content in an S3-compatible object store.
type S3Backend struct {
	client *s3.Client
	bucket string
}

func NewS3Backend(ctx context.Context, cfg *config.Config) (*S3Backend, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			if cfg.BlobS3Endpoint != "" {
				return aws.Endpoint{
					URL:               cfg.BlobS3Endpoint,
					SigningRegion:     cfg.BlobS3Region,
					HostnameImmutable: true,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		},
	)
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.BlobS3Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.BlobS3AccessKey, cfg.BlobS3SecretKey, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, err
	}

	return &S3Backend{
		client: s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.UsePathStyle = cfg.BlobS3Endpoint != ""
		}),
		bucket: cfg.BlobS3Bucket,
	}, nil
}

func (b *S3Backend) Save(ctx context.Context, storageKey string, r io.Reader) (int64, error) {
	counting := &countingReader{r: r}
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(storageKey),
		Body:   counting,
	})
	if err != nil {
		return 0, err
	}
	return counting.n, nil
}

func (b *S3Backend) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(storageKey),
	})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}

func (b *S3Backend) Remove(ctx context.Context, storageKey string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(storageKey),
	})
	return err
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
