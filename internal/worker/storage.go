package worker

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/jonathan/resume-analyzer/internal/ingestion"
)

// ObjectFetcher downloads an uploaded document.
type ObjectFetcher interface {
	Fetch(ctx context.Context, bucket, key string) ([]byte, error)
}

// S3Fetcher reads objects from S3 or an S3-compatible store such as R2 or MinIO.
type S3Fetcher struct {
	client *s3.Client
}

// NewS3Fetcher builds a client from the default AWS credential chain. A
// non-empty endpoint switches to path-style addressing against that URL.
func NewS3Fetcher(ctx context.Context, region, endpoint string) (*S3Fetcher, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Fetcher{client: client}, nil
}

// Fetch downloads bucket/key, refusing objects larger than
// ingestion.MaxDocumentBytes.
func (f *S3Fetcher) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer out.Body.Close()

	buf := new(bytes.Buffer)
	n, err := io.Copy(buf, io.LimitReader(out.Body, ingestion.MaxDocumentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	if n > ingestion.MaxDocumentBytes {
		return nil, fmt.Errorf("object %s/%s exceeds %d bytes", bucket, key, ingestion.MaxDocumentBytes)
	}
	return buf.Bytes(), nil
}
