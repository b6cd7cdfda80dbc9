package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectAPI is the subset of the S3 client used by the archive
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// DatasetArchive keeps a copy of every uploaded CSV in an S3 bucket
type DatasetArchive struct {
	client ObjectAPI
	bucket string
	prefix string
}

// NewDatasetArchive creates an archive on top of an S3 client
func NewDatasetArchive(client ObjectAPI, bucket, prefix string) *DatasetArchive {
	return &DatasetArchive{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

// NewS3DatasetArchive loads the default AWS configuration for region and
// builds an archive writing to bucket under prefix
func NewS3DatasetArchive(ctx context.Context, region, bucket, prefix string) (*DatasetArchive, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewDatasetArchive(s3.NewFromConfig(cfg), bucket, prefix), nil
}

// Key returns the object key a dataset is archived under
func (a *DatasetArchive) Key(filename string) string {
	return path.Join(a.prefix, path.Base(filename))
}

// Put archives the raw content of a dataset, replacing any previous copy
func (a *DatasetArchive) Put(ctx context.Context, filename string, content []byte) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(a.Key(filename)),
		Body:          bytes.NewReader(content),
		ContentLength: aws.Int64(int64(len(content))),
		ContentType:   aws.String("text/csv"),
	})
	if err != nil {
		return fmt.Errorf("failed to archive %s: %w", filename, err)
	}
	return nil
}

// Delete removes the archived copy of a dataset
func (a *DatasetArchive) Delete(ctx context.Context, filename string) error {
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.Key(filename)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete archived %s: %w", filename, err)
	}
	return nil
}
