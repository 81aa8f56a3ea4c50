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

	appconfig "github.com/sysup-io/sysup/internal/config"
)

// Uploader pushes the final report bundle to a central location so upgrade
// outcomes across a fleet can be collected in one place.
type Uploader interface {
	Upload(ctx context.Context, executionID string, paths []string) error
}

// s3Uploader implements Uploader for AWS S3.
type s3Uploader struct {
	bucket string
	prefix string
	client *s3.Client
}

// NewS3Uploader builds an uploader from the archive configuration.
func NewS3Uploader(ctx context.Context, cfg *appconfig.ArchiveConfig) (Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("report archive requires 'bucket' configuration")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(region))
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "sysup"
	}

	return &s3Uploader{
		bucket: cfg.Bucket,
		prefix: prefix,
		client: s3.NewFromConfig(awsCfg),
	}, nil
}

// Upload puts every file under <prefix>/<executionID>/. A failed upload is
// reported to the caller but must never fail the upgrade itself.
func (u *s3Uploader) Upload(ctx context.Context, executionID string, paths []string) error {
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read %s for upload: %w", p, err)
		}

		key := path.Join(u.prefix, executionID, filepath.Base(p))
		_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(u.bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader(data),
		})
		if err != nil {
			return fmt.Errorf("failed to upload %s to s3://%s/%s: %w", p, u.bucket, key, err)
		}
	}
	return nil
}
