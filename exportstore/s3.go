/*
Package exportstore optionally mirrors export artifacts written to
EXPORT_DIR up to S3, grounded on aristath-sentinel's use of
aws-sdk-go-v2's feature/s3/manager uploader for its own periodic
artifact archival. A nil/disabled Mirror is a valid no-op: local write
always happens first, S3 is a best-effort off-site copy.
*/
package exportstore

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Mirror uploads export artifacts to S3 when configured. The zero value
// (empty Bucket) disables mirroring entirely.
type Mirror struct {
	Bucket   string
	Uploader *manager.Uploader
}

// NewMirror loads default AWS credentials/region the way
// aristath-sentinel's archival step does, and returns a Mirror. Pass an
// empty bucket to get a disabled mirror without touching AWS at all.
func NewMirror(ctx context.Context, bucket string) (*Mirror, error) {
	if bucket == "" {
		return &Mirror{}, nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	return &Mirror{Bucket: bucket, Uploader: manager.NewUploader(client)}, nil
}

func (m *Mirror) Enabled() bool { return m != nil && m.Bucket != "" }

// Upload mirrors a single export artifact (key is the local filename,
// e.g. "{pack}_{generated_at}_{hash8}.csv") and returns its S3 URL.
func (m *Mirror) Upload(ctx context.Context, key string, body []byte) (string, error) {
	if !m.Enabled() {
		return "", nil
	}
	_, err := m.Uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(m.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s to s3://%s: %w", key, m.Bucket, err)
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", m.Bucket, key), nil
}
