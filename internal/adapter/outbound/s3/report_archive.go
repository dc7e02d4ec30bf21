package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/botmarket/server/internal/model"
	"github.com/botmarket/server/internal/port/outbound"
)

// ObjectPutter is the subset of the S3 client the archive needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ReportArchiveAdapter implements outbound.ReportArchivePort on S3.
type ReportArchiveAdapter struct {
	client ObjectPutter
	bucket string
	prefix string
}

// NewReportArchiveAdapter creates a new report archive adapter.
func NewReportArchiveAdapter(client ObjectPutter, bucket, prefix string) *ReportArchiveAdapter {
	return &ReportArchiveAdapter{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

// Save writes the summary as JSON under <prefix>YYYY/MM/DD/<summary id>.json.
func (a *ReportArchiveAdapter) Save(ctx context.Context, summary *model.ReconcileSummary) (string, error) {
	body, err := json.Marshal(summary)
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}

	key := a.objectKey(summary)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return key, nil
}

func (a *ReportArchiveAdapter) objectKey(summary *model.ReconcileSummary) string {
	day := summary.StartedAt.UTC().Format("2006/01/02")
	return a.prefix + path.Join(day, summary.ID+".json")
}

// Compile-time check
var _ outbound.ReportArchivePort = (*ReportArchiveAdapter)(nil)
