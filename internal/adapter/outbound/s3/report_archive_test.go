package s3

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botmarket/server/internal/infra/config"
	"github.com/botmarket/server/internal/model"
)

type recordingPutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (p *recordingPutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.input = in
	p.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestReportArchive_Save(t *testing.T) {
	putter := &recordingPutter{}
	archive := NewReportArchiveAdapter(putter, "audit", "reconcile/")

	summary := &model.ReconcileSummary{
		ID:        "9b2d6c1e",
		StartedAt: time.Date(2024, 3, 7, 23, 30, 0, 0, time.FixedZone("BRT", -3*3600)),
		Examined:  1,
		Updated:   1,
		Results: []model.OrderReconcileResult{
			{OrderID: "ord_1", Outcome: model.ReconcileUpdated},
		},
	}

	key, err := archive.Save(context.Background(), summary)

	require.NoError(t, err)
	assert.Equal(t, "reconcile/2024/03/08/9b2d6c1e.json", key)
	assert.Equal(t, "audit", aws.ToString(putter.input.Bucket))
	assert.Equal(t, key, aws.ToString(putter.input.Key))
	assert.Equal(t, "application/json", aws.ToString(putter.input.ContentType))

	var stored model.ReconcileSummary
	require.NoError(t, json.Unmarshal(putter.body, &stored))
	assert.Equal(t, 1, stored.Updated)
	assert.Equal(t, "ord_1", stored.Results[0].OrderID)
}

func TestReportArchive_SaveError(t *testing.T) {
	archive := NewReportArchiveAdapter(&recordingPutter{err: errors.New("access denied")}, "audit", "")

	_, err := archive.Save(context.Background(), &model.ReconcileSummary{ID: "x"})

	assert.ErrorContains(t, err, "access denied")
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(context.Background(), &config.ArchiveConfig{})
	assert.Error(t, err)

	client, err := NewClient(context.Background(), &config.ArchiveConfig{
		Endpoint:        "http://127.0.0.1:9000",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		Bucket:          "audit",
	})
	require.NoError(t, err)
	assert.NotNil(t, client)
}
