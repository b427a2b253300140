// utils/r2.go
package utils

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// objectPutter is the part of the S3 client the archiver needs.
type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// R2Config locates the Cloudflare R2 bucket closed league weeks are archived to.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	CDNBaseURL      string
}

// R2Archiver uploads weekly standings as JSON objects.
type R2Archiver struct {
	client     objectPutter
	bucket     string
	cdnBaseURL string
}

func NewR2Archiver(ctx context.Context, c R2Config) (*R2Archiver, error) {
	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.AccountID)
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.AccessKeyID, c.AccessKeySecret, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	cdn := c.CDNBaseURL
	if cdn == "" {
		cdn = endpoint + "/" + c.Bucket
	}
	return newR2Archiver(client, c.Bucket, cdn), nil
}

func newR2Archiver(client objectPutter, bucket, cdnBaseURL string) *R2Archiver {
	return &R2Archiver{client: client, bucket: bucket, cdnBaseURL: strings.TrimRight(cdnBaseURL, "/")}
}

// StandingsKey is the object key of a week's archive, e.g. "standings/2025-03-03.json".
func StandingsKey(weekStart time.Time) string {
	return "standings/" + weekStart.UTC().Format("2006-01-02") + ".json"
}

// ArchiveStandings uploads body under the week's key and returns its public URL.
func (a *R2Archiver) ArchiveStandings(ctx context.Context, weekStart time.Time, body []byte) (string, error) {
	key := StandingsKey(weekStart)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to R2: %w", key, err)
	}
	return fmt.Sprintf("%s/%s", a.cdnBaseURL, key), nil
}
