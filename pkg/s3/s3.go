package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

var ErrBucketNotConfigured = errors.New("AWS_BUCKET_NAME not set")

// SummaryURLTTL is how long a presigned summary link stays valid.
const SummaryURLTTL = 24 * time.Hour

type ItfS3 interface {
	UploadSummary(ctx context.Context, key string, body []byte) error
	PresignSummary(key string) (string, error)
}

type s3Client struct {
	client     *s3.S3
	uploader   *s3manager.Uploader
	bucketName string
}

func New() (ItfS3, error) {
	bucket := os.Getenv("AWS_BUCKET_NAME")
	if bucket == "" {
		return nil, ErrBucketNotConfigured
	}

	sess, err := newSession()
	if err != nil {
		return nil, err
	}

	return &s3Client{
		client:     s3.New(sess),
		uploader:   s3manager.NewUploader(sess),
		bucketName: bucket,
	}, nil
}

// UploadSummary stores a finished session report under key.
func (s *s3Client) UploadSummary(ctx context.Context, key string, body []byte) error {
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload summary: %w", err)
	}

	return nil
}

// PresignSummary signs a download link locally. The object does not have to
// exist yet; the link resolves once the upload has finished.
func (s *s3Client) PresignSummary(key string) (string, error) {
	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})

	return req.Presign(SummaryURLTTL)
}

func SummaryKey(sessionID int64, at time.Time) string {
	return fmt.Sprintf("focus-sessions/%s/session-%d.json", at.UTC().Format("2006/01/02"), sessionID)
}

func newSession() (*session.Session, error) {
	return session.NewSession(&aws.Config{
		Region: aws.String(os.Getenv("AWS_REGION")),
		Credentials: credentials.NewStaticCredentials(
			os.Getenv("AWS_ACCESS_KEY_ID"),
			os.Getenv("AWS_SECRET_ACCESS_KEY"),
			"",
		),
	})
}
