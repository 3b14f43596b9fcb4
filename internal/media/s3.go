package media

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// S3Config configures S3Uploader.
type S3Config struct {
	Bucket    string
	Region    string
	PublicURL string
}

// S3Uploader stores uploads in an AWS S3 bucket using the multipart uploader.
type S3Uploader struct {
	uploader  *s3manager.Uploader
	bucket    string
	publicURL string
}

// NewS3Uploader builds an uploader from the default AWS credential chain.
func NewS3Uploader(cfg S3Config) (*S3Uploader, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.Region),
	})
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}

	base := cfg.PublicURL
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}

	return &S3Uploader{
		uploader:  s3manager.NewUploader(sess),
		bucket:    cfg.Bucket,
		publicURL: base,
	}, nil
}

// Upload streams u into the bucket under a fresh object key.
func (s *S3Uploader) Upload(ctx context.Context, u Upload) (string, error) {
	contentType, body, err := sniff(u.Body)
	if err != nil {
		return "", err
	}

	key := ObjectKey(u.Filename, time.Now().UTC())
	_, err = s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
		Metadata: map[string]*string{
			"original-filename": aws.String(u.Filename),
		},
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload %s: %w", key, err)
	}
	return publicURL(s.publicURL, key), nil
}
