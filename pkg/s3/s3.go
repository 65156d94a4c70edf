package s3

import (
	"fmt"
	"strings"
	"time"

	"reel-feed/pkg/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

const locatorScheme = "s3://"

// Client turns stored media locators into short-lived playable URLs.
type Client struct {
	s3Client *s3.S3
	bucket   string
	ttl      time.Duration
}

func NewClient(cfg *config.Config) (*Client, error) {
	awsConfig := &aws.Config{
		Region: aws.String(cfg.AWSRegion),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		),
	}

	// MinIO for local development
	if cfg.AWSEndpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.AWSEndpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
		if cfg.S3UseSSL == "false" {
			awsConfig.DisableSSL = aws.Bool(true)
		}
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	ttl := cfg.MediaURLTTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &Client{
		s3Client: s3.New(sess),
		bucket:   cfg.S3BucketName,
		ttl:      ttl,
	}, nil
}

// ParseLocator splits "s3://bucket/key". A locator without a bucket
// segment ("s3:///key") uses the default bucket.
func ParseLocator(locator, defaultBucket string) (bucket, key string, ok bool) {
	if !strings.HasPrefix(locator, locatorScheme) {
		return "", "", false
	}
	rest := strings.TrimPrefix(locator, locatorScheme)
	bucket, key, found := strings.Cut(rest, "/")
	if !found || key == "" {
		return "", "", false
	}
	if bucket == "" {
		bucket = defaultBucket
	}
	return bucket, key, bucket != ""
}

// ResolveURL presigns s3 locators and passes every other URL through.
func (c *Client) ResolveURL(locator string) (string, error) {
	bucket, key, ok := ParseLocator(locator, c.bucket)
	if !ok {
		return locator, nil
	}

	req, _ := c.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	url, err := req.Presign(c.ttl)
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", locator, err)
	}
	return url, nil
}

// Exists reports whether the object behind a locator is present. Used by the
// seed tool to warn about missing demo media.
func (c *Client) Exists(locator string) (bool, error) {
	bucket, key, ok := ParseLocator(locator, c.bucket)
	if !ok {
		return false, fmt.Errorf("not an s3 locator: %s", locator)
	}
	_, err := c.s3Client.HeadObject(&s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return false, nil
	}
	return true, nil
}
