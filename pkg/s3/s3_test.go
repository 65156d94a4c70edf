package s3

import (
	"strings"
	"testing"
	"time"

	"reel-feed/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocator(t *testing.T) {
	tests := []struct {
		name    string
		locator string
		bucket  string
		key     string
		ok      bool
	}{
		{"full locator", "s3://media/reels/a.mp4", "media", "reels/a.mp4", true},
		{"default bucket", "s3:///reels/a.mp4", "fallback", "reels/a.mp4", true},
		{"https passthrough", "https://cdn.example.com/a.mp4", "", "", false},
		{"missing key", "s3://media/", "", "", false},
		{"bucket only", "s3://media", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, key, ok := ParseLocator(tt.locator, "fallback")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.bucket, bucket)
			assert.Equal(t, tt.key, key)
		})
	}
}

func TestResolveURL(t *testing.T) {
	client, err := NewClient(&config.Config{
		AWSRegion:          "us-east-1",
		AWSAccessKeyID:     "test",
		AWSSecretAccessKey: "test",
		AWSEndpoint:        "http://localhost:9000",
		S3UseSSL:           "false",
		S3BucketName:       "media",
		MediaURLTTL:        15 * time.Minute,
	})
	require.NoError(t, err)

	url, err := client.ResolveURL("https://cdn.example.com/a.mp4")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.mp4", url)

	url, err = client.ResolveURL("s3://media/reels/a.mp4")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:9000/media/reels/a.mp4?"), url)
	assert.Contains(t, url, "X-Amz-Expires=900")
}
