package storage

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"

	"github.com/Ayush7kr/TaskManagementSystem/internal/config"
)

// placeholderPNG is a 1x1 transparent PNG seeded into local storage so the
// default avatar URL resolves out of the box.
var placeholderPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

// Client wraps the configured storage backend and knows the avatar layout
// within the bucket.
type Client struct {
	backend Provider
	bucket  string
	baseURL string
	local   bool
}

func New(cfg *config.Config) *Client {
	var backend Provider
	local := cfg.Storage.Provider == "local"

	if local {
		backend = NewLocalProvider(cfg.Storage.LocalPath)
	} else {
		s3Config := &aws.Config{
			Credentials:      credentials.NewStaticCredentials(cfg.Storage.KeyID, cfg.Storage.AppKey, ""),
			Endpoint:         aws.String(cfg.Storage.Endpoint),
			Region:           aws.String(cfg.Storage.Region),
			S3ForcePathStyle: aws.Bool(true),
		}
		sess := session.Must(session.NewSession(s3Config))
		backend = NewS3Provider(sess)
	}

	c := &Client{
		backend: backend,
		bucket:  cfg.Storage.Bucket,
		baseURL: strings.TrimRight(cfg.Storage.PublicBaseURL, "/"),
		local:   local,
	}

	// On the local backend we also serve the files, so the placeholder must
	// exist. S3 deployments manage their bucket contents themselves.
	if local {
		if err := c.backend.Put(c.bucket, "avatars/placeholder.png",
			bytes.NewReader(placeholderPNG), "image/png", "public, max-age=3600"); err != nil {
			slog.Warn("failed to seed placeholder avatar", "error", err)
		}
	}

	return c
}

// Local reports whether avatars live on the local backend, in which case the
// API server serves them itself.
func (c *Client) Local() bool {
	return c.local
}

// SaveAvatar stores an uploaded avatar under a deterministic per-user key so
// a re-upload replaces the previous file, and returns the public URL to
// persist on the account.
func (c *Client) SaveAvatar(userID uint, filename string, body io.ReadSeeker, contentType string) (string, error) {
	ext := strings.ToLower(path.Ext(filename))
	key := fmt.Sprintf("avatars/user_%d%s", userID, ext)

	if err := c.backend.Put(c.bucket, key, body, contentType, "public, max-age=3600"); err != nil {
		return "", err
	}
	return c.baseURL + "/" + key, nil
}

// GetAvatar fetches a stored avatar, used when serving avatars from the
// local backend.
func (c *Client) GetAvatar(key string) (*FileObject, error) {
	return c.backend.Get(c.bucket, key)
}

// DeleteAvatar removes a stale avatar file, e.g. after a re-upload changed
// the file extension.
func (c *Client) DeleteAvatar(key string) error {
	return c.backend.Delete(c.bucket, key)
}

// AvatarKey maps a stored avatar URL back to its storage key. The
// placeholder and foreign URLs report false.
func (c *Client) AvatarKey(url string) (string, bool) {
	key := strings.TrimPrefix(url, c.baseURL)
	key = strings.TrimPrefix(key, "/")
	if !strings.HasPrefix(key, "avatars/user_") {
		return "", false
	}
	return key, true
}
