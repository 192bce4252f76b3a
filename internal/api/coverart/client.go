// Package coverart downloads release artwork from the Cover Art Archive.
package coverart

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"songshare-analyzer/internal/shared"
)

const (
	defaultBaseURL = "https://coverartarchive.org"
	defaultTimeout = 60 * time.Second

	// maxImageSize caps downloads so a misbehaving server cannot make
	// us buffer arbitrary amounts of image data
	maxImageSize = 20 << 20
)

// Client fetches cover art images
type Client struct {
	httpClient *http.Client
	baseURL    string
	maxRetries int
}

// NewClient creates a Cover Art Archive client
func NewClient() *Client {
	return NewClientWithBaseURL(defaultBaseURL)
}

// NewClientWithBaseURL creates a client against a custom archive endpoint
func NewClientWithBaseURL(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    baseURL,
		maxRetries: shared.DefaultMaxRetries,
	}
}

// DownloadFront downloads the front cover image for a release MBID
func (c *Client) DownloadFront(ctx context.Context, releaseID string) ([]byte, error) {
	if releaseID == "" {
		return nil, fmt.Errorf("release ID cannot be empty")
	}
	return c.Download(ctx, fmt.Sprintf("%s/release/%s/front", c.baseURL, releaseID))
}

// Download fetches an image from an absolute URL, following the archive's
// redirect to the actual image host
func (c *Client) Download(ctx context.Context, imageURL string) ([]byte, error) {
	var imageData []byte

	err := shared.RetryWithBackoffForHTTP(c.maxRetries, 1*time.Second, 30*time.Second, func() error {
		req, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", shared.UserAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return &shared.HTTPError{
				StatusCode: resp.StatusCode,
				Status:     resp.Status,
				Message:    fmt.Sprintf("cover art fetch failed for %s", imageURL),
			}
		}

		imageData, err = io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(imageData) == 0 {
		return nil, fmt.Errorf("empty image response from %s", imageURL)
	}
	return imageData, nil
}

// DetectImageFormat detects the MIME type of image data from its magic bytes
func DetectImageFormat(data []byte) string {
	if len(data) < 4 {
		return "image/jpeg" // Default fallback
	}

	// Check for PNG signature (89 50 4E 47)
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}

	// Check for JPEG signature (FF D8)
	if data[0] == 0xFF && data[1] == 0xD8 {
		return "image/jpeg"
	}

	// Check for WebP signature (RIFF...WEBP)
	if len(data) >= 12 && data[0] == 0x52 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x46 &&
		data[8] == 0x57 && data[9] == 0x45 && data[10] == 0x42 && data[11] == 0x50 {
		return "image/webp"
	}

	// Check for GIF signature (GIF8)
	if data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x38 {
		return "image/gif"
	}

	// Default to JPEG if we can't determine
	return "image/jpeg"
}
