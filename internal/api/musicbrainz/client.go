package musicbrainz

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"songshare-analyzer/internal/shared"
)

// 1. Constants and types
const (
	defaultBaseURL      = "https://musicbrainz.org/ws/2/"
	defaultContact      = "songshare@example.com"
	defaultTimeout      = 30 * time.Second
	defaultRateLimit    = 333 * time.Millisecond // MusicBrainz allows ~3 requests per second
	defaultBurstLimit   = 6
	defaultMaxRetries   = 5
	defaultInitialDelay = 2 * time.Second
	defaultMaxDelay     = 60 * time.Second

	searchLimit = 3
)

// Config holds configuration for MusicBrainz API client
type Config struct {
	BaseURL      string        `json:"base_url"`
	UserAgent    string        `json:"user_agent"`
	Timeout      time.Duration `json:"timeout"`
	MaxRetries   int           `json:"max_retries"`
	InitialDelay time.Duration `json:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay"`
	RateLimit    time.Duration `json:"rate_limit"`
	BurstLimit   int           `json:"burst_limit"`
	Debug        bool          `json:"debug"`
}

// Client represents a MusicBrainz API client
type Client struct {
	httpClient  *http.Client
	config      Config
	rateLimiter *rate.Limiter
}

// 2. Constructor and configuration

// DefaultConfig returns sensible defaults for MusicBrainz API client
func DefaultConfig() Config {
	return Config{
		BaseURL:      defaultBaseURL,
		UserAgent:    fmt.Sprintf("%s ( %s )", shared.UserAgent, defaultContact),
		Timeout:      defaultTimeout,
		MaxRetries:   defaultMaxRetries,
		InitialDelay: defaultInitialDelay,
		MaxDelay:     defaultMaxDelay,
		RateLimit:    defaultRateLimit,
		BurstLimit:   defaultBurstLimit,
		Debug:        false,
	}
}

// NewClient creates a new MusicBrainz API client with default configuration
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new MusicBrainz API client with custom configuration
func NewClientWithConfig(config Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		config:      config,
		rateLimiter: rate.NewLimiter(rate.Every(config.RateLimit), config.BurstLimit),
	}
}

// NewClientWithContact creates a client identifying itself with the given
// contact address, as MusicBrainz etiquette requires
func NewClientWithContact(contact string) *Client {
	config := DefaultConfig()
	if contact != "" {
		config.UserAgent = fmt.Sprintf("%s ( %s )", shared.UserAgent, contact)
	}
	return NewClientWithConfig(config)
}

// UpdateConfig updates the client configuration
func (c *Client) UpdateConfig(config Config) {
	c.config = config
	c.httpClient.Timeout = config.Timeout
	c.rateLimiter = rate.NewLimiter(rate.Every(config.RateLimit), config.BurstLimit)
}

// GetConfig returns the current client configuration
func (c *Client) GetConfig() Config {
	return c.config
}

// SetDebug enables or disables debug logging for the client
func (c *Client) SetDebug(debug bool) {
	c.config.Debug = debug
}

// 3. Core HTTP methods (private)

// makeRequest creates and executes an HTTP request with proper headers
func (c *Client) makeRequest(ctx context.Context, path string) (*http.Response, error) {
	reqURL, err := url.Parse(c.config.BaseURL + path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	return c.httpClient.Do(req)
}

// get makes a single GET request to the MusicBrainz API
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	// Wait for rate limiter
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	resp, err := c.makeRequest(ctx, path)
	if err != nil {
		// Handle network timeouts
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return nil, &shared.HTTPError{
				StatusCode: http.StatusGatewayTimeout,
				Status:     "Gateway Timeout",
				Message:    err.Error(),
			}
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		message := string(body)
		if len(message) > 200 {
			message = message[:200] + "..."
		}
		return nil, &shared.HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Message:    message,
		}
	}

	return body, nil
}

// getWithRetry makes a GET request with retry logic
func (c *Client) getWithRetry(ctx context.Context, path string) ([]byte, error) {
	var result []byte
	var err error

	retryErr := shared.RetryWithBackoffForHTTPWithDebug(
		c.config.MaxRetries,
		c.config.InitialDelay,
		c.config.MaxDelay,
		func() error {
			result, err = c.get(ctx, path)
			return err
		},
		c.config.Debug,
	)

	if retryErr != nil {
		return nil, retryErr
	}
	return result, nil
}

// 4. Public API methods

// SearchRecordings searches recordings by title and/or artist and returns
// the raw candidate list for deterministic selection by the caller
func (c *Client) SearchRecordings(ctx context.Context, title, artist string) ([]Recording, error) {
	if title == "" && artist == "" {
		return nil, fmt.Errorf("title and artist cannot both be empty")
	}

	query := buildRecordingSearchQuery(title, artist)
	path := fmt.Sprintf("recording?query=%s&limit=%d", url.QueryEscape(query), searchLimit)

	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to search recordings: %w", err)
	}

	var searchResult struct {
		Recordings []Recording `json:"recordings"`
	}
	if err := json.Unmarshal(body, &searchResult); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recording search result: %w", err)
	}

	return searchResult.Recordings, nil
}

// GetRecording fetches a full recording by MBID, including artist credits,
// releases and genres
func (c *Client) GetRecording(ctx context.Context, mbid string) (*Recording, error) {
	if mbid == "" {
		return nil, fmt.Errorf("MBID cannot be empty")
	}

	path := fmt.Sprintf("recording/%s?inc=artists+releases+genres+isrcs+url-rels", mbid)
	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recording %s: %w", mbid, err)
	}

	var recording Recording
	if err := json.Unmarshal(body, &recording); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recording: %w", err)
	}
	return &recording, nil
}

// LookupRecording searches for the best-matching recording for the given
// title/artist, fetches its full record, and extracts tagging metadata.
// Cover art is only included when the selected candidate matches the
// query exactly, so near-misses never get foreign artwork embedded.
func (c *Client) LookupRecording(ctx context.Context, title, artist string) (*RecordingInfo, error) {
	candidates, err := c.SearchRecordings(ctx, title, artist)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	candidate := SelectCandidate(candidates, title, artist)
	if candidate.ID == "" {
		return nil, nil
	}

	// The search candidate already carries enough for extraction; the
	// full fetch adds genres, ISRCs and complete artist credits. Fall
	// back to the candidate when the fetch fails.
	full, err := c.GetRecording(ctx, candidate.ID)
	if err != nil {
		shared.DebugPrint(c.config.Debug, "full recording fetch failed for %s: %v", candidate.ID, err)
		full = candidate
	}

	info := ExtractInfo(full, candidate)

	if !IsPreciseMatch(title, artist, candidate, full) {
		info.CoverArtURL = ""
	}

	return info, nil
}

// 5. Helper/utility functions

// buildRecordingSearchQuery constructs a Lucene query for recording searches
func buildRecordingSearchQuery(title, artist string) string {
	switch {
	case title == "":
		return fmt.Sprintf("artist:\"%s\"", artist)
	case artist == "":
		return fmt.Sprintf("recording:\"%s\"", title)
	default:
		return fmt.Sprintf("recording:\"%s\" AND artist:\"%s\"", title, artist)
	}
}

// Data types

// Artist represents a MusicBrainz artist
type Artist struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	SortName string `json:"sort-name"`
}

// ArtistCredit represents artist credit information
type ArtistCredit struct {
	Name   string `json:"name"`
	Artist Artist `json:"artist"`
}

// Genre represents a MusicBrainz genre tag
type Genre struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ReleaseGroup represents a MusicBrainz release group
type ReleaseGroup struct {
	ID          string `json:"id"`
	PrimaryType string `json:"primary-type"`
}

// Label represents a MusicBrainz label
type Label struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LabelInfo represents label information on a release
type LabelInfo struct {
	CatalogNumber string `json:"catalog-number"`
	Label         Label  `json:"label"`
}

// Release represents a release attached to a recording
type Release struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Date         string         `json:"date"`
	Country      string         `json:"country"`
	Status       string         `json:"status"`
	ArtistCredit []ArtistCredit `json:"artist-credit"`
	LabelInfo    []LabelInfo    `json:"label-info"`
	ReleaseGroup ReleaseGroup   `json:"release-group"`
}

// Recording represents a MusicBrainz recording. Search results carry a
// relevance score; full lookups do not.
type Recording struct {
	ID           string         `json:"id"`
	Score        int            `json:"score"`
	Title        string         `json:"title"`
	Length       int            `json:"length"` // Duration in milliseconds
	ArtistCredit []ArtistCredit `json:"artist-credit"`
	Releases     []Release      `json:"releases"`
	Genres       []Genre        `json:"genres"`
	ISRCs        []string       `json:"isrcs"`
}
