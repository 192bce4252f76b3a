package shared

import (
	"bufio"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
)

// Constants
const (
	DefaultMaxRetries = 3
	UserAgent         = "songshare-analyzer/1.0"
)

// HTTPError represents an HTTP error with status code
type HTTPError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s - %s", e.StatusCode, e.Status, e.Message)
}

// IsRetryableHTTPError checks if an HTTP error should be retried
func IsRetryableHTTPError(err error) bool {
	// Unwrap the error if it's wrapped
	for err != nil {
		if httpErr, ok := err.(*HTTPError); ok {
			switch httpErr.StatusCode {
			case http.StatusServiceUnavailable, // 503
				http.StatusTooManyRequests, // 429
				http.StatusBadGateway,      // 502
				http.StatusGatewayTimeout:  // 504
				return true
			}
		}
		// Try to unwrap the error further
		if unwrapped, ok := err.(interface{ Unwrap() error }); ok {
			err = unwrapped.Unwrap()
		} else {
			break
		}
	}
	return false
}

// RetryWithBackoffForHTTP retries HTTP requests with smart error handling
func RetryWithBackoffForHTTP(maxRetries int, initialDelay time.Duration, maxDelay time.Duration, fn func() error) error {
	return RetryWithBackoffForHTTPWithDebug(maxRetries, initialDelay, maxDelay, fn, false)
}

// RetryWithBackoffForHTTPWithDebug retries HTTP requests with smart error handling and optional debug logging
func RetryWithBackoffForHTTPWithDebug(maxRetries int, initialDelay time.Duration, maxDelay time.Duration, fn func() error, debug bool) error {
	var lastErr error

	if maxRetries == 0 { // If no retries, just execute once
		return fn()
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		// Check if this is a retryable HTTP error
		if !IsRetryableHTTPError(lastErr) {
			return lastErr // Don't retry non-retryable errors
		}

		if attempt == maxRetries-1 {
			break // Don't sleep on the last attempt
		}

		// Calculate delay with exponential backoff and jitter
		delay := initialDelay * time.Duration(1<<uint(attempt))
		if delay > maxDelay {
			delay = maxDelay
		}

		// Add jitter (±25% of delay)
		jitter := time.Duration(rand.Int63n(int64(delay/2))) - delay/4
		finalDelay := delay + jitter

		if finalDelay < 0 {
			finalDelay = delay
		}

		// Only log retry messages in debug mode
		if debug {
			log.Printf("HTTP request failed (attempt %d/%d): %v. Retrying in %v",
				attempt+1, maxRetries, lastErr, finalDelay)
		}

		time.Sleep(finalDelay)
	}

	return fmt.Errorf("failed after %d attempts: %w", maxRetries, lastErr)
}

// GetUserInput prompts the user for input with a default value
func GetUserInput(prompt, defaultValue string) string {
	if defaultValue != "" {
		prompt = fmt.Sprintf("%s [%s]", prompt, defaultValue)
	}
	ColorPrompt.Print(prompt + ": ")
	scanner := bufio.NewScanner(os.Stdin)
	if scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input == "" && defaultValue != "" {
			return defaultValue
		}
		return input
	}
	return defaultValue
}

// GetYesNoInput prompts the user for a yes/no answer
func GetYesNoInput(prompt, defaultValue string) bool {
	answer := strings.ToLower(GetUserInput(prompt, defaultValue))
	return answer == "y" || answer == "yes"
}

// FileExists checks if a file exists at the given path
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// CreateDirIfNotExists creates a directory if it does not exist
func CreateDirIfNotExists(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// IsAudioFile reports whether path has one of the audio suffixes the
// processor knows how to read.
func IsAudioFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3", ".flac", ".wav", ".m4a", ".ogg":
		return true
	}
	return false
}

// TruncateString truncates a string to the specified length, adding ellipsis if truncated.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// IsTTY reports whether stdout is attached to a terminal
func IsTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
}
