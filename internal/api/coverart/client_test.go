package coverart

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDownloadFront(t *testing.T) {
	payload := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/release/rel-1/front" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write(payload)
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)
	data, err := client.DownloadFront(context.Background(), "rel-1")
	if err != nil {
		t.Fatalf("DownloadFront failed: %v", err)
	}
	if len(data) != len(payload) {
		t.Errorf("expected %d bytes, got %d", len(payload), len(data))
	}
}

func TestDownloadFrontEmptyID(t *testing.T) {
	client := NewClient()
	if _, err := client.DownloadFront(context.Background(), ""); err == nil {
		t.Error("expected error for empty release ID")
	}
}

func TestDownloadNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)
	if _, err := client.Download(context.Background(), server.URL+"/release/missing/front"); err == nil {
		t.Error("expected error for 404 response")
	}
}

func TestDetectImageFormat(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want string
	}{
		{"png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A}, "image/png"},
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0}, "image/jpeg"},
		{"gif", []byte{0x47, 0x49, 0x46, 0x38, 0x39}, "image/gif"},
		{"webp", []byte{0x52, 0x49, 0x46, 0x46, 0, 0, 0, 0, 0x57, 0x45, 0x42, 0x50}, "image/webp"},
		{"short", []byte{0x01}, "image/jpeg"},
		{"unknown", []byte{0x00, 0x01, 0x02, 0x03}, "image/jpeg"},
	}

	for _, tc := range cases {
		if got := DetectImageFormat(tc.data); got != tc.want {
			t.Errorf("%s: DetectImageFormat = %s, want %s", tc.name, got, tc.want)
		}
	}
}
