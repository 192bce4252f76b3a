// Package navidrome triggers library rescans on a Navidrome server after
// a tagging run so retagged files show up without waiting for the
// periodic scanner.
package navidrome

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	subsonic "github.com/delucks/go-subsonic"
)

const clientName = "songshare-analyzer"

// Authenticate authenticates the client with the navidrome api
func (n *NavidromeClient) Authenticate() error {
	// Ping the server to get the salt
	pingURL := fmt.Sprintf("%s/rest/ping.view?v=1.16.1&c=%s&f=json", n.URL, clientName)
	resp, err := http.Get(pingURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var pingResponse struct {
		SubsonicResponse struct {
			Status string `json:"status"`
			Salt   string `json:"salt"`
		} `json:"subsonic-response"`
	}

	if err := json.Unmarshal(body, &pingResponse); err != nil {
		return err
	}

	if pingResponse.SubsonicResponse.Status != "ok" {
		// Try with auth
		pingURL = fmt.Sprintf("%s/rest/ping.view?u=%s&p=%s&v=1.16.1&c=%s&f=json", n.URL, n.Username, n.Password, clientName)
		resp, err = http.Get(pingURL)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		if err := json.Unmarshal(body, &pingResponse); err != nil {
			return err
		}

		if pingResponse.SubsonicResponse.Status != "ok" {
			return fmt.Errorf("ping failed: %s", pingResponse.SubsonicResponse.Status)
		}
	}

	n.Salt = pingResponse.SubsonicResponse.Salt
	n.Token = getSaltedPassword(n.Password, n.Salt)

	n.Client = subsonic.Client{
		Client:       http.DefaultClient,
		BaseUrl:      n.URL,
		User:         n.Username,
		ClientName:   clientName,
		PasswordAuth: true,
	}
	return n.Client.Authenticate(n.Password)
}

// StartScan asks the server to rescan its music library
func (n *NavidromeClient) StartScan() error {
	return n.restCall("startScan.view", nil)
}

// VerifyTrack checks that a freshly retagged track is visible on the
// server under its new title and artist
func (n *NavidromeClient) VerifyTrack(title, artist string) (bool, error) {
	searchResult, err := n.Client.Search2(title, map[string]string{"songCount": "10"})
	if err != nil {
		return false, err
	}
	if searchResult == nil {
		return false, nil
	}

	for _, song := range searchResult.Song {
		if strings.EqualFold(song.Title, title) && (artist == "" || strings.EqualFold(song.Artist, artist)) {
			return true, nil
		}
	}
	return false, nil
}

// restCall issues a raw Subsonic REST view request the go-subsonic
// library has no wrapper for
func (n *NavidromeClient) restCall(view string, extra url.Values) error {
	params := url.Values{}
	params.Add("u", n.Username)
	params.Add("t", n.Token)
	params.Add("s", n.Salt)
	params.Add("v", "1.16.1")
	params.Add("c", clientName)
	params.Add("f", "json")
	for key, values := range extra {
		for _, value := range values {
			params.Add(key, value)
		}
	}

	callURL := fmt.Sprintf("%s/rest/%s?%s", n.URL, view, params.Encode())

	req, err := http.NewRequest("GET", callURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s failed: status code %d, body: %s", view, resp.StatusCode, string(body))
	}

	var subsonicResponse struct {
		SubsonicResponse struct {
			Status string `json:"status"`
			Error  struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		} `json:"subsonic-response"`
	}

	if err := json.Unmarshal(body, &subsonicResponse); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if subsonicResponse.SubsonicResponse.Status == "failed" {
		return fmt.Errorf("%s failed: %s (code %d)", view, subsonicResponse.SubsonicResponse.Error.Message, subsonicResponse.SubsonicResponse.Error.Code)
	}

	return nil
}

// getSaltedPassword returns the salted password for navidrome
func getSaltedPassword(password string, salt string) string {
	hasher := md5.New()
	hasher.Write([]byte(password + salt))
	return hex.EncodeToString(hasher.Sum(nil))
}
