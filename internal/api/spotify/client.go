// Package spotify provides a fallback metadata source for files
// MusicBrainz cannot resolve.
package spotify

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

// SpotifyClient holds the spotify client and credentials
type SpotifyClient struct {
	client *spotify.Client
	ID     string
	Secret string
}

// TrackInfo is the enrichment subset Spotify can contribute
type TrackInfo struct {
	Name        string
	Artist      string
	AlbumName   string
	AlbumArtist string
	ReleaseDate string
	Genres      []string
}

// NewSpotifyClient creates a new spotify client
func NewSpotifyClient(id, secret string) *SpotifyClient {
	return &SpotifyClient{
		ID:     id,
		Secret: secret,
	}
}

// IsConfigured reports whether credentials are present
func (s *SpotifyClient) IsConfigured() bool {
	return s.ID != "" && s.Secret != ""
}

// Authenticate authenticates the client with the spotify api
func (s *SpotifyClient) Authenticate(ctx context.Context) error {
	config := &clientcredentials.Config{
		ClientID:     s.ID,
		ClientSecret: s.Secret,
		TokenURL:     spotifyauth.TokenURL,
	}
	token, err := config.Token(ctx)
	if err != nil {
		return err
	}

	httpClient := spotifyauth.New().Client(ctx, token)
	s.client = spotify.New(httpClient)
	return nil
}

// SearchTrack searches Spotify for a track by title and artist and
// returns enrichment metadata from the best hit
func (s *SpotifyClient) SearchTrack(ctx context.Context, title, artist string) (*TrackInfo, error) {
	if s.client == nil {
		return nil, fmt.Errorf("spotify client not authenticated")
	}
	if title == "" {
		return nil, fmt.Errorf("title cannot be empty")
	}

	query := fmt.Sprintf("track:%s", title)
	if artist != "" {
		query = fmt.Sprintf("%s artist:%s", query, artist)
	}

	results, err := s.client.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(1))
	if err != nil {
		return nil, fmt.Errorf("spotify search failed: %w", err)
	}
	if results.Tracks == nil || len(results.Tracks.Tracks) == 0 {
		return nil, nil
	}

	track := results.Tracks.Tracks[0]
	info := &TrackInfo{
		Name:        track.Name,
		AlbumName:   track.Album.Name,
		ReleaseDate: track.Album.ReleaseDate,
	}
	if len(track.Artists) > 0 {
		info.Artist = track.Artists[0].Name
	}
	if len(track.Album.Artists) > 0 {
		info.AlbumArtist = track.Album.Artists[0].Name
	}

	// Genres live on the artist, not the track
	if len(track.Artists) > 0 {
		fullArtist, err := s.client.GetArtist(ctx, track.Artists[0].ID)
		if err == nil && fullArtist != nil {
			info.Genres = fullArtist.Genres
		}
	}

	return info, nil
}

// ProposeTags converts Spotify enrichment into tag frames, covering only
// the fields a MusicBrainz miss leaves empty
func (info *TrackInfo) ProposeTags() map[string]string {
	tags := make(map[string]string)
	if info == nil {
		return tags
	}

	if info.Name != "" {
		tags["TIT2"] = info.Name
	}
	if info.Artist != "" {
		tags["TPE1"] = info.Artist
	}
	if info.AlbumName != "" {
		tags["TALB"] = info.AlbumName
	}
	if info.ReleaseDate != "" {
		tags["TDRC"] = info.ReleaseDate
	}
	if len(info.Genres) > 0 {
		tags["TCON"] = info.Genres[0]
	}
	tags["TXXX:metadata_source"] = "spotify"

	return tags
}
