// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package catalog

// Artist is an artist reference as returned by the catalog API
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AlbumRef is the nested album object carried on a track detail
type AlbumRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Album is one release from the new-releases listing
type Album struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Artists     []Artist `json:"artists"`
	ReleaseDate string   `json:"release_date"`
	TotalTracks int      `json:"total_tracks"`
}

// TrackRef is a track as listed on an album. Album listings carry no
// popularity; a follow-up Track call is needed for the full detail.
type TrackRef struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Artists     []Artist `json:"artists"`
	TrackNumber int      `json:"track_number"`
	DurationMS  int      `json:"duration_ms"`
}

// TrackDetail is the full track object, including the popularity score.
// Popularity is a pointer because the catalog omits the field for some
// tracks; absence must be preserved, not read as zero.
type TrackDetail struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []Artist `json:"artists"`
	Album      AlbumRef `json:"album"`
	Popularity *int     `json:"popularity"`
	DurationMS int      `json:"duration_ms"`
	Explicit   bool     `json:"explicit"`
}

// PrimaryArtist returns the first listed artist's name, or "" when the
// catalog returned no artists.
func (t *TrackDetail) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0].Name
}

// tokenResponse is the OAuth2 client-credentials grant response
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// newReleasesResponse wraps the paged album listing
type newReleasesResponse struct {
	Albums struct {
		Items []Album `json:"items"`
		Total int     `json:"total"`
	} `json:"albums"`
}

// albumTracksResponse wraps the paged track listing of one album
type albumTracksResponse struct {
	Items []TrackRef `json:"items"`
	Total int        `json:"total"`
}

// searchResponse wraps track search results
type searchResponse struct {
	Tracks struct {
		Items []TrackDetail `json:"items"`
		Total int           `json:"total"`
	} `json:"tracks"`
}
