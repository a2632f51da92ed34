// Package source classifies media URLs into a platform and playlist shape.
//
// Classification is pattern based, not a full URL grammar: the platform is
// matched by host substring and playlist-ness by platform-specific URL
// markers. Ambiguous or malformed URLs are rejected.
package source

import (
	"net/url"
	"strings"

	"github.com/soundgrab/soundgrab/internal/errs"
	"github.com/soundgrab/soundgrab/internal/model"
)

// Playlist URL markers per platform
const (
	youtubeListParam    = "list="
	soundcloudSetMarker = "/sets/"
	spotifyPlaylistPath = "/playlist/"
	spotifyAlbumPath    = "/album/"
)

// Classify inspects a URL and determines which platform serves it and whether
// it points at a playlist rather than a single item.
func Classify(rawURL string) (model.MediaSource, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return model.MediaSource{}, &errs.UnrecognizedSourceError{URL: rawURL}
	}

	host := strings.ToLower(parsed.Host)

	switch {
	case strings.Contains(host, "youtube.com"), strings.Contains(host, "youtu.be"):
		return model.MediaSource{
			Platform:   model.PlatformYouTube,
			IsPlaylist: strings.Contains(parsed.RawQuery, youtubeListParam),
		}, nil

	case strings.Contains(host, "soundcloud.com"):
		return model.MediaSource{
			Platform:   model.PlatformSoundCloud,
			IsPlaylist: strings.Contains(parsed.Path, soundcloudSetMarker),
		}, nil

	case strings.Contains(host, "spotify.com"):
		return model.MediaSource{
			Platform: model.PlatformSpotify,
			IsPlaylist: strings.Contains(parsed.Path, spotifyPlaylistPath) ||
				strings.Contains(parsed.Path, spotifyAlbumPath),
		}, nil

	case strings.Contains(host, "instagram.com"):
		// Reels and posts only; Instagram has no playlist shape.
		return model.MediaSource{Platform: model.PlatformInstagram}, nil
	}

	return model.MediaSource{}, &errs.UnrecognizedSourceError{URL: rawURL}
}
