package model

// Platform identifies a supported media source platform
type Platform string

const (
	PlatformYouTube    Platform = "youtube"
	PlatformSoundCloud Platform = "soundcloud"
	PlatformSpotify    Platform = "spotify"
	PlatformInstagram  Platform = "instagram"
)

// String returns the string representation of Platform
func (p Platform) String() string {
	return string(p)
}

// MediaSource is the result of classifying a URL. It is derived purely from
// the URL structure and never persisted.
type MediaSource struct {
	Platform   Platform
	IsPlaylist bool
}

// AcquisitionResult describes a single downloaded audio file. The caller owns
// deletion of FilePath once the result is handed over.
type AcquisitionResult struct {
	FilePath    string
	DisplayName string
}

// PlaylistArchive describes the compressed archive produced from a playlist.
// The staging directory it was built from is already deleted.
type PlaylistArchive struct {
	Path        string
	DisplayName string
	MemberCount int
}
