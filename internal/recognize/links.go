package recognize

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/soundgrab/soundgrab/internal/model"
)

const (
	spotifyTokenURL  = "https://accounts.spotify.com/api/token"
	spotifySearchURL = "https://api.spotify.com/v1/search"
)

// LinkResolver maps an identified track to playable or searchable URLs on
// each supported platform. The streaming service gets a verified link through
// its authenticated API when credentials are configured; every other platform
// (and the unauthenticated case) gets a constructed search URL.
type LinkResolver struct {
	credentials *clientcredentials.Config
	httpClient  *http.Client
	logger      *log.Logger
}

// NewLinkResolver builds a resolver. Empty credentials disable the verified
// lookup and leave only search links.
func NewLinkResolver(clientID, clientSecret string, logger *log.Logger) *LinkResolver {
	if logger == nil {
		logger = log.Default()
	}
	r := &LinkResolver{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger.With("component", "links"),
	}
	if clientID != "" && clientSecret != "" {
		r.credentials = &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     spotifyTokenURL,
		}
	}
	return r
}

// Resolve returns one URL per platform for the given track.
func (r *LinkResolver) Resolve(ctx context.Context, title, artist string) map[model.Platform]string {
	query := title
	if artist != "" {
		query = artist + " " + title
	}

	links := map[model.Platform]string{
		model.PlatformYouTube:    "https://www.youtube.com/results?search_query=" + url.QueryEscape(query),
		model.PlatformSoundCloud: "https://soundcloud.com/search?q=" + url.QueryEscape(query),
		model.PlatformSpotify:    "https://open.spotify.com/search/" + url.PathEscape(query),
	}

	if verified, err := r.lookupSpotifyTrack(ctx, query); err != nil {
		r.logger.Debug("verified track lookup unavailable", "err", err)
	} else if verified != "" {
		links[model.PlatformSpotify] = verified
	}

	return links
}

// lookupSpotifyTrack asks the streaming service's search API for the best
// matching track and returns its public URL.
func (r *LinkResolver) lookupSpotifyTrack(ctx context.Context, query string) (string, error) {
	if r.credentials == nil {
		return "", fmt.Errorf("no API credentials configured")
	}

	client := r.credentials.Client(ctx)
	reqURL := spotifySearchURL + "?type=track&limit=1&q=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var decoded struct {
		Tracks struct {
			Items []struct {
				ExternalURLs struct {
					Spotify string `json:"spotify"`
				} `json:"external_urls"`
			} `json:"items"`
		} `json:"tracks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	if len(decoded.Tracks.Items) == 0 {
		return "", nil
	}
	return decoded.Tracks.Items[0].ExternalURLs.Spotify, nil
}

// LaunchLocal opens a playable URL with the operating system's default
// handler. Failures are logged and swallowed.
func (r *LinkResolver) LaunchLocal(rawURL string) {
	if rawURL == "" {
		return
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", rawURL)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", rawURL)
	default:
		cmd = exec.Command("xdg-open", rawURL)
	}

	if err := cmd.Start(); err != nil {
		r.logger.Debug("could not launch local handler", "url", rawURL, "err", err)
	}
}
