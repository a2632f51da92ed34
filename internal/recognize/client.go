// Package recognize identifies music inside downloaded audio by sampling it
// at requested offsets and submitting each sample to an acoustic fingerprint
// service, then resolving links to the identified track on other platforms.
package recognize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

// Fingerprinter submits an audio sample to a recognition capability. A nil
// match with a nil error means the service answered but found nothing.
type Fingerprinter interface {
	Identify(ctx context.Context, samplePath string) (*Match, error)
}

// Match is one positive identification returned by the fingerprint service.
type Match struct {
	Title       string
	Artist      string
	CoverArtURL string
	ServiceURL  string
	SpotifyURL  string
}

// Client talks to an audd.io-compatible fingerprint endpoint. Requests are
// rate limited; the service rejects bursts on free tokens.
type Client struct {
	endpoint    string
	apiToken    string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *log.Logger
}

// NewClient builds a fingerprint client for endpoint. An empty apiToken is
// allowed; the service then runs in its limited trial mode.
func NewClient(endpoint, apiToken string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		endpoint: endpoint,
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		rateLimiter: rate.NewLimiter(rate.Every(time.Second), 3),
		logger:      logger.With("component", "fingerprint"),
	}
}

type identifyResponse struct {
	Status string `json:"status"`
	Result *struct {
		Artist   string `json:"artist"`
		Title    string `json:"title"`
		SongLink string `json:"song_link"`
		Spotify  *struct {
			ExternalURLs struct {
				Spotify string `json:"spotify"`
			} `json:"external_urls"`
			Album struct {
				Images []struct {
					URL string `json:"url"`
				} `json:"images"`
			} `json:"album"`
		} `json:"spotify"`
	} `json:"result"`
}

// Identify uploads the sample and decodes the service's verdict.
func (c *Client) Identify(ctx context.Context, samplePath string) (*Match, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, contentType, err := c.buildRequestBody(samplePath)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fingerprint request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fingerprint service returned status %d", resp.StatusCode)
	}

	var decoded identifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode fingerprint response: %w", err)
	}

	if decoded.Status != "success" {
		return nil, fmt.Errorf("fingerprint service status %q", decoded.Status)
	}
	if decoded.Result == nil || decoded.Result.Title == "" {
		return nil, nil
	}

	match := &Match{
		Title:      decoded.Result.Title,
		Artist:     decoded.Result.Artist,
		ServiceURL: decoded.Result.SongLink,
	}
	if sp := decoded.Result.Spotify; sp != nil {
		match.SpotifyURL = sp.ExternalURLs.Spotify
		if len(sp.Album.Images) > 0 {
			match.CoverArtURL = sp.Album.Images[0].URL
		}
	}
	return match, nil
}

func (c *Client) buildRequestBody(samplePath string) (io.Reader, string, error) {
	f, err := os.Open(samplePath)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if c.apiToken != "" {
		if err := mw.WriteField("api_token", c.apiToken); err != nil {
			return nil, "", err
		}
	}
	if err := mw.WriteField("return", "spotify"); err != nil {
		return nil, "", err
	}

	fw, err := mw.CreateFormFile("file", filepath.Base(samplePath))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}

	return &buf, mw.FormDataContentType(), nil
}
