package acquire

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// Track metadata scraped from a streaming service's public page. Artist may be
// empty when only the title could be recovered.
type scrapedTrack struct {
	Title  string
	Artist string
}

// SearchQuery renders the track as a search string for a video platform.
func (t scrapedTrack) SearchQuery() string {
	if t.Artist == "" {
		return t.Title
	}
	return t.Artist + " - " + t.Title
}

const scrapeUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var (
	ogDescriptionRe = regexp.MustCompile(`(?i)<meta\s+property="og:description"\s+content="([^"]+)"`)
	descTrackRe     = regexp.MustCompile(`^([^,]+),\s+[^,]*\s+by\s+([^,]+)`)
	ogTitleRe       = regexp.MustCompile(`(?i)<meta\s+property="og:title"\s+content="([^"]+)"`)
	artistsJSONRe   = regexp.MustCompile(`(?i)"artists"\s*:\s*\[\s*\{[^}]*"name"\s*:\s*"([^"]+)"`)
	entityBlobRe    = regexp.MustCompile(`(?s)Spotify\.Entity\s*=\s*(\{.*?\});`)

	// Title separators seen in og:title values, tried in order.
	titleSeparators = []string{" - ", " – ", " — ", " ― "}
)

// scrapeTrackPage recovers title and artist from a track's public HTML page.
// Extraction is layered: the og:description meta tag first, then og:title
// split on a separator, then the embedded entity JSON blob.
func scrapeTrackPage(ctx context.Context, client *http.Client, url string) (scrapedTrack, error) {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return scrapedTrack{}, err
	}
	req.Header.Set("User-Agent", scrapeUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return scrapedTrack{}, fmt.Errorf("fetch track page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return scrapedTrack{}, fmt.Errorf("track page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return scrapedTrack{}, fmt.Errorf("read track page: %w", err)
	}

	track := extractTrack(string(body))
	if track.Title == "" {
		return scrapedTrack{}, fmt.Errorf("could not find a track title on %s", url)
	}
	return track, nil
}

func extractTrack(html string) scrapedTrack {
	var track scrapedTrack

	if m := ogDescriptionRe.FindStringSubmatch(html); m != nil {
		if dm := descTrackRe.FindStringSubmatch(m[1]); dm != nil {
			track.Title = strings.TrimSpace(dm[1])
			track.Artist = strings.TrimSpace(dm[2])
		}
	}

	if track.Title == "" {
		if m := ogTitleRe.FindStringSubmatch(html); m != nil {
			raw := strings.TrimSpace(m[1])
			for _, sep := range titleSeparators {
				if !strings.Contains(raw, sep) {
					continue
				}
				parts := splitNonEmpty(raw, sep)
				if len(parts) >= 2 {
					track.Artist = parts[0]
					track.Title = parts[len(parts)-1]
				}
				break
			}
			if track.Title == "" {
				track.Title = raw
			}
		}
	}

	if track.Artist == "" {
		if m := artistsJSONRe.FindStringSubmatch(html); m != nil {
			track.Artist = strings.TrimSpace(m[1])
		}
	}

	if track.Title == "" || track.Artist == "" {
		if m := entityBlobRe.FindStringSubmatch(html); m != nil {
			var entity struct {
				Name    string `json:"name"`
				Artists []struct {
					Name string `json:"name"`
				} `json:"artists"`
			}
			if err := json.Unmarshal([]byte(m[1]), &entity); err == nil {
				if track.Title == "" {
					track.Title = entity.Name
				}
				if track.Artist == "" && len(entity.Artists) > 0 {
					track.Artist = entity.Artists[0].Name
				}
			}
		}
	}

	return track
}

func splitNonEmpty(s, sep string) []string {
	var parts []string
	for _, p := range strings.Split(s, sep) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
