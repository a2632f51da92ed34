package recognize

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/soundgrab/soundgrab/internal/model"
)

func TestResolveSearchLinksWithoutCredentials(t *testing.T) {
	r := NewLinkResolver("", "", log.New(io.Discard))

	links := r.Resolve(context.Background(), "One More Time", "Daft Punk")

	if len(links) != 3 {
		t.Fatalf("got %d links, want 3: %v", len(links), links)
	}
	if !strings.Contains(links[model.PlatformYouTube], "search_query=Daft+Punk+One+More+Time") {
		t.Errorf("youtube link = %q", links[model.PlatformYouTube])
	}
	if !strings.HasPrefix(links[model.PlatformSoundCloud], "https://soundcloud.com/search?q=") {
		t.Errorf("soundcloud link = %q", links[model.PlatformSoundCloud])
	}
	if !strings.HasPrefix(links[model.PlatformSpotify], "https://open.spotify.com/search/") {
		t.Errorf("spotify link = %q", links[model.PlatformSpotify])
	}
}

func TestResolveTitleOnlyQuery(t *testing.T) {
	r := NewLinkResolver("", "", log.New(io.Discard))

	links := r.Resolve(context.Background(), "Standalone", "")
	if !strings.Contains(links[model.PlatformYouTube], "search_query=Standalone") {
		t.Errorf("youtube link = %q", links[model.PlatformYouTube])
	}
}
