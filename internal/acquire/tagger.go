package acquire

import (
	"github.com/bogem/id3v2"
)

// ApplyTags writes the title and, when known, the artist into the MP3's ID3
// frames. Tagging is cosmetic; callers treat a failure as non-fatal.
func ApplyTags(path, title, artist string) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return err
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	if title != "" {
		tag.SetTitle(title)
	}
	if artist != "" {
		tag.SetArtist(artist)
	}

	return tag.Save()
}
