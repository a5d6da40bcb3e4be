package audio

import (
	"fmt"
	"strconv"

	id3v2 "github.com/bogem/id3v2/v2"
)

// Tags is the metadata stamped onto a chapter MP3.
type Tags struct {
	Title  string // chapter title
	Artist string // book creator
	Album  string // book title
	Track  int
	Total  int
}

// WriteID3 writes an ID3v2 tag onto the MP3 at path. Empty fields are left
// out of the tag entirely, the track frame is written as "track/total" when
// both are known.
func WriteID3(path string, tags Tags) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open id3 tag on %s: %w", path, err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	if tags.Track > 0 {
		track := strconv.Itoa(tags.Track)
		if tags.Total > 0 {
			track += "/" + strconv.Itoa(tags.Total)
		}
		tag.AddTextFrame(tag.CommonID("Track number/Position in set"), id3v2.EncodingUTF8, track)
	}
	if tags.Title != "" {
		tag.SetTitle(tags.Title)
	}
	if tags.Artist != "" {
		tag.SetArtist(tags.Artist)
	}
	if tags.Album != "" {
		tag.SetAlbum(tags.Album)
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("save id3 tag on %s: %w", path, err)
	}
	return nil
}
