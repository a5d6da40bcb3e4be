package audio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	id3v2 "github.com/bogem/id3v2/v2"
)

const fakeMP3Payload = "FAKE-MP3-AUDIO-PAYLOAD"

func writeFakeMP3(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "0001.mp3")
	if err := os.WriteFile(path, []byte(fakeMP3Payload), 0644); err != nil {
		t.Fatalf("write fake mp3: %v", err)
	}
	return path
}

func TestWriteID3(t *testing.T) {
	path := writeFakeMP3(t)

	err := WriteID3(path, Tags{
		Title:  "1. Landfall",
		Artist: "J. Barrow",
		Album:  "Practical Navigation",
		Track:  3,
		Total:  12,
	})
	if err != nil {
		t.Fatalf("WriteID3 failed: %v", err)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("reopen tag: %v", err)
	}
	defer tag.Close()

	if tag.Title() != "1. Landfall" {
		t.Errorf("Expected title '1. Landfall', got %q", tag.Title())
	}
	if tag.Artist() != "J. Barrow" {
		t.Errorf("Expected artist 'J. Barrow', got %q", tag.Artist())
	}
	if tag.Album() != "Practical Navigation" {
		t.Errorf("Expected album 'Practical Navigation', got %q", tag.Album())
	}
	track := tag.GetTextFrame(tag.CommonID("Track number/Position in set"))
	if track.Text != "3/12" {
		t.Errorf("Expected track '3/12', got %q", track.Text)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read tagged file: %v", err)
	}
	if !strings.HasSuffix(string(data), fakeMP3Payload) {
		t.Error("Expected audio payload preserved after tagging")
	}
}

func TestWriteID3OmitsEmptyFields(t *testing.T) {
	path := writeFakeMP3(t)

	if err := WriteID3(path, Tags{Track: 4}); err != nil {
		t.Fatalf("WriteID3 failed: %v", err)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("reopen tag: %v", err)
	}
	defer tag.Close()

	if tag.Title() != "" || tag.Artist() != "" || tag.Album() != "" {
		t.Errorf("Expected empty text frames, got title=%q artist=%q album=%q", tag.Title(), tag.Artist(), tag.Album())
	}
	track := tag.GetTextFrame(tag.CommonID("Track number/Position in set"))
	if track.Text != "4" {
		t.Errorf("Expected track '4' without total, got %q", track.Text)
	}
}
