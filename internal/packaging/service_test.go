package packaging

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/quillcast/quillcast/internal/storage"
	"github.com/quillcast/quillcast/pkg/types"
)

func testOutcome() *types.ConversionOutcome {
	return &types.ConversionOutcome{
		RunID:   "run-42",
		Input:   "books/practical-navigation.epub",
		BookDir: "Practical Navigation",
		Title:   "Practical Navigation",
		Creator: "J. Barrow",
		Engine:  "stub",
		Voice:   types.VoiceConfig{Model: "test-voice", Language: "en"},
		Status:  types.StatusCompleted,
		Chapters: []types.ChapterResult{
			{Index: 1, Title: "Landfall", Segments: 5, Synthesized: 5, File: "0001.mp3"},
			{Index: 2, Title: "Becalmed", Segments: 0},
			{Index: 3, Title: "The Bay", Segments: 4, Synthesized: 3, Skipped: 1, File: "0003.mp3"},
		},
		Skipped: []types.SkipRecord{
			{Chapter: 3, Ordinal: 2, Text: "unpronounceable text", Cause: "boom"},
		},
		StartedAt:  time.Now().Add(-time.Minute),
		FinishedAt: time.Now(),
	}
}

func seedChapterAudio(t *testing.T, store storage.Adapter) {
	t.Helper()
	ctx := context.Background()
	audio := map[string]string{
		"Practical Navigation/0001.mp3": "first chapter audio",
		"Practical Navigation/0003.mp3": "third chapter audio",
	}
	for path, content := range audio {
		if err := store.Put(ctx, path, bytes.NewReader([]byte(content))); err != nil {
			t.Fatalf("Failed to seed %s: %v", path, err)
		}
	}
}

func readZip(t *testing.T, r io.Reader) map[string][]byte {
	t.Helper()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("Failed to read bundle: %v", err)
	}
	zipReader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Failed to open bundle as zip: %v", err)
	}

	entries := make(map[string][]byte)
	for _, f := range zipReader.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("Failed to open zip entry %s: %v", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("Failed to read zip entry %s: %v", f.Name, err)
		}
		entries[f.Name] = content
	}
	return entries
}

func TestServiceBundle(t *testing.T) {
	store, err := storage.NewLocalAdapter(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create storage adapter: %v", err)
	}
	defer store.Close()
	seedChapterAudio(t, store)

	svc := NewService(store)
	bundle, err := svc.Bundle(context.Background(), testOutcome())
	if err != nil {
		t.Fatalf("Bundle failed: %v", err)
	}

	entries := readZip(t, bundle)
	if len(entries) != 3 {
		t.Errorf("Expected 3 zip entries, got %d", len(entries))
	}

	manifestData, ok := entries["manifest.json"]
	if !ok {
		t.Fatal("Bundle missing manifest.json")
	}
	var manifest Manifest
	if err := json.Unmarshal(manifestData, &manifest); err != nil {
		t.Fatalf("Failed to unmarshal manifest: %v", err)
	}
	if manifest.RunID != "run-42" {
		t.Errorf("Expected run ID run-42, got %s", manifest.RunID)
	}
	if manifest.Title != "Practical Navigation" {
		t.Errorf("Expected title Practical Navigation, got %s", manifest.Title)
	}
	if manifest.Creator != "J. Barrow" {
		t.Errorf("Expected creator J. Barrow, got %s", manifest.Creator)
	}
	if manifest.Status != types.StatusCompleted {
		t.Errorf("Expected status %s, got %s", types.StatusCompleted, manifest.Status)
	}
	if manifest.Version != "1.0" {
		t.Errorf("Expected version 1.0, got %s", manifest.Version)
	}
	if len(manifest.Chapters) != 3 {
		t.Fatalf("Expected 3 manifest chapters, got %d", len(manifest.Chapters))
	}
	if manifest.Chapters[1].File != "" {
		t.Errorf("Expected empty file for silent chapter, got %s", manifest.Chapters[1].File)
	}
	if manifest.Chapters[2].Skipped != 1 {
		t.Errorf("Expected 1 skipped in chapter 3, got %d", manifest.Chapters[2].Skipped)
	}
	if len(manifest.Skipped) != 1 || manifest.Skipped[0].Cause != "boom" {
		t.Errorf("Expected one skip record with cause boom, got %+v", manifest.Skipped)
	}

	if !bytes.Equal(entries["0001.mp3"], []byte("first chapter audio")) {
		t.Errorf("Expected first chapter audio, got %q", entries["0001.mp3"])
	}
	if !bytes.Equal(entries["0003.mp3"], []byte("third chapter audio")) {
		t.Errorf("Expected third chapter audio, got %q", entries["0003.mp3"])
	}
}

func TestServiceBundleMissingAudio(t *testing.T) {
	store, err := storage.NewLocalAdapter(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create storage adapter: %v", err)
	}
	defer store.Close()

	svc := NewService(store)
	if _, err := svc.Bundle(context.Background(), testOutcome()); err == nil {
		t.Fatal("Expected error when chapter audio is missing from storage")
	}
}

func TestServiceWriteBundle(t *testing.T) {
	store, err := storage.NewLocalAdapter(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create storage adapter: %v", err)
	}
	defer store.Close()
	seedChapterAudio(t, store)

	svc := NewService(store)
	ctx := context.Background()

	bundlePath, err := svc.WriteBundle(ctx, testOutcome())
	if err != nil {
		t.Fatalf("WriteBundle failed: %v", err)
	}
	if bundlePath != "Practical Navigation.zip" {
		t.Errorf("Expected bundle path Practical Navigation.zip, got %s", bundlePath)
	}

	reader, err := store.Get(ctx, bundlePath)
	if err != nil {
		t.Fatalf("Failed to get stored bundle: %v", err)
	}
	defer reader.Close()

	entries := readZip(t, reader)
	if _, ok := entries["manifest.json"]; !ok {
		t.Error("Stored bundle missing manifest.json")
	}
}

func TestManifestEmptySkipListMarshalsAsArray(t *testing.T) {
	outcome := testOutcome()
	outcome.Skipped = nil

	svc := NewService(nil)
	manifest := svc.generateManifest(outcome)

	data, err := json.Marshal(manifest)
	if err != nil {
		t.Fatalf("Failed to marshal manifest: %v", err)
	}
	if bytes.Contains(data, []byte(`"skipped":null`)) {
		t.Error("Expected empty skip list to marshal as [], got null")
	}
}
