package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"
)

func TestLocalAdapter(t *testing.T) {
	tmpDir := t.TempDir()
	adapter, err := NewLocalAdapter(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create local adapter: %v", err)
	}
	defer adapter.Close()

	ctx := context.Background()
	testPath := "My Book/0001.mp3"
	testData := []byte("fake mp3 payload")

	// Test Put
	t.Run("Put", func(t *testing.T) {
		err := adapter.Put(ctx, testPath, bytes.NewReader(testData))
		if err != nil {
			t.Fatalf("Failed to put data: %v", err)
		}
	})

	// Test Exists
	t.Run("Exists", func(t *testing.T) {
		exists, err := adapter.Exists(ctx, testPath)
		if err != nil {
			t.Fatalf("Failed to check existence: %v", err)
		}
		if !exists {
			t.Error("File should exist after Put")
		}
	})

	// Test Get
	t.Run("Get", func(t *testing.T) {
		reader, err := adapter.Get(ctx, testPath)
		if err != nil {
			t.Fatalf("Failed to get data: %v", err)
		}
		defer reader.Close()

		data, err := io.ReadAll(reader)
		if err != nil {
			t.Fatalf("Failed to read data: %v", err)
		}

		if !bytes.Equal(data, testData) {
			t.Errorf("Expected %s, got %s", testData, data)
		}
	})

	// Test List
	t.Run("List", func(t *testing.T) {
		// Put another file
		adapter.Put(ctx, "My Book/0002.mp3", bytes.NewReader([]byte("second chapter")))

		paths, err := adapter.List(ctx, "My Book/")
		if err != nil {
			t.Fatalf("Failed to list files: %v", err)
		}

		if len(paths) != 2 {
			t.Errorf("Expected 2 files, got %d: %v", len(paths), paths)
		}
		for _, p := range paths {
			if p != "My Book/0001.mp3" && p != "My Book/0002.mp3" {
				t.Errorf("Unexpected path %q in listing", p)
			}
		}
	})

	// Test List prefix boundary
	t.Run("ListPrefixBoundary", func(t *testing.T) {
		adapter.Put(ctx, "My Book 2/0001.mp3", bytes.NewReader([]byte("other book")))

		paths, err := adapter.List(ctx, "My Book/")
		if err != nil {
			t.Fatalf("Failed to list files: %v", err)
		}
		for _, p := range paths {
			if p == "My Book 2/0001.mp3" {
				t.Errorf("Listing for %q should not include %q", "My Book/", p)
			}
		}
	})

	// Test Delete
	t.Run("Delete", func(t *testing.T) {
		err := adapter.Delete(ctx, testPath)
		if err != nil {
			t.Fatalf("Failed to delete data: %v", err)
		}

		exists, err := adapter.Exists(ctx, testPath)
		if err != nil {
			t.Fatalf("Failed to check existence: %v", err)
		}
		if exists {
			t.Error("File should not exist after Delete")
		}
	})

	// Test Get non-existent file
	t.Run("GetNonExistent", func(t *testing.T) {
		_, err := adapter.Get(ctx, "non-existent.mp3")
		if err == nil {
			t.Error("Expected error for non-existent file")
		}
	})
}

func TestLocalAdapterConcurrency(t *testing.T) {
	tmpDir := t.TempDir()
	adapter, err := NewLocalAdapter(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create local adapter: %v", err)
	}
	defer adapter.Close()

	ctx := context.Background()

	// Test concurrent writes
	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(idx int) {
			path := fmt.Sprintf("My Book/%04d.mp3", idx+1)
			err := adapter.Put(ctx, path, bytes.NewReader([]byte("chapter audio")))
			if err != nil {
				t.Errorf("Failed to put data: %v", err)
			}
			done <- true
		}(i)
	}

	// Wait for all goroutines
	for i := 0; i < 10; i++ {
		<-done
	}

	paths, err := adapter.List(ctx, "My Book/")
	if err != nil {
		t.Fatalf("Failed to list files: %v", err)
	}
	if len(paths) != 10 {
		t.Errorf("Expected 10 files, got %d", len(paths))
	}
}
