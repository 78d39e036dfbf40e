package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"testing"
)

func TestWriterSerializesConcurrentEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.zip")
	w, err := NewWriter(Target{Path: path, Mode: ModeOverwrite})
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	const entries = 20
	var wg sync.WaitGroup
	for i := 0; i < entries; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("file-%02d.txt", i)
			if err := w.AddEntry(name, []byte(name+" body")); err != nil {
				t.Errorf("add %s: %v", name, err)
			}
		}(i)
	}
	wg.Wait()

	got, err := w.Finalize()
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if got != path {
		t.Fatalf("finalize path = %q, want %q", got, path)
	}

	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open container: %v", err)
	}
	defer r.Close()
	if len(r.File) != entries {
		t.Fatalf("container has %d entries, want %d", len(r.File), entries)
	}
	for _, f := range r.File {
		if f.Method != zip.Store {
			t.Fatalf("entry %s stored with method %d", f.Name, f.Method)
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry: %v", err)
		}
		body, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			t.Fatalf("read entry: %v", err)
		}
		if !bytes.Equal(body, []byte(f.Name+" body")) {
			t.Fatalf("entry %s content mismatch", f.Name)
		}
	}
}

func TestWriterRejectsEntriesAfterFinalize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.zip")
	w, err := NewWriter(Target{Path: path, Mode: ModeOverwrite})
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if _, err := w.Finalize(); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	err = w.AddEntry("late.txt", []byte("too late"))
	var werr *WriteError
	if !errors.As(err, &werr) {
		t.Fatalf("expected WriteError, got %v", err)
	}
}

func TestWriterStopsAfterContainerFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.zip")
	w, err := NewWriter(Target{Path: path, Mode: ModeOverwrite})
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	// Pull the file out from under the zip writer to force a write failure.
	// The payload must exceed the zip writer's internal buffering so the
	// failed flush surfaces on this entry.
	if err := w.file.Close(); err != nil {
		t.Fatalf("close underlying file: %v", err)
	}

	err = w.AddEntry("a.txt", bytes.Repeat([]byte("x"), 1<<16))
	var werr *WriteError
	if !errors.As(err, &werr) {
		t.Fatalf("expected WriteError, got %v", err)
	}
	if err := w.AddEntry("b.txt", []byte("payload")); err == nil {
		t.Fatalf("writer accepted entry after container failure")
	}
	if _, err := w.Finalize(); err == nil {
		t.Fatalf("finalize must report the container failure")
	}
}

func TestWriterCreatesArchiveDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.zip")
	w, err := NewWriter(Target{Path: path, Mode: ModeOverwrite})
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := w.AddEntry("a.txt", []byte("x")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := w.Finalize(); err != nil {
		t.Fatalf("finalize: %v", err)
	}
}
