package playlist

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatch_ReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "list.m3u")
	other := filepath.Join(dir, "other.m3u")
	if err := os.WriteFile(path, []byte("#EXTM3U\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	changed := make(chan string, 4)
	w, err := Watch(path, 20*time.Millisecond, func(p string) { changed <- p }, nil)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer func() { _ = w.Close() }()

	if err := os.WriteFile(other, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile(other): %v", err)
	}
	for range 3 {
		if err := os.WriteFile(path, []byte("#EXTM3U\n#EXTINF:-1,A\n"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	select {
	case got := <-changed:
		if got != w.Path() {
			t.Fatalf("onChange path = %q, want %q", got, w.Path())
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no change reported")
	}

	select {
	case got := <-changed:
		t.Fatalf("burst produced a second change for %q", got)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatch_CloseIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	w, err := Watch(filepath.Join(dir, "list.m3u"), 0, func(string) {}, nil)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	if _, err := Watch(filepath.Join(t.TempDir(), "nope", "list.m3u"), 0, func(string) {}, nil); err == nil {
		t.Fatalf("Watch on a missing directory should fail")
	}
}
