package playlist

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sample = `#EXTM3U
#EXTINF:-1 group-title="Rock",Song A
/music/a.mp3
#EXTINF:-1,Song B
/music/b.mp3
#EXTINF:-1 tvg-id="x" group-title="Jazz, Modal",  Kind of Blue  
/music/c.mp3
#EXTINF:-1 group-title="Rock"
/music/d.mp3
#EXTVLCOPT:network-caching=1000
#EXTINF:-1 group-title="Jazz",Song A
`

func TestParse(t *testing.T) {
	got, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := GroupCache{
		"Song A":       "Jazz",
		"Song B":       Uncategorized,
		"Kind of Blue": "Jazz, Modal",
	}
	if len(got) != len(want) {
		t.Fatalf("Parse = %v, want %v", got, want)
	}
	for name, group := range want {
		if got[name] != group {
			t.Errorf("group[%q] = %q, want %q", name, got[name], group)
		}
	}
}

func TestParse_CRLF(t *testing.T) {
	got, err := Parse(strings.NewReader("#EXTINF:-1 group-title=\"Rock\",Song A\r\n/a.mp3\r\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got["Song A"] != "Rock" {
		t.Fatalf("Parse = %v", got)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{`#EXTINF:-1 group-title="Rock",Song A`, "Song A"},
		{`#EXTINF:-1 group-title="Jazz, Modal",Blue`, "Blue"},
		{`#EXTINF:-1 tvg-name=12" Mix,Name`, "Name"},
		{`#EXTINF:-1 tvg-name=12" Mix group-title="Rock",Name`, "Name"},
		{`#EXTINF:-1 group-title="Rock"`, ""},
		{`#EXTINF:-1 tvg-name="open`, ""},
	}
	for _, tt := range tests {
		if got := displayName(tt.line); got != tt.want {
			t.Errorf("displayName(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestParse_UnbalancedQuote(t *testing.T) {
	got, err := Parse(strings.NewReader("#EXTINF:-1 tvg-name=12\" Mix,Name\n/a.mp3\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got["Name"] != Uncategorized {
		t.Fatalf("Parse = %v, want Name in %s", got, Uncategorized)
	}
}

func TestGroupCache_Group(t *testing.T) {
	g := GroupCache{"a": "Rock", "b": ""}
	if g.Group("a") != "Rock" {
		t.Errorf("Group(a) = %q", g.Group("a"))
	}
	if g.Group("b") != Uncategorized {
		t.Errorf("Group(b) = %q", g.Group("b"))
	}
	if g.Group("missing") != Uncategorized {
		t.Errorf("Group(missing) = %q", g.Group("missing"))
	}

	var nilCache GroupCache
	if nilCache.Group("x") != Uncategorized {
		t.Errorf("nil cache Group = %q", nilCache.Group("x"))
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "list.m3u")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got.Group("Kind of Blue") != "Jazz, Modal" {
		t.Fatalf("LoadFile = %v", got)
	}

	_, err = LoadFile(filepath.Join(dir, "missing.m3u"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("LoadFile(missing) err = %v, want ErrNotFound", err)
	}

	got, err = LoadFile(dir)
	if err == nil {
		t.Fatalf("LoadFile(dir) err = nil")
	}
	if len(got) != 0 {
		t.Fatalf("LoadFile(dir) = %v, want empty", got)
	}
}
