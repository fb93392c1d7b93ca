package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Level is the severity charmbracelet/log prints on each line.
type Level int

const (
	LevelUnknown Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

var levelTokens = map[string]Level{
	"DEBU": LevelDebug,
	"INFO": LevelInfo,
	"WARN": LevelWarn,
	"ERRO": LevelError,
	"FATA": LevelError,
}

// Entry is one log line with its parsed level.
type Entry struct {
	Level Level
	Text  string
}

// Read returns at most maxLines from the end of the file at path. A missing
// file yields no lines and no error.
func Read(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	tail := make([]string, 0, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if len(tail) == maxLines {
			copy(tail, tail[1:])
			tail = tail[:maxLines-1]
		}
		tail = append(tail, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	return tail, nil
}

// Parse classifies lines by the first level token they contain. Lines without
// one inherit the level of the line before, so continuation lines stay with
// their record.
func Parse(lines []string) []Entry {
	entries := make([]Entry, 0, len(lines))
	prev := LevelUnknown
	for _, line := range lines {
		lvl := lineLevel(line)
		if lvl == LevelUnknown {
			lvl = prev
		}
		prev = lvl
		entries = append(entries, Entry{Level: lvl, Text: line})
	}
	return entries
}

// AtLeast keeps entries at or above min. Unknown levels are always kept.
func AtLeast(entries []Entry, min Level) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Level == LevelUnknown || e.Level >= min {
			out = append(out, e)
		}
	}
	return out
}

func lineLevel(line string) Level {
	for _, field := range strings.Fields(line) {
		if lvl, ok := levelTokens[field]; ok {
			return lvl
		}
	}
	return LevelUnknown
}
