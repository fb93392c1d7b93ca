package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v3"
)

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	body := fmt.Sprintf("state_dir = %q\nlog_file = %q\ndiscover_patterns = [%q]\n",
		filepath.Join(dir, "state"),
		filepath.Join(dir, "tracklist.log"),
		filepath.Join(dir, "nothing-*.sock"),
	)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand()
	root.Writer = &out
	err := root.Run(context.Background(), append([]string{"tracklist"}, args...))
	return out.String(), err
}

func TestFavoritesToggleAndList(t *testing.T) {
	cfg := writeConfig(t, t.TempDir())

	out, err := runCLI(t, "--config", cfg, "favorites", "toggle", "Blue", "Train")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !strings.Contains(out, "★ Blue Train") {
		t.Fatalf("toggle output = %q", out)
	}

	out, err = runCLI(t, "--config", cfg, "favorites")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "Blue Train") || !strings.Contains(out, "1 total") {
		t.Fatalf("list output = %q", out)
	}

	out, err = runCLI(t, "--config", cfg, "favorites", "toggle", "Blue Train")
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if !strings.Contains(out, "removed Blue Train") {
		t.Fatalf("second toggle output = %q", out)
	}
}

func TestFavoritesToggleRequiresName(t *testing.T) {
	cfg := writeConfig(t, t.TempDir())
	if _, err := runCLI(t, "--config", cfg, "favorites", "toggle"); err == nil {
		t.Fatalf("expected error for missing name")
	}
}

func TestDiscoverWithoutSockets(t *testing.T) {
	cfg := writeConfig(t, t.TempDir())
	out, err := runCLI(t, "--config", cfg, "discover")
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if !strings.Contains(strings.ToUpper(out), "SOCKET") {
		t.Fatalf("discover output missing header: %q", out)
	}
}

func TestReconcileWithoutEngineFails(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	socket := filepath.Join(dir, "absent.sock")
	_, err := runCLI(t, "--config", cfg, "--socket", socket, "--mpv", filepath.Join(dir, "no-such-mpv"), "reconcile")
	if err == nil {
		t.Fatalf("expected reconcile to fail without an engine")
	}
}

func TestRunRequiresTerminal(t *testing.T) {
	prev := isTerminal
	isTerminal = func() bool { return false }
	t.Cleanup(func() { isTerminal = prev })

	cfg := writeConfig(t, t.TempDir())
	_, err := runCLI(t, "--config", cfg)
	if !errors.Is(err, errNotTerminal) {
		t.Fatalf("err = %v, want errNotTerminal", err)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg := writeConfig(t, t.TempDir())
	root := newRootCommand()
	root.Writer = &bytes.Buffer{}
	root.Commands = nil
	root.Action = func(_ context.Context, cmd *cli.Command) error {
		got, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if got.SocketPath != "/tmp/other.sock" || got.LogLevel != "debug" || got.PollInterval != 5*time.Second || !got.Notify {
			t.Errorf("overrides not applied: %+v", got)
		}
		return nil
	}
	args := []string{"tracklist", "--config", cfg, "--socket", "/tmp/other.sock", "--log-level", "DEBUG", "--poll", "5s", "--notify"}
	if err := root.Run(context.Background(), args); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
