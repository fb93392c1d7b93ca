//go:build unix

package mpv

import (
	"os/exec"
	"syscall"
)

// startDetached starts name in its own session so it outlives tracklist. Output is
// discarded. The child is reaped in the background.
func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
