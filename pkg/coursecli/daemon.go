package coursecli

import (
	"fmt"
	"net"
	"os/exec"
	"time"
)

const (
	daemonStartTimeout = 3 * time.Second
	socketPollInterval = 50 * time.Millisecond
	socketDialTimeout  = 100 * time.Millisecond
)

// EnsureDaemon checks whether the daemon is reachable and spawns it in
// the background when it is not, waiting until the socket comes up.
func EnsureDaemon() error {
	if daemonRunning() {
		return nil
	}
	if err := spawnDaemon(); err != nil {
		return err
	}
	return waitForSocket(daemonStartTimeout)
}

func daemonRunning() bool {
	conn, err := net.DialTimeout("unix", socketPath(), socketDialTimeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func waitForSocket(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if daemonRunning() {
			return nil
		}
		time.Sleep(socketPollInterval)
	}
	return fmt.Errorf("daemon failed to start within %v", timeout)
}

// spawnDaemon starts coursed detached from the current process. It
// must be on PATH.
func spawnDaemon() error {
	cmd := exec.Command("coursed")
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}
	if err := cmd.Process.Release(); err != nil {
		return fmt.Errorf("failed to detach daemon: %w", err)
	}
	return nil
}
