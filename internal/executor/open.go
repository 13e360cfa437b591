package executor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Open reveals a finished artifact with the platform file opener. With
// folder set, the containing directory is opened instead of the
// artifact itself. Returns the path that was handed to the opener.
func (e *Executor) Open(_ context.Context, path string, folder bool) (string, error) {
	target := path
	if folder {
		target = filepath.Dir(path)
	}
	if _, err := os.Stat(target); err != nil {
		return "", fmt.Errorf("open %s: %w", target, err)
	}
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "windows":
		cmd = exec.Command("explorer", target)
	default:
		cmd = exec.Command("xdg-open", target)
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("open %s: %w", target, err)
	}
	// The opener is detached; reap it in the background so it does
	// not linger as a zombie.
	go func() {
		if err := cmd.Wait(); err != nil {
			e.log.Warning("open %s: %v", target, err)
		}
	}()
	return target, nil
}
