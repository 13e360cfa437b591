package server

import (
	"os"
	"path/filepath"

	"github.com/coursedl/coursedl/common"
)

func socketPath() string {
	if path := os.Getenv(common.SocketPathEnv); path != "" {
		return path
	}
	return filepath.Join(os.TempDir(), "coursedl.sock")
}
