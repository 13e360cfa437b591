package courselib

import (
	"runtime/debug"

	"github.com/coursedl/coursedl/pkg/logger"
)

// safeGo runs fn in a goroutine with panic recovery. A recovered panic is
// logged with its stack trace so a misbehaving backend callback cannot
// take the scheduler down.
func safeGo(l logger.Logger, context string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil && l != nil {
				l.Error("panic [%s]: %v\n%s", context, r, debug.Stack())
			}
		}()
		fn()
	}()
}
