//go:build !windows

package dev

import (
	stderrors "errors"
	"syscall"
)

// isFatalFsnotifyError reports inotify resource exhaustion, after which the
// watcher cannot recover.
func isFatalFsnotifyError(err error) bool {
	return stderrors.Is(err, syscall.ENOSPC) ||
		stderrors.Is(err, syscall.EMFILE) ||
		stderrors.Is(err, syscall.ENFILE)
}
