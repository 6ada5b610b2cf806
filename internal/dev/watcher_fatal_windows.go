//go:build windows

package dev

import (
	stderrors "errors"

	"golang.org/x/sys/windows"
)

// isFatalFsnotifyError reports handle or memory exhaustion and invalidated
// directory handles, after which the watcher cannot recover.
func isFatalFsnotifyError(err error) bool {
	return stderrors.Is(err, windows.ERROR_TOO_MANY_OPEN_FILES) ||
		stderrors.Is(err, windows.ERROR_INVALID_HANDLE) ||
		stderrors.Is(err, windows.ERROR_NOT_ENOUGH_MEMORY)
}
