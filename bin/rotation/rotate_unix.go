//go:build !windows

package main

import (
	"os"
	"syscall"

	"github.com/rs/zerolog"
)

// func app.newLog {{{

func (a *app) newLog() zerolog.Logger {
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
} // }}}

// func app.logFile {{{

func (a *app) logFile(lf *os.File) {
	// Replace STDOUT and STDERR, which is what the log file actually points to.
	fd := int(lf.Fd())
	syscall.Dup2(fd, 1)
	syscall.Dup2(fd, 2)

	// And now we can close the original file we opened
	lf.Close()
} // }}}
