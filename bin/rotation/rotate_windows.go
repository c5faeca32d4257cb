//go:build windows

package main

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// type logWrite struct {{{

type logWrite struct {
	mut sync.RWMutex
	out *os.File // nil = os.Stdout
} // }}}

// No Dup2 on Windows, so zerolog writes through here and logRotate just
// swaps the file out.
var lw logWrite

// func logWrite.Write {{{

// This is used for writing to the current hourly log file.
//
// Used by zerolog, output is changed by logRotate()
func (lw *logWrite) Write(p []byte) (n int, err error) {
	lw.mut.RLock()
	if lw.out == nil { // os.Stdout, no actual file assigned yet.
		n, err = os.Stdout.Write(p)
	} else {
		n, err = lw.out.Write(p)
	}
	lw.mut.RUnlock()

	return
} // }}}

// func app.newLog {{{

func (a *app) newLog() zerolog.Logger {
	// New zerolog that outputs to us, through our Write()
	return zerolog.New(&lw).With().Timestamp().Logger()
} // }}}

// func app.logFile {{{

func (a *app) logFile(lf *os.File) {
	// Rotate the log file.
	lw.mut.Lock()
	// Keep the old file in case we need to close it.
	old := lw.out
	lw.out = lf
	lw.mut.Unlock()

	// Now close the old one.
	// If its nil that means we were logging to os.Stdout.
	if old != nil {
		old.Close()
	}
} // }}}
