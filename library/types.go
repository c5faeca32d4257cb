// The photo library.
//
// Scans the configured folder for photos, pulls their dimensions and date
// taken, classifies them by aspect ratio and publishes the result as
// per-category buckets. A small SQLite cache keeps restarts from
// re-reading every file.
package library

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"rotation/classify"
	"rotation/types"
	"rotation/yconf"
)

type confYAML struct {
	// The folder to scan for photos.
	Path string `yaml:"path"`

	// Metadata cache file. Empty disables the cache - every startup then
	// reads every photo again.
	Cache string `yaml:"cache"`

	// The time between folder rescans.
	// Minimum is 30 seconds for sanity, no maximum.
	//
	// Default if not set is 5 minutes.
	//
	// This is anything valid that time.ParseDuration() accepts.
	CheckInt string `yaml:"checkinterval"`
}

type conf struct {
	Path     string
	Cache    string
	CheckInt time.Duration
}

// Convert and Notify are set in New(), as they need access to the loaded *Library.
var ycCallers = yconf.Callers{
	Empty:   func() interface{} { return &confYAML{} },
	Merge:   yconfMerge,
	Changed: yconfChanged,
}

// type fileCache struct {{{

// Everything we know about one photo file.
type fileCache struct {
	Path string

	// Size and modified time from the last examine. When both still
	// match the file on disk, the rest of the entry is trusted and the
	// file is not opened at all.
	Size   int64
	FileTS time.Time

	Width  int
	Height int

	// EXIF date taken, or the file modified time when there is none.
	Taken time.Time

	Category classify.Category

	// If this is set, then the file has some type of error and no further attempt to open it should be attempted.
	//
	// The file however will remain in memory and should the timestamp change, it will be looked at again.
	fileError bool

	// What loop we last saw this file on
	loop uint32
} // }}}

// type Library struct {{{

type Library struct {
	l zerolog.Logger

	cPath string

	co atomic.Value

	yc *yconf.YConf

	// The metadata cache, nil when disabled.
	db *sql.DB

	// When updating the cache, only 1 goroutine at a time can scan.
	//
	// Every X-interval we launch another goroutine to scan, however the prior one may
	// not have finished due to any number of reasons.
	//
	// Because of this, we do not use a Mutex (which will block a goroutine), but rather we use an atomic
	// to get a "lock" by setting the value to 1.
	//
	// If a goroutine is still running, it has the atomic and any future goroutines will simply return.
	// This prevents any possibility of goroutines backing up.
	scanRun uint32

	// Which loop we are on.
	//
	// This changes every time scan() runs, and lets us know which files we have
	// seen and which we haven't - very useful for knowing what was removed.
	//
	// We do not care what this value is nor if this value wraps.
	// The only thing that we care about is that its not the same as the last time.
	loop uint32

	// The file cache, keyed by path. Touched only while holding the scan
	// atomic, so no lock of its own.
	files map[string]*fileCache

	// The published snapshot the rest of the program reads.
	bMut    sync.RWMutex
	buckets map[classify.Category][]*types.Photo
	total   int

	// Pokes loopy into an immediate rescan, used on config changes.
	scanCh chan struct{}

	// Closed when Close() runs, shuts down loopy.
	bye chan struct{}

	// Do not access directly, use atomics.
	closed uint32

	ctx context.Context
} // }}}
