package yconf

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type loaded struct {
	// Timestamp of the newest configuration file seen on the last load.
	newest time.Time

	// Previously loaded conf
	conf interface{}
}

// YAML decodes into strings and other basic types, but the program usually
// wants something richer - durations, resolutions, category names.
//
// Convert takes the freshly decoded value and returns the internal type,
// and doubles as validation: return an error and the file is rejected,
// the previously loaded configuration stays in effect.
//
// Convert runs before any Merge.
type Convert func(interface{}) (interface{}, error)

// Merge combines configuration from multiple files.
//
// Only called when more then one file loads. The 1st value is the
// previously merged result, the 2nd the current file, so merge into the
// first.
type Merge func(interface{}, interface{}) (interface{}, error)

// Changed compares the old and new loaded values and reports if anything
// actually differs.
//
// Called after all Convert and Merge calls, over the final values. With
// this set, touched timestamps and whitespace edits do not produce
// notifications.
type Changed func(interface{}, interface{}) bool

// Notify runs (in its own goroutine) whenever the loaded configuration
// changes.
type Notify func()

// Empty is the only required function, the rest are optional.
type Callers struct {
	// Returns an empty value for the YAML to decode directly into.
	//
	// Use Convert to change it into a better internal type.
	Empty   func() interface{}
	Convert Convert
	Merge   Merge
	Changed Changed
	Notify  Notify
}

type YConf struct {
	l zerolog.Logger

	// The base configuration path, a file or a directory.
	confPath string

	// Closed at Stop() to shut the background goroutine down.
	bye chan struct{}

	ca Callers

	loMut sync.RWMutex
	lo    *loaded
}
