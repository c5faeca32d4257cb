// Frame rendering.
//
// Takes a finished frame - layout, photos and fit plans - and turns it
// into the actual output image on disk. The file writes atomically, so
// whatever displays it never sees a half-written image.
package render

import (
	"context"
	"image/color"
	"sync/atomic"

	"github.com/rs/zerolog"

	"rotation/yconf"
)

type confYAML struct {
	// The full path and name of the file to output when rendering a frame.
	// The file will be written to OutputFile.tmp and then renamed so
	// no one gets a partially written file.
	OutputFile string `yaml:"outputfile"`

	// Background color as "#RRGGBB", black if not set.
	//
	// Visible in the letterbox bars and anywhere a pane could not fill.
	Fill string `yaml:"fill"`
}

type conf struct {
	OutputFile string
	Fill       color.RGBA
}

// Convert and Notify are set in New(), as they need access to the loaded *Render.
var ycCallers = yconf.Callers{
	Empty:   func() interface{} { return &confYAML{} },
	Merge:   yconfMerge,
	Changed: yconfChanged,
}

// type Render struct {{{

type Render struct {
	l zerolog.Logger

	cPath string

	co atomic.Value

	yc *yconf.YConf

	// Lets us know if Display() is already running or not.
	//
	// We do not use a mutex for this, because that would lock a goroutine and make them
	// wait. We do not want to wait, any additional Display() calls should just return.
	running uint32

	// Do not access directly, use atomics.
	closed uint32

	ctx context.Context
} // }}}
