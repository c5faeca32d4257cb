package library

import (
	"context"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/karrick/godirwalk"
	"github.com/rs/zerolog"
	"github.com/rwcarlsen/goexif/exif"

	"rotation/classify"
	fimg "rotation/image"
	"rotation/types"
	"rotation/yconf"
)

// func New {{{

// Creates a new Library, scans once and starts the background rescans.
//
// The first scan runs before New returns, so a successful New means
// Buckets() has real content.
func New(confPath string, l *zerolog.Logger, ctx context.Context) (*Library, error) {
	var err error

	li := &Library{
		l:       l.With().Str("mod", "library").Logger(),
		cPath:   confPath,
		files:   make(map[string]*fileCache, 1024),
		buckets: make(map[classify.Category][]*types.Photo, 8),
		scanCh:  make(chan struct{}, 1),
		bye:     make(chan struct{}, 0),
		ctx:     ctx,
	}

	fl := li.l.With().Str("func", "New").Logger()

	// Load our configuration.
	if err = li.loadConf(); err != nil {
		return nil, err
	}

	co := li.getConf()

	// Open the metadata cache if one is configured.
	if co.Cache != "" {
		li.db, err = openCache(co.Cache)
		if err != nil {
			// Not fatal - everything still works, just slower startups.
			fl.Err(err).Str("cache", co.Cache).Msg("cache disabled")
			li.db = nil
		} else {
			li.loadCache()
		}
	}

	li.scan()

	go li.loopy()

	fl.Debug().Int("photos", li.Len()).Msg("Created")

	return li, nil
} // }}}

// func Library.loadConf {{{

func (li *Library) loadConf() error {
	var err error

	fl := li.l.With().Str("func", "loadConf").Logger()

	// Copy the default callers and add what New() could not.
	ycc := ycCallers

	ycc.Notify = func() {
		li.notifyConf()
	}

	ycc.Convert = func(in interface{}) (interface{}, error) {
		return li.yconfConvert(in)
	}

	if li.yc, err = yconf.New(li.cPath, ycc, &li.l); err != nil {
		fl.Err(err).Msg("yconf.New")
		return err
	}

	if err = li.yc.Start(); err != nil {
		fl.Err(err).Msg("yconf.Start")
		return err
	}

	if err = li.checkConf(); err != nil {
		return err
	}

	return nil
} // }}}

// func Library.Close {{{

// Close stops the background rescans and closes the cache.
//
// Safe to call more then once.
func (li *Library) Close() {
	fl := li.l.With().Str("func", "Close").Logger()

	// Only the first Close() does anything.
	if !atomic.CompareAndSwapUint32(&li.closed, 0, 1) {
		return
	}

	li.yc.Stop()
	close(li.bye)

	if li.db != nil {
		li.db.Close()
	}

	fl.Debug().Msg("Closed")
} // }}}

// func Library.Buckets {{{

// The photos grouped by aspect ratio category.
//
// The returned map is the published snapshot - treat it as read-only, a
// later scan replaces it rather then mutating it.
func (li *Library) Buckets() map[classify.Category][]*types.Photo {
	li.bMut.RLock()
	defer li.bMut.RUnlock()

	return li.buckets
} // }}}

// func Library.Len {{{

func (li *Library) Len() int {
	li.bMut.RLock()
	defer li.bMut.RUnlock()

	return li.total
} // }}}

// func isImage {{{

func isImage(name string) bool {
	dot := strings.LastIndexByte(name, '.')
	if dot < 1 {
		return false
	}

	switch strings.ToLower(name[dot+1:]) {
	case "jpg", "jpeg", "png", "gif", "webp":
		return true
	}

	return false
} // }}}

// func takenTime {{{

// The photo's EXIF date taken, or the zero time.
func takenTime(path string) time.Time {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}
	}

	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		// No EXIF at all is normal for PNG and screenshots.
		return time.Time{}
	}

	// DateTime() prefers DateTimeOriginal and falls back from there.
	t, err := x.DateTime()
	if err != nil {
		return time.Time{}
	}

	return t
} // }}}

// func Library.examine {{{

// Reads a photo's dimensions and date taken, and classifies it.
//
// Only called for new files or files whose size or timestamp changed.
func (li *Library) examine(fc *fileCache) {
	fl := li.l.With().Str("func", "examine").Str("path", fc.Path).Logger()

	cfg, err := fimg.Config(fc.Path)
	if err != nil {
		// Remember the failure so we do not hammer a bad file every scan.
		fl.Err(err).Msg("decode")
		fc.fileError = true
		return
	}

	fc.Width = cfg.Width
	fc.Height = cfg.Height
	fc.Category = classify.Classify(cfg.Width, cfg.Height)
	fc.fileError = false

	fc.Taken = takenTime(fc.Path)
	if fc.Taken.IsZero() {
		// No EXIF date, the file time is the best we have.
		fc.Taken = fc.FileTS
	}

	li.saveFile(fc)

	fl.Debug().Int("width", fc.Width).Int("height", fc.Height).Str("category", string(fc.Category)).Send()
} // }}}

// func Library.scan {{{

// One full pass over the photo folder.
//
// Unchanged files (same size and timestamp) keep their cached metadata,
// anything new or changed gets examined, and anything not seen this loop
// is dropped. At the end the new buckets publish atomically.
func (li *Library) scan() {
	fl := li.l.With().Str("func", "scan").Logger()

	// Someone else scanning already?
	if !atomic.CompareAndSwapUint32(&li.scanRun, 0, 1) {
		fl.Debug().Msg("scan already running")
		return
	}

	defer atomic.StoreUint32(&li.scanRun, 0)

	co := li.getConf()

	li.loop++
	loop := li.loop

	start := time.Now()

	err := godirwalk.Walk(co.Path, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			name := de.Name()

			// Skip hidden files and directories entirely.
			if len(name) > 0 && name[0] == '.' {
				if de.IsDir() {
					return godirwalk.SkipThis
				}
				return nil
			}

			if de.IsDir() || !isImage(name) {
				return nil
			}

			st, err := os.Stat(path)
			if err != nil {
				fl.Err(err).Str("path", path).Msg("stat")
				return nil
			}

			fc, ok := li.files[path]
			if !ok {
				fc = &fileCache{Path: path}
				li.files[path] = fc
			}

			changed := fc.Size != st.Size() || !fc.FileTS.Equal(st.ModTime())

			fc.loop = loop

			if changed {
				fc.Size = st.Size()
				fc.FileTS = st.ModTime()
				li.examine(fc)
			}

			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			fl.Err(err).Str("path", path).Msg("walk")
			return godirwalk.SkipNode
		},
	})

	if err != nil {
		fl.Err(err).Str("path", co.Path).Msg("walk failed, keeping previous snapshot")
		return
	}

	// Sweep anything we did not see this loop - those files are gone.
	for path, fc := range li.files {
		if fc.loop != loop {
			delete(li.files, path)
			li.removeFile(path)
		}
	}

	li.publish()

	fl.Debug().Int("photos", li.Len()).Dur("took", time.Since(start)).Send()
} // }}}

// func Library.publish {{{

// Rebuilds the category buckets from the file cache and swaps them in.
func (li *Library) publish() {
	buckets := make(map[classify.Category][]*types.Photo, 8)
	total := 0

	for _, fc := range li.files {
		if fc.fileError || fc.Category == classify.CatUnknown {
			continue
		}

		buckets[fc.Category] = append(buckets[fc.Category], &types.Photo{
			Path:     fc.Path,
			Width:    fc.Width,
			Height:   fc.Height,
			Taken:    fc.Taken,
			Category: fc.Category,
		})

		total++
	}

	li.bMut.Lock()
	li.buckets = buckets
	li.total = total
	li.bMut.Unlock()
} // }}}

// func Library.loopy {{{

// Handles the periodic rescans.
func (li *Library) loopy() {
	fl := li.l.With().Str("func", "loopy").Logger()

	co := li.getConf()

	tick := time.NewTicker(co.CheckInt)
	defer tick.Stop()

	for {
		select {
		case <-tick.C:
			fl.Debug().Msg("tick")
			li.scan()

			// The interval can change on reload, retime the ticker. Cheap
			// enough to just do every loop.
			nco := li.getConf()
			if nco.CheckInt != co.CheckInt {
				co = nco
				tick.Reset(co.CheckInt)
			}
		case <-li.scanCh:
			fl.Debug().Msg("poked")
			li.scan()
		case <-li.ctx.Done():
			fl.Debug().Msg("context done")
			return
		case _, ok := <-li.bye:
			if !ok {
				fl.Debug().Msg("Shutting down")
				return
			}
		}
	}
} // }}}
