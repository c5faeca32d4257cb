package engine

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"rotation/classify"
	"rotation/geometry"
	"rotation/layout"
	"rotation/picker"
	"rotation/types"
	"rotation/yconf"
)

// func New {{{

// Creates a new Engine and starts the rotation ticker.
//
// The first frame renders on the first tick, one interval after New - call
// Tick() right after for an immediate frame.
func New(confPath string, lib types.Library, re types.Renderer, clock types.Clock, l *zerolog.Logger, ctx context.Context) (*Engine, error) {
	en := &Engine{
		l:     l.With().Str("mod", "engine").Logger(),
		cPath: confPath,
		lib:   lib,
		re:    re,
		clock: clock,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		bye:   make(chan struct{}, 0),
		ctx:   ctx,
	}

	fl := en.l.With().Str("func", "New").Logger()

	// Load our configuration.
	if err := en.loadConf(); err != nil {
		return nil, err
	}

	en.eMut.Lock()
	en.build()
	en.eMut.Unlock()

	go en.loopy()

	fl.Debug().Msg("Created")

	return en, nil
} // }}}

// func Engine.loadConf {{{

func (en *Engine) loadConf() error {
	var err error

	fl := en.l.With().Str("func", "loadConf").Logger()

	// Copy the default callers and add what New() could not.
	ycc := ycCallers

	ycc.Notify = func() {
		en.notifyConf()
	}

	ycc.Convert = func(in interface{}) (interface{}, error) {
		return en.yconfConvert(in)
	}

	if en.yc, err = yconf.New(en.cPath, ycc, &en.l); err != nil {
		fl.Err(err).Msg("yconf.New")
		return err
	}

	if err = en.yc.Start(); err != nil {
		fl.Err(err).Msg("yconf.Start")
		return err
	}

	if err = en.checkConf(); err != nil {
		return err
	}

	return nil
} // }}}

// func Engine.build {{{

// Builds the rotation state from the current configuration.
//
// Runs at startup and again after configuration reloads. Rebuilding
// resets the cooldown and repetition state - acceptable, reloads are
// rare.
//
// Callers hold eMut.
func (en *Engine) build() {
	fl := en.l.With().Str("func", "build").Logger()

	co := en.getConf()

	en.lays = layout.Build(co.Width, co.Height, layout.Options{
		Weights:    co.Weights,
		Restricted: co.Restricted,
	})

	en.sel = layout.NewSelector(en.lays, co.Cooldown, en.rng, &en.l)

	pa := picker.DefaultParams()

	if co.CropMax > 0 {
		pa.CropMax = co.CropMax
	}

	if co.Multiplier > 0 {
		pa.Multiplier = co.Multiplier
	}

	if co.WindowDays > 0 {
		pa.WindowDays = co.WindowDays
	}

	if co.DrawCap > 0 {
		pa.DrawCap = co.DrawCap
	}

	if co.AltAttempts > 0 {
		pa.AltAttempts = co.AltAttempts
	}

	if co.DualAttempts > 0 {
		pa.DualAttempts = co.DualAttempts
	}

	en.pk = picker.New(pa, en.rng, &en.l)

	fl.Debug().Int("layouts", len(en.lays)).Int("width", co.Width).Int("height", co.Height).Send()
} // }}}

// func Engine.rotate {{{

// One full rotation - next layout, photos for its panes, geometry, render.
//
// Callers hold eMut.
func (en *Engine) rotate() error {
	fl := en.l.With().Str("func", "rotate").Logger()

	if atomic.CompareAndSwapUint32(&en.rebuild, 1, 0) {
		en.build()
	}

	co := en.getConf()

	lay, err := en.sel.Next()
	if err != nil {
		// No selectable layout. Whatever frame is up stays up.
		fl.Err(err).Str("last", en.last).Msg("keeping current frame")
		return err
	}

	res, err := en.pk.Assign(lay, en.lib.Buckets(), en.clock.Now())
	if err != nil {
		fl.Err(err).Str("layout", lay.Name).Msg("keeping current frame")
		return err
	}

	frame := &types.Frame{
		Layout:   lay.Name,
		Width:    co.Width,
		Height:   co.Height,
		Degraded: res.Degraded,
		MaxCrop:  res.MaxCrop,
		Panes:    make([]types.FramePane, 0, len(lay.Panes)),
	}

	for i := range lay.Panes {
		pane := &lay.Panes[i]

		ph := res.Photos[pane.Name]

		plan := geometry.Fit(ph.Width, ph.Height, pane.Rect.Dx(), pane.Rect.Dy(), ph.Category == classify.CatUltraWide)

		frame.Panes = append(frame.Panes, types.FramePane{
			Name:  pane.Name,
			Rect:  pane.Rect,
			Photo: ph,
			Plan:  plan,
		})
	}

	if err := en.re.Display(frame); err != nil {
		fl.Err(err).Str("layout", lay.Name).Msg("display")
		return err
	}

	en.last = lay.Name

	fl.Debug().Str("layout", lay.Name).Bool("degraded", frame.Degraded).Send()

	return nil
} // }}}

// func Engine.Tick {{{

// Tick runs one rotation right now, outside of the timer.
//
// The timer keeps its own schedule - a manual tick does not delay the
// next automatic one.
func (en *Engine) Tick() error {
	if atomic.LoadUint32(&en.closed) == 1 {
		return types.ErrShutdown
	}

	en.eMut.Lock()
	defer en.eMut.Unlock()

	return en.rotate()
} // }}}

// func Engine.Pause {{{

// Pause stops automatic rotation. The current frame stays up, manual
// Tick() calls still work.
func (en *Engine) Pause() {
	atomic.StoreUint32(&en.paused, 1)

	en.l.Debug().Str("func", "Pause").Send()
} // }}}

// func Engine.Resume {{{

func (en *Engine) Resume() {
	atomic.StoreUint32(&en.paused, 0)

	en.l.Debug().Str("func", "Resume").Send()
} // }}}

// func Engine.Reset {{{

// Reset drops all rotation state - the per-category repetition sets and
// the restricted-layout cooldown. The next rotation starts fresh.
func (en *Engine) Reset() {
	en.eMut.Lock()
	defer en.eMut.Unlock()

	en.build()

	en.l.Debug().Str("func", "Reset").Send()
} // }}}

// func Engine.Close {{{

// Close stops the rotation ticker.
//
// Safe to call more then once.
func (en *Engine) Close() {
	fl := en.l.With().Str("func", "Close").Logger()

	// Only the first Close() does anything.
	if !atomic.CompareAndSwapUint32(&en.closed, 0, 1) {
		return
	}

	en.yc.Stop()
	close(en.bye)

	fl.Debug().Msg("Closed")
} // }}}

// func Engine.loopy {{{

// Handles the automatic rotations.
//
// A timer rather then a ticker - the next rotation schedules only after
// the current one finishes, so a slow render can never stack rotations
// behind itself.
func (en *Engine) loopy() {
	fl := en.l.With().Str("func", "loopy").Logger()

	timer := time.NewTimer(en.getConf().Interval)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			if atomic.LoadUint32(&en.paused) == 0 {
				en.eMut.Lock()
				en.rotate()
				en.eMut.Unlock()
			}

			// The interval can change on reload, so re-read it each time.
			timer.Reset(en.getConf().Interval)
		case <-en.ctx.Done():
			fl.Debug().Msg("context done")
			return
		case _, ok := <-en.bye:
			if !ok {
				fl.Debug().Msg("Shutting down")
				return
			}
		}
	}
} // }}}
