package engine

import (
	"errors"
	"sync/atomic"
	"time"
)

// This file contains all functions related to the loading of our configuration files.

// func Engine.yconfConvert {{{

func (en *Engine) yconfConvert(inInt interface{}) (interface{}, error) {
	fl := en.l.With().Str("func", "yconfConvert").Logger()

	in, ok := inInt.(*confYAML)
	if !ok {
		return nil, errors.New("not *confYAML")
	}

	out := &conf{
		Width:  in.Width,
		Height: in.Height,
	}

	// If no interval, default to 15 seconds.
	if in.Interval == "" {
		in.Interval = "15s"
	}

	var err error

	out.Interval, err = time.ParseDuration(in.Interval)
	if err != nil {
		err = errors.New("invalid interval")
		fl.Err(err).Str("interval", in.Interval).Send()
		return nil, err
	}

	// Minimum of 1 second for sanity, no maximum.
	if out.Interval < time.Second {
		out.Interval = time.Second
	}

	// Cooldown left out of the file keeps the default, an explicit 0
	// disables the restricted-subset rule entirely.
	out.Cooldown = -1
	if in.Cooldown != nil {
		out.Cooldown = *in.Cooldown

		if out.Cooldown < 0 {
			out.Cooldown = -1
		}
	}

	if len(in.Weights) > 0 {
		out.Weights = make(map[string]int, len(in.Weights))
		for name, w := range in.Weights {
			if w < 0 {
				err = errors.New("negative weight")
				fl.Err(err).Str("layout", name).Int("weight", w).Send()
				return nil, err
			}

			out.Weights[name] = w
		}
	}

	if in.Restricted != nil {
		out.Restricted = in.Restricted
	}

	// Selection tunables, anything unset keeps its default.
	if in.CropMax > 0 {
		out.CropMax = in.CropMax
	}

	if in.Multiplier > 0 {
		out.Multiplier = in.Multiplier
	}

	if in.WindowDays > 0 {
		out.WindowDays = in.WindowDays
	}

	if in.DrawCap > 0 {
		out.DrawCap = in.DrawCap
	}

	if in.AltAttempts > 0 {
		out.AltAttempts = in.AltAttempts
	}

	if in.DualAttempts > 0 {
		out.DualAttempts = in.DualAttempts
	}

	fl.Debug().Interface("out", out).Send()
	return out, nil
} // }}}

// func yconfMerge {{{

func yconfMerge(inAInt, inBInt interface{}) (interface{}, error) {
	// Previously loaded files are passed in as inA, inB is just the most recent.
	//
	// So merge everything into inA.
	inA, ok := inAInt.(*conf)
	if !ok {
		return nil, errors.New("not a *conf")
	}

	inB, ok := inBInt.(*conf)
	if !ok {
		return nil, errors.New("not a *conf")
	}

	if inA.Width != inB.Width && inB.Width > 0 {
		inA.Width = inB.Width
	}

	if inA.Height != inB.Height && inB.Height > 0 {
		inA.Height = inB.Height
	}

	if inA.Interval != inB.Interval && inB.Interval > 0 {
		inA.Interval = inB.Interval
	}

	if inB.Cooldown != -1 {
		inA.Cooldown = inB.Cooldown
	}

	if len(inB.Weights) > 0 {
		if inA.Weights == nil {
			inA.Weights = inB.Weights
		} else {
			for name, w := range inB.Weights {
				inA.Weights[name] = w
			}
		}
	}

	if inB.Restricted != nil {
		inA.Restricted = inB.Restricted
	}

	if inB.CropMax > 0 {
		inA.CropMax = inB.CropMax
	}

	if inB.Multiplier > 0 {
		inA.Multiplier = inB.Multiplier
	}

	if inB.WindowDays > 0 {
		inA.WindowDays = inB.WindowDays
	}

	if inB.DrawCap > 0 {
		inA.DrawCap = inB.DrawCap
	}

	if inB.AltAttempts > 0 {
		inA.AltAttempts = inB.AltAttempts
	}

	if inB.DualAttempts > 0 {
		inA.DualAttempts = inB.DualAttempts
	}

	return inA, nil
} // }}}

// func mapsEqual {{{

func mapsEqual(a, b map[string]int) bool {
	if len(a) != len(b) {
		return false
	}

	for k, va := range a {
		vb, ok := b[k]
		if !ok || va != vb {
			return false
		}
	}

	return true
} // }}}

// func slicesEqual {{{

func slicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
} // }}}

// func yconfChanged {{{

func yconfChanged(origInt, newInt interface{}) bool {
	// None of these casts should be able to fail, but we like our sanity.
	orig, ok := origInt.(*conf)
	if !ok {
		return true
	}

	newc, ok := newInt.(*conf)
	if !ok {
		return true
	}

	if orig.Width != newc.Width || orig.Height != newc.Height {
		return true
	}

	if orig.Interval != newc.Interval {
		return true
	}

	if orig.Cooldown != newc.Cooldown {
		return true
	}

	if !mapsEqual(orig.Weights, newc.Weights) {
		return true
	}

	if !slicesEqual(orig.Restricted, newc.Restricted) {
		return true
	}

	if orig.CropMax != newc.CropMax {
		return true
	}

	if orig.Multiplier != newc.Multiplier {
		return true
	}

	if orig.WindowDays != newc.WindowDays {
		return true
	}

	if orig.DrawCap != newc.DrawCap {
		return true
	}

	if orig.AltAttempts != newc.AltAttempts {
		return true
	}

	if orig.DualAttempts != newc.DualAttempts {
		return true
	}

	return false
} // }}}

// func Engine.notifyConf {{{

// Handles a configuration reload.
//
// The new configuration is stored and the rebuild flag set - the next
// rotation rebuilds the catalog, selector and picker from it. Nothing is
// torn down mid-display.
func (en *Engine) notifyConf() {
	fl := en.l.With().Str("func", "notifyConf").Logger()

	co, ok := en.yc.Get().(*conf)
	if !ok {
		fl.Warn().Msg("Invalid configuration")
		return
	}

	en.co.Store(co)
	atomic.StoreUint32(&en.rebuild, 1)

	fl.Info().Msg("configuration updated")
} // }}}

// func Engine.getConf {{{

func (en *Engine) getConf() *conf {
	if co, ok := en.co.Load().(*conf); ok {
		return co
	}

	// This should really never be able to happen.
	//
	// If this does, then there is a deeper issue.
	return &conf{}
} // }}}

// func Engine.checkConf {{{

// Ensures the configuration at startup is sane.
func (en *Engine) checkConf() error {
	fl := en.l.With().Str("func", "checkConf").Logger()

	co, ok := en.yc.Get().(*conf)
	if !ok {
		err := errors.New("no configuration loaded")
		fl.Err(err).Send()
		return err
	}

	if co.Width < 1 || co.Height < 1 {
		err := errors.New("missing resolution")
		fl.Err(err).Send()
		return err
	}

	en.co.Store(co)

	return nil
} // }}}
