package library

import (
	"errors"
	"time"
)

// This file contains all functions related to the loading of our configuration files.

// func Library.yconfConvert {{{

func (li *Library) yconfConvert(inInt interface{}) (interface{}, error) {
	var err error

	fl := li.l.With().Str("func", "yconfConvert").Logger()

	in, ok := inInt.(*confYAML)
	if !ok {
		return nil, errors.New("not *confYAML")
	}

	out := &conf{
		Path:  in.Path,
		Cache: in.Cache,
	}

	// If no check interval, default to 5 minutes.
	if in.CheckInt == "" {
		in.CheckInt = "5m"
	}

	out.CheckInt, err = time.ParseDuration(in.CheckInt)
	if err != nil {
		err = errors.New("invalid checkinterval")
		fl.Err(err).Str("checkinterval", in.CheckInt).Send()
		return nil, err
	}

	// Minimum of 30 seconds for sanity, no maximum.
	if out.CheckInt < 30*time.Second {
		out.CheckInt = 30 * time.Second
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

	if inA.Path != inB.Path && inB.Path != "" {
		inA.Path = inB.Path
	}

	if inA.Cache != inB.Cache && inB.Cache != "" {
		inA.Cache = inB.Cache
	}

	if inA.CheckInt != inB.CheckInt && inB.CheckInt > 0 {
		inA.CheckInt = inB.CheckInt
	}

	return inA, nil
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

	if orig.Path != newc.Path {
		return true
	}

	if orig.Cache != newc.Cache {
		return true
	}

	if orig.CheckInt != newc.CheckInt {
		return true
	}

	return false
} // }}}

// func Library.notifyConf {{{

// Handles a configuration reload.
//
// A changed photo path forces a full rescan on the next loop, a changed
// interval just retimes the ticker in loopy.
func (li *Library) notifyConf() {
	fl := li.l.With().Str("func", "notifyConf").Logger()

	// Update our configuration.
	co, ok := li.yc.Get().(*conf)
	if !ok {
		fl.Warn().Msg("Invalid configuration")
		return
	}

	old := li.getConf()

	li.co.Store(co)

	if old.Path != co.Path {
		fl.Info().Str("path", co.Path).Msg("photo path changed, rescanning")

		// Poke loopy, no blocking if a scan is already queued.
		select {
		case li.scanCh <- struct{}{}:
		default:
		}
	}

	fl.Info().Msg("configuration updated")
} // }}}

// func Library.getConf {{{

func (li *Library) getConf() *conf {
	if co, ok := li.co.Load().(*conf); ok {
		return co
	}

	// This should really never be able to happen.
	//
	// If this does, then there is a deeper issue.
	return &conf{}
} // }}}

// func Library.checkConf {{{

// Ensures the configuration at startup is sane.
func (li *Library) checkConf() error {
	fl := li.l.With().Str("func", "checkConf").Logger()

	co, ok := li.yc.Get().(*conf)
	if !ok {
		err := errors.New("no configuration loaded")
		fl.Err(err).Send()
		return err
	}

	if co.Path == "" {
		err := errors.New("missing path")
		fl.Err(err).Send()
		return err
	}

	li.co.Store(co)

	return nil
} // }}}
