package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"rotation/engine"
	"rotation/library"
	"rotation/render"
	"rotation/yconf"
)

// func usage {{{

func usage() {
	fmt.Printf("usage: %s\n", os.Args[0])
	flag.PrintDefaults()
	os.Exit(-1)
} // }}}

type confFile struct {
	// Configuration path for the photo library.
	//
	// This one is not optional.
	Library string `yaml:"library"`

	// Configuration path for the rotation engine.
	//
	// This one is not optional.
	Engine string `yaml:"engine"`

	// Configuration path for the renderer.
	//
	// This one is not optional.
	Render string `yaml:"render"`

	// The path for the hourly log file to be written.
	// STDOUT and STDERR will be redirected to this file.
	//
	// Optional - If left empty then STDOUT and STDERR will get all output.
	LogPath string `yaml:"logpath"`
}

type app struct {
	l       zerolog.Logger
	cFile   string
	co      *confFile
	li      *library.Library
	re      *render.Render
	en      *engine.Engine
	curHour int32
	yc      *yconf.YConf
	cancel  context.CancelFunc
	bye     chan struct{}
}

// The wall clock, what the engine anchors its recency window on.
type sysClock struct{}

func (sysClock) Now() time.Time { return time.Now() }

// func emptyConf {{{

func emptyConf() interface{} {
	return &confFile{}
} // }}}

var pathsConf = yconf.Callers{
	Empty: emptyConf,
}

// func app.Wait {{{

// Does not return until a signal such as SIGTERM, SIGINT or SIGQUIT.
func (a *app) Wait() {
	fl := a.l.With().Str("func", "Wait").Logger()

	// And now we just loop waiting for a signal.
	endSig := make(chan os.Signal, 1)
	signal.Notify(endSig, os.Interrupt, syscall.SIGTERM)

	fl.Info().Msg("Waiting on signal")

	// Wait for a signal ...
	<-endSig

	signal.Stop(endSig)
} // }}}

// func app.Close {{{

func (a *app) Close() {
	// Stop the log rotation goroutine.
	close(a.bye)

	a.l.Info().Msg("Shutting down")

	a.cancel()

	// We can be called in the middle of startup, as well as with only certain modules loaded.
	//
	// Always nil check to know what we need to shutdown.
	if a.en != nil {
		a.en.Close()
	}

	if a.re != nil {
		a.re.Close()
	}

	if a.li != nil {
		a.li.Close()
	}

	// This time delay gives the above just a little more time to shutdown properly.
	time.Sleep(300 * time.Millisecond)
} // }}}

// func main {{{

func main() {
	var err error

	// Set the time logging format
	zerolog.TimeFieldFormat = time.RFC3339

	ctx, cancel := context.WithCancel(context.Background())

	a := &app{
		// Set to an invalid hour to ensure it rotates the first time.
		curHour: 50,
		cancel:  cancel,
		bye:     make(chan struct{}, 0),
	}

	a.l = a.newLog()

	// Lets load our flags.
	flag.StringVar(&a.cFile, "conf", "", "YAML Configuration directory")
	flag.Parse()

	if a.cFile == "" {
		usage()
	}

	a.yc, err = yconf.New(a.cFile, pathsConf, &a.l)
	if err != nil {
		a.l.Err(err).Msg("yconf.New")
		os.Exit(-1)
	}

	if err = a.yc.CheckConf(); err != nil {
		a.l.Err(err).Msg("yc.CheckConf")
		os.Exit(-1)
	}

	a.l.Debug().Interface("conf", a.yc.Get()).Send()

	// Get the loaded configuration
	if lconf, ok := a.yc.Get().(*confFile); ok {
		a.co = lconf
	}

	if a.co == nil {
		a.l.Error().Msg("No paths loaded from configuration")
		os.Exit(-1)
	}

	if a.co.LogPath != "" {
		if err := a.logRotate(); err != nil {
			a.l.Err(err).Msg("rotate")
			os.Exit(-1)
		}

		// Log rotation good.
		go a.logLoopy()
	}

	a.l.Debug().Interface("yc", a.co).Send()

	if a.co.Library == "" || a.co.Engine == "" || a.co.Render == "" {
		a.l.Error().Msg("Missing library, engine or render configuration")
		os.Exit(-1)
	}

	// The library first, everything else feeds off it.
	a.li, err = library.New(a.co.Library, &a.l, ctx)
	if err != nil {
		a.li = nil
		a.l.Err(err).Msg("Library")
		a.Close()
		os.Exit(-1)
	}

	a.re, err = render.New(a.co.Render, &a.l, ctx)
	if err != nil {
		a.re = nil
		a.l.Err(err).Msg("Render")
		a.Close()
		os.Exit(-1)
	}

	a.en, err = engine.New(a.co.Engine, a.li, a.re, sysClock{}, &a.l, ctx)
	if err != nil {
		a.en = nil
		a.l.Err(err).Msg("Engine")
		a.Close()
		os.Exit(-1)
	}

	// Get the first frame up right away rather then waiting an interval.
	if err := a.en.Tick(); err != nil {
		a.l.Err(err).Msg("first frame")
	}

	a.l.Info().Msg("Startup Finished")

	// Now we just wait until something tells us to shutdown.
	a.Wait()

	a.l.Info().Msg("Shutting down")
	a.Close()
} // }}}

// func app.logLoopy {{{

// This handles log rotation for us.
//
// Every minute it checks to see if the hour changes, and if so it rotates the file and sets STDOUT and STDERR for us.
func (a *app) logLoopy() {
	fl := a.l.With().Str("func", "logLoopy").Logger()

	// Basic tracking ticker, runs every minute.
	tick := time.NewTicker(time.Minute)
	defer tick.Stop()

	for {
		select {
		case <-tick.C:
			// We can go a while without actually logging anything.
			// With that in mind its important to ensure we rotate the log file.
			hour := int32(time.Now().Hour())

			// logRotate() will update curHour for us.
			if hour != a.curHour {
				fl.Debug().Msg("rotate")
				if err := a.logRotate(); err != nil {
					a.l.Err(err).Msg("rotate")
				}
			}
		case _, ok := <-a.bye:
			if !ok {
				return
			}
		}
	}
} // }}}

// func app.logRotate {{{

func (a *app) logRotate() error {
	fl := a.l.With().Str("func", "logRotate").Logger()

	now := time.Now()
	hour := int32(now.Hour())
	path := a.co.LogPath

	// If the hour has not changed, nothing to do.
	if hour == a.curHour {
		return nil
	}

	// Make the log file name.
	fileName := "rotation." + now.Format("2006-01-02.15") + ".log"
	fullName := path + "/" + fileName

	lf, err := os.OpenFile(fullName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	fl.Debug().Msg("rotating logfile")

	a.logFile(lf)

	// Switch the hour
	a.curHour = hour

	// Is there a link?
	linkFile := path + "/rotation.current"

	// Create our new temporary symlink
	if err := os.Symlink(fileName, linkFile+".tmp"); err != nil {
		fl.Err(err).Msg("Symlink")
		return err
	}

	// Atomic rename
	os.Rename(linkFile+".tmp", linkFile)

	return nil
} // }}}
