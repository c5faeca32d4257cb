package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"sync/atomic"
	"time"

	"github.com/anthonynsimon/bild/transform"
	"github.com/rs/zerolog"

	fimg "rotation/image"
	"rotation/types"
	"rotation/yconf"
)

// func parseFill {{{

func parseFill(in string) (color.RGBA, error) {
	// Black when not configured.
	if in == "" {
		return color.RGBA{A: 0xFF}, nil
	}

	// Exactly "#RRGGBB". Sscanf treats the hex widths as maximums, so
	// short values would otherwise slip through misparsed.
	if len(in) != 7 || in[0] != '#' {
		return color.RGBA{}, errors.New("invalid fill color")
	}

	var r, g, b uint8

	n, err := fmt.Sscanf(in, "#%02x%02x%02x", &r, &g, &b)
	if err != nil || n != 3 {
		return color.RGBA{}, errors.New("invalid fill color")
	}

	return color.RGBA{R: r, G: g, B: b, A: 0xFF}, nil
} // }}}

// func yconfConvert {{{

func yconfConvert(inInt interface{}) (interface{}, error) {
	in, ok := inInt.(*confYAML)
	if !ok {
		return nil, errors.New("not *confYAML")
	}

	out := &conf{
		OutputFile: in.OutputFile,
	}

	var err error

	out.Fill, err = parseFill(in.Fill)
	if err != nil {
		return nil, err
	}

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

	if inA.OutputFile != inB.OutputFile && inB.OutputFile != "" {
		inA.OutputFile = inB.OutputFile
	}

	if inA.Fill != inB.Fill {
		inA.Fill = inB.Fill
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

	if orig.OutputFile != newc.OutputFile {
		return true
	}

	if orig.Fill != newc.Fill {
		return true
	}

	return false
} // }}}

// func New {{{

func New(confPath string, l *zerolog.Logger, ctx context.Context) (*Render, error) {
	var err error

	re := &Render{
		l:     l.With().Str("mod", "render").Logger(),
		cPath: confPath,
		ctx:   ctx,
	}

	fl := re.l.With().Str("func", "New").Logger()

	// Copy the default callers and add what the package level could not.
	ycc := ycCallers

	ycc.Convert = yconfConvert

	ycc.Notify = func() {
		re.notifyConf()
	}

	if re.yc, err = yconf.New(confPath, ycc, &re.l); err != nil {
		fl.Err(err).Msg("yconf.New")
		return nil, err
	}

	if err = re.yc.Start(); err != nil {
		fl.Err(err).Msg("yconf.Start")
		return nil, err
	}

	if err = re.checkConf(); err != nil {
		return nil, err
	}

	fl.Debug().Msg("Created")

	return re, nil
} // }}}

// func Render.notifyConf {{{

func (re *Render) notifyConf() {
	fl := re.l.With().Str("func", "notifyConf").Logger()

	co, ok := re.yc.Get().(*conf)
	if !ok {
		fl.Warn().Msg("Invalid configuration")
		return
	}

	re.co.Store(co)

	fl.Info().Msg("configuration updated")
} // }}}

// func Render.getConf {{{

func (re *Render) getConf() *conf {
	if co, ok := re.co.Load().(*conf); ok {
		return co
	}

	// This should really never be able to happen.
	//
	// If this does, then there is a deeper issue.
	return &conf{}
} // }}}

// func Render.checkConf {{{

func (re *Render) checkConf() error {
	fl := re.l.With().Str("func", "checkConf").Logger()

	co, ok := re.yc.Get().(*conf)
	if !ok {
		err := errors.New("no configuration loaded")
		fl.Err(err).Send()
		return err
	}

	if co.OutputFile == "" {
		err := errors.New("no OutputFile")
		fl.Err(err).Send()
		return err
	}

	re.co.Store(co)

	return nil
} // }}}

// func Render.Close {{{

// Safe to call more then once.
func (re *Render) Close() {
	if !atomic.CompareAndSwapUint32(&re.closed, 0, 1) {
		return
	}

	re.yc.Stop()

	re.l.Debug().Str("func", "Close").Msg("Closed")
} // }}}

// func Render.Display {{{

// Display renders the frame and writes it to the output file.
//
// The engine serializes its calls, so the advisory lock here only matters
// if someone wires a second caller in - the extra call just drops.
func (re *Render) Display(fr *types.Frame) error {
	fl := re.l.With().Str("func", "Display").Str("layout", fr.Layout).Logger()

	if atomic.LoadUint32(&re.closed) == 1 {
		return types.ErrShutdown
	}

	if !atomic.CompareAndSwapUint32(&re.running, 0, 1) {
		fl.Warn().Msg("already rendering, frame dropped")
		return nil
	}

	defer atomic.StoreUint32(&re.running, 0)

	co := re.getConf()

	start := time.Now()

	canvas := image.NewRGBA(image.Rect(0, 0, fr.Width, fr.Height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(co.Fill), image.Point{}, draw.Src)

	for i := range fr.Panes {
		if err := re.applyPane(canvas, &fr.Panes[i]); err != nil {
			// One bad photo does not kill the frame, the pane just shows
			// the fill color.
			fl.Err(err).Str("pane", fr.Panes[i].Name).Msg("applyPane")
		}
	}

	// We do not defer f.Close since we want to close it right away so we can rename it.
	f, err := os.OpenFile(co.OutputFile+".tmp", os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		fl.Err(err).Msg("OpenFile")
		return err
	}

	if err := fimg.SaveImageJPEG(f, canvas); err != nil {
		f.Close()
		fl.Err(err).Msg("SaveImageJPEG")
		return err
	}

	f.Close()

	if err := os.Rename(co.OutputFile+".tmp", co.OutputFile); err != nil {
		fl.Err(err).Msg("Rename")
		return err
	}

	fl.Debug().Stringer("took", time.Since(start)).Send()

	return nil
} // }}}

// func Render.applyPane {{{

// Loads, scales, crops or letterboxes one photo and draws it into its
// pane on the canvas.
func (re *Render) applyPane(dst *image.RGBA, fp *types.FramePane) error {
	img, err := fimg.Open(fp.Photo.Path)
	if err != nil {
		return err
	}

	plan := fp.Plan

	if plan.ScaledW < 1 || plan.ScaledH < 1 {
		return errors.New("empty fit plan")
	}

	scaled := fimg.Resize(img, image.Point{plan.ScaledW, plan.ScaledH})

	var src image.Image = scaled

	if !plan.Letterbox && !plan.Crop.Empty() {
		// transform.Crop wants coordinates relative to the scaled image,
		// which is exactly what the plan holds.
		src = transform.Crop(scaled, plan.Crop)
	}

	// Center whatever we ended up with in the pane. For a full cover fit
	// the offsets are zero, for letterbox and padded fits this places the
	// bars evenly.
	sb := src.Bounds()

	off := image.Point{
		X: fp.Rect.Min.X + (fp.Rect.Dx()-sb.Dx())/2,
		Y: fp.Rect.Min.Y + (fp.Rect.Dy()-sb.Dy())/2,
	}

	target := image.Rectangle{Min: off, Max: off.Add(image.Point{sb.Dx(), sb.Dy()})}

	// Never paint outside our own pane.
	target = target.Intersect(fp.Rect)

	draw.Draw(dst, target, src, sb.Min, draw.Src)

	return nil
} // }}}
