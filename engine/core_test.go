package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"rotation/classify"
	"rotation/types"
)

// type stubLibrary struct {{{

type stubLibrary struct {
	buckets map[classify.Category][]*types.Photo
} // }}}

func (s *stubLibrary) Buckets() map[classify.Category][]*types.Photo { return s.buckets }

func (s *stubLibrary) Len() int {
	n := 0
	for _, ph := range s.buckets {
		n += len(ph)
	}
	return n
}

func (s *stubLibrary) Close() {}

// type stubRenderer struct {{{

type stubRenderer struct {
	frames []*types.Frame
} // }}}

func (s *stubRenderer) Display(fr *types.Frame) error {
	s.frames = append(s.frames, fr)
	return nil
}

// type fakeClock struct {{{

type fakeClock struct {
	t time.Time
} // }}}

func (f fakeClock) Now() time.Time { return f.t }

// func testEngine {{{

// Builds an engine against stubs, with a long enough interval that the
// background ticker stays out of the test's way.
func testEngine(t *testing.T, lib *stubLibrary) (*Engine, *stubRenderer) {
	t.Helper()

	dir := t.TempDir()
	cFile := filepath.Join(dir, "engine.yaml")

	conf := "width: 1920\nheight: 1080\ninterval: 1h\n"
	if err := os.WriteFile(cFile, []byte(conf), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	re := &stubRenderer{}
	cl := fakeClock{t: time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)}
	l := zerolog.Nop()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	en, err := New(cFile, lib, re, cl, &l, ctx)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	t.Cleanup(en.Close)

	return en, re
} // }}}

// func fullLibrary {{{

// A library with photos in every category, so any layout can fill without
// borrowing.
func fullLibrary() *stubLibrary {
	dims := map[classify.Category][2]int{
		classify.CatUltraWide: {2560, 1080},
		classify.CatWide16x9:  {1920, 1080},
		classify.CatTall16x9:  {1080, 1920},
		classify.CatWide4x3:   {1600, 1200},
		classify.CatTall4x3:   {1200, 1600},
		classify.CatSquare:    {1000, 1000},
	}

	buckets := make(map[classify.Category][]*types.Photo, len(dims))

	for cat, d := range dims {
		for i := 0; i < 8; i++ {
			buckets[cat] = append(buckets[cat], &types.Photo{
				Path:     fmt.Sprintf("%s-%d.jpg", cat, i),
				Width:    d[0],
				Height:   d[1],
				Category: cat,
			})
		}
	}

	return &stubLibrary{buckets: buckets}
} // }}}

func TestTick(t *testing.T) {
	en, re := testEngine(t, fullLibrary())

	for i := 0; i < 10; i++ {
		if err := en.Tick(); err != nil {
			t.Fatalf("Tick %d: %v", i, err)
		}
	}

	if len(re.frames) != 10 {
		t.Fatalf("Expected 10 frames, got %d", len(re.frames))
	}

	for i, fr := range re.frames {
		if fr.Width != 1920 || fr.Height != 1080 {
			t.Fatalf("frame %d: wrong size %dx%d", i, fr.Width, fr.Height)
		}

		if fr.Layout == "" {
			t.Fatalf("frame %d: no layout name", i)
		}

		if len(fr.Panes) < 1 {
			t.Fatalf("frame %d: no panes", i)
		}

		for _, pane := range fr.Panes {
			if pane.Photo == nil {
				t.Fatalf("frame %d: pane %s has no photo", i, pane.Name)
			}

			if pane.Rect.Empty() {
				t.Fatalf("frame %d: pane %s has no area", i, pane.Name)
			}

			if !pane.Plan.Letterbox && !pane.Plan.Pad {
				if pane.Plan.Crop.Dx() != pane.Rect.Dx() || pane.Plan.Crop.Dy() != pane.Rect.Dy() {
					t.Fatalf("frame %d: pane %s crop %v does not match pane %v", i, pane.Name, pane.Plan.Crop, pane.Rect)
				}
			}
		}
	}
}

func TestTickEmptyLibrary(t *testing.T) {
	en, re := testEngine(t, &stubLibrary{})

	if err := en.Tick(); err != types.ErrNoPhotos {
		t.Fatalf("Expected ErrNoPhotos != Got %v", err)
	}

	// No photos means no frame - whatever was on screen stays there.
	if len(re.frames) != 0 {
		t.Fatalf("frame displayed from an empty library")
	}
}

func TestPause(t *testing.T) {
	en, re := testEngine(t, fullLibrary())

	en.Pause()

	// Manual ticks keep working while paused.
	if err := en.Tick(); err != nil {
		t.Fatalf("Tick while paused: %v", err)
	}

	if len(re.frames) != 1 {
		t.Fatalf("Expected 1 frame, got %d", len(re.frames))
	}

	en.Resume()

	if err := en.Tick(); err != nil {
		t.Fatalf("Tick after resume: %v", err)
	}

	if len(re.frames) != 2 {
		t.Fatalf("Expected 2 frames, got %d", len(re.frames))
	}
}

func TestTickAfterClose(t *testing.T) {
	en, _ := testEngine(t, fullLibrary())

	en.Close()

	if err := en.Tick(); err != types.ErrShutdown {
		t.Fatalf("Expected ErrShutdown != Got %v", err)
	}
}

func TestConfTunables(t *testing.T) {
	dir := t.TempDir()
	cFile := filepath.Join(dir, "engine.yaml")

	conf := "width: 1920\nheight: 1080\ninterval: 1h\n" +
		"cropmax: 0.3\nmultiplier: 5\nwindowdays: 14\ndrawcap: 25\naltattempts: 4\ndualattempts: 7\n"
	if err := os.WriteFile(cFile, []byte(conf), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	l := zerolog.Nop()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	en, err := New(cFile, fullLibrary(), &stubRenderer{}, fakeClock{t: time.Now()}, &l, ctx)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	t.Cleanup(en.Close)

	co := en.getConf()

	if co.CropMax != 0.3 || co.Multiplier != 5 || co.WindowDays != 14 {
		t.Fatalf("tunables not loaded: %#v", co)
	}

	if co.DrawCap != 25 || co.AltAttempts != 4 || co.DualAttempts != 7 {
		t.Fatalf("attempt tunables not loaded: %#v", co)
	}
}

func TestReset(t *testing.T) {
	en, _ := testEngine(t, fullLibrary())

	if err := en.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	// Reset rebuilds the rotation state, the next tick starts fresh.
	en.Reset()

	if err := en.Tick(); err != nil {
		t.Fatalf("Tick after Reset: %v", err)
	}
}
