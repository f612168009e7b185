package timesource

import (
	"errors"
	"testing"
	"time"

	"github.com/timewarplabs/timewarp/internal/warp"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// fakeClock drives both the engine and the clock surface from one hand.
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time { return f.t }

func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

// fakeSource is a ClockSource whose "now" comes from a fakeClock.
type fakeSource struct {
	clk *fakeClock
}

func (s *fakeSource) Now() time.Time { return s.clk.t }

func (s *fakeSource) Date(year int, month time.Month, day, hour, min, sec, nsec int, loc *time.Location) time.Time {
	return time.Date(year, month, day, hour, min, sec, nsec, loc)
}

func (s *fakeSource) Unix(sec, nsec int64) time.Time {
	return time.Unix(sec, nsec)
}

func newWarpedBindings(t *testing.T) (*Bindings, *warp.Engine, *fakeClock) {
	t.Helper()
	clk := &fakeClock{t: epoch}
	eng := warp.NewEngine(warp.DefaultLimits(), clk, nil)
	b := NewBindings()
	if _, err := b.InstallClock(&fakeSource{clk: clk}); err != nil {
		t.Fatal(err)
	}
	restore := InstallWarp(b, eng, nil)
	t.Cleanup(restore)
	return b, eng, clk
}

func TestBindings_DefaultIsReal(t *testing.T) {
	b := NewBindings()
	if _, ok := b.ClockSource().(RealClockSource); !ok {
		t.Errorf("default clock binding = %T, want RealClockSource", b.ClockSource())
	}
	if _, ok := b.Scheduler().(RealScheduler); !ok {
		t.Errorf("default scheduler binding = %T, want RealScheduler", b.Scheduler())
	}
}

func TestBindings_WarpedNow(t *testing.T) {
	b, eng, clk := newWarpedBindings(t)

	eng.SetMultiplier(2.0)
	clk.advance(30 * time.Second)

	want := epoch.Add(time.Minute)
	if got := b.Now(); !got.Equal(want) {
		t.Errorf("Now() = %v, want %v", got, want)
	}
}

func TestBindings_ExplicitConstructionPassesThrough(t *testing.T) {
	b, eng, clk := newWarpedBindings(t)

	eng.SetMultiplier(8.0)
	clk.advance(time.Hour)

	// Explicitly constructed values are untouched by the warp.
	want := time.Date(2030, time.June, 15, 12, 0, 0, 0, time.UTC)
	if got := b.Date(2030, time.June, 15, 12, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("Date() = %v, want %v", got, want)
	}
	if got := b.Unix(1700000000, 0); !got.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("Unix() = %v, want %v", got, time.Unix(1700000000, 0))
	}
}

func TestBindings_SealedSurfaceRejectsInstall(t *testing.T) {
	b := NewBindings()
	b.Seal(SurfaceClock)

	if _, err := b.InstallClock(RealClockSource{}); !errors.Is(err, ErrSealedSurface) {
		t.Errorf("InstallClock on sealed surface: err = %v, want ErrSealedSurface", err)
	}
}

func TestInstallWarp_SkipsSealedSurface(t *testing.T) {
	clk := &fakeClock{t: epoch}
	eng := warp.NewEngine(warp.DefaultLimits(), clk, nil)
	b := NewBindings()
	if _, err := b.InstallClock(&fakeSource{clk: clk}); err != nil {
		t.Fatal(err)
	}
	b.Seal(SurfaceElapsed)

	restore := InstallWarp(b, eng, nil)
	defer restore()

	// The sealed surface keeps its real binding, the rest are warped.
	if _, ok := b.ElapsedSource().(*RealElapsedSource); !ok {
		t.Errorf("elapsed binding = %T, want *RealElapsedSource", b.ElapsedSource())
	}
	if _, ok := b.ClockSource().(*WarpedClockSource); !ok {
		t.Errorf("clock binding = %T, want *WarpedClockSource", b.ClockSource())
	}
	if _, ok := b.Scheduler().(*WarpedScheduler); !ok {
		t.Errorf("scheduler binding = %T, want *WarpedScheduler", b.Scheduler())
	}
}

func TestInstallWarp_RestoreReinstatesOriginals(t *testing.T) {
	clk := &fakeClock{t: epoch}
	eng := warp.NewEngine(warp.DefaultLimits(), clk, nil)
	b := NewBindings()
	orig := &fakeSource{clk: clk}
	if _, err := b.InstallClock(orig); err != nil {
		t.Fatal(err)
	}

	restore := InstallWarp(b, eng, nil)
	restore()

	if b.ClockSource() != ClockSource(orig) {
		t.Errorf("clock binding after restore = %T, want the displaced original", b.ClockSource())
	}
	if _, ok := b.Scheduler().(RealScheduler); !ok {
		t.Errorf("scheduler binding after restore = %T, want RealScheduler", b.Scheduler())
	}
}

func TestWarpedElapsed_ScalesReading(t *testing.T) {
	clk := &fakeClock{t: epoch}
	eng := warp.NewEngine(warp.DefaultLimits(), clk, nil)
	eng.SetMultiplier(4.0)

	src := NewWarpedElapsedSource(eng, fixedElapsed(250*time.Millisecond))
	if got := src.Elapsed(); got != time.Second {
		t.Errorf("Elapsed() = %v, want 1s", got)
	}
}

// fixedElapsed is an ElapsedSource stub with a constant reading.
type fixedElapsed time.Duration

func (f fixedElapsed) Elapsed() time.Duration { return time.Duration(f) }
