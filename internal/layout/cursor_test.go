package layout_test

import (
	"testing"

	"github.com/Strob0t/pmreport/internal/layout"
	"github.com/Strob0t/pmreport/internal/layout/layouttest"
)

func TestNewCursorOpensFirstPage(t *testing.T) {
	rec := layouttest.NewRecorder(1)
	c := layout.NewCursor(rec, layout.Defaults())

	if c.Pages() != 1 || len(rec.Pages) != 1 {
		t.Fatalf("expected one page, got cursor=%d recorder=%d", c.Pages(), len(rec.Pages))
	}
	if c.Y() != 20 {
		t.Fatalf("expected y at top margin 20, got %v", c.Y())
	}
}

func TestEmitLineAdvances(t *testing.T) {
	cfg := layout.Defaults()
	rec := layouttest.NewRecorder(1)
	c := layout.NewCursor(rec, cfg)

	c.EmitLine("title", cfg.HeadingAdvance)
	c.EmitLine("body", cfg.LineHeight)

	lines := rec.All()
	if lines[0].Y != 20 || lines[1].Y != 30 {
		t.Fatalf("expected lines at y=20 and y=30, got %v and %v", lines[0].Y, lines[1].Y)
	}
	if lines[0].X != cfg.LeftMargin {
		t.Fatalf("expected x at left margin %v, got %v", cfg.LeftMargin, lines[0].X)
	}
	if c.Y() != 37 {
		t.Fatalf("expected cursor at 37, got %v", c.Y())
	}
}

func TestPageBreakInvariant(t *testing.T) {
	cfg := layout.Defaults()
	rec := layouttest.NewRecorder(1)
	c := layout.NewCursor(rec, cfg)

	for range 200 {
		c.EmitLine("line", cfg.LineHeight)
	}

	for p, page := range rec.Pages {
		if len(page) == 0 {
			t.Fatalf("page %d is empty", p)
		}
		if page[0].Y != cfg.TopMargin {
			t.Fatalf("page %d: first line at y=%v, want %v", p, page[0].Y, cfg.TopMargin)
		}
		for _, l := range page {
			if l.Y > cfg.BottomThreshold {
				t.Fatalf("page %d: line at y=%v exceeds threshold %v", p, l.Y, cfg.BottomThreshold)
			}
		}
	}
	if c.Pages() != len(rec.Pages) {
		t.Fatalf("cursor counted %d pages, recorder has %d", c.Pages(), len(rec.Pages))
	}
}

func TestBreakHappensOnlyAboveThreshold(t *testing.T) {
	cfg := layout.Defaults()
	rec := layouttest.NewRecorder(1)
	c := layout.NewCursor(rec, cfg)

	// y: 20, 27, ..., 279 is 38 lines; the 39th line starts at 286.
	for range 38 {
		c.EmitLine("x", cfg.LineHeight)
	}
	if len(rec.Pages) != 1 {
		t.Fatalf("expected 38 lines to fit on one page, got %d pages", len(rec.Pages))
	}
	if last := rec.Pages[0][37].Y; last != 279 {
		t.Fatalf("expected last line at 279, got %v", last)
	}

	c.EmitLine("next", cfg.LineHeight)
	if len(rec.Pages) != 2 {
		t.Fatalf("expected break before 39th line, got %d pages", len(rec.Pages))
	}
	if rec.Pages[1][0].Y != cfg.TopMargin || rec.Pages[1][0].Text != "next" {
		t.Fatalf("unexpected first line on page 2: %+v", rec.Pages[1][0])
	}
}

func TestLineExactlyAtThresholdStays(t *testing.T) {
	cfg := layout.Defaults()
	rec := layouttest.NewRecorder(1)
	c := layout.NewCursor(rec, cfg)

	c.Advance(cfg.BottomThreshold - cfg.TopMargin)
	c.EmitLine("at threshold", cfg.LineHeight)

	if len(rec.Pages) != 1 || rec.Pages[0][0].Y != 280 {
		t.Fatalf("expected line at y=280 on first page, got %d pages", len(rec.Pages))
	}
}

func TestForcePageBreakIsUnconditional(t *testing.T) {
	cfg := layout.Defaults()
	rec := layouttest.NewRecorder(1)
	c := layout.NewCursor(rec, cfg)

	c.ForcePageBreak()
	c.ForcePageBreak()

	if c.Pages() != 3 {
		t.Fatalf("expected 3 pages, got %d", c.Pages())
	}
	if c.Y() != cfg.TopMargin {
		t.Fatalf("expected y reset to %v, got %v", cfg.TopMargin, c.Y())
	}
}

func TestEmitWrappedBlockUsesContentWidth(t *testing.T) {
	cfg := layout.Defaults()
	cfg.ContentWidth = 10
	rec := layouttest.NewRecorder(1)
	c := layout.NewCursor(rec, cfg)

	c.EmitWrappedBlock("alpha beta gamma delta")

	got := rec.Texts(0)
	want := []string{"alpha beta", "gamma", "delta"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
	if c.Y() != cfg.TopMargin+3*cfg.LineHeight {
		t.Fatalf("expected three line advances, y=%v", c.Y())
	}
}

func TestSetFontSizeReachesSurface(t *testing.T) {
	rec := layouttest.NewRecorder(1)
	c := layout.NewCursor(rec, layout.Defaults())

	c.SetFontSize(20)
	c.EmitLine("big", 10)
	c.SetFontSize(12)
	c.EmitLine("small", 7)

	lines := rec.All()
	if lines[0].FontSize != 20 || lines[1].FontSize != 12 {
		t.Fatalf("unexpected font sizes: %v, %v", lines[0].FontSize, lines[1].FontSize)
	}
}
