// Package layouttest provides an in-memory layout.Surface for tests.
package layouttest

import "unicode/utf8"

// Line is one Text call captured by a Recorder.
type Line struct {
	X, Y     float64
	FontSize float64
	Text     string
}

// Recorder is a layout.Surface that keeps every page and line in memory.
// Widths are measured as rune count times CharWidth.
type Recorder struct {
	CharWidth float64
	Pages     [][]Line
	fontSize  float64
}

// NewRecorder returns a Recorder measuring charWidth units per rune.
func NewRecorder(charWidth float64) *Recorder {
	return &Recorder{CharWidth: charWidth}
}

func (r *Recorder) AddPage() { r.Pages = append(r.Pages, []Line{}) }

func (r *Recorder) SetFontSize(size float64) { r.fontSize = size }

func (r *Recorder) Text(x, y float64, s string) {
	if len(r.Pages) == 0 {
		panic("layouttest: Text before AddPage")
	}
	last := len(r.Pages) - 1
	r.Pages[last] = append(r.Pages[last], Line{X: x, Y: y, FontSize: r.fontSize, Text: s})
}

func (r *Recorder) StringWidth(s string) float64 {
	return float64(utf8.RuneCountInString(s)) * r.CharWidth
}

// Texts returns the text of every line on page i (zero-based).
func (r *Recorder) Texts(i int) []string {
	out := make([]string, 0, len(r.Pages[i]))
	for _, l := range r.Pages[i] {
		out = append(out, l.Text)
	}
	return out
}

// All returns every captured line in emission order.
func (r *Recorder) All() []Line {
	var out []Line
	for _, p := range r.Pages {
		out = append(out, p...)
	}
	return out
}
