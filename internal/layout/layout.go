// Package layout flows text onto fixed-size pages. A Cursor tracks the
// vertical position on the current page and starts a new page whenever a
// line would begin below the bottom threshold, so no line is ever split
// across pages.
package layout

// Config holds page geometry and the fixed layout constants, all in page
// units (millimetres for A4).
type Config struct {
	PageWidth       float64
	PageHeight      float64
	TopMargin       float64 // y of the first line on every page
	BottomThreshold float64 // a line starting below this moves to a new page
	LeftMargin      float64
	ContentWidth    float64 // wrap width
	LineHeight      float64 // advance after a body line
	HeadingAdvance  float64 // advance after a title, label or section header
	BlockGap        float64 // extra space after a block such as a task
	TitleFontSize   float64
	BodyFontSize    float64
}

// Defaults returns the A4 report layout.
func Defaults() Config {
	return Config{
		PageWidth:       210,
		PageHeight:      297,
		TopMargin:       20,
		BottomThreshold: 280,
		LeftMargin:      14,
		ContentWidth:    180,
		LineHeight:      7,
		HeadingAdvance:  10,
		BlockGap:        10,
		TitleFontSize:   20,
		BodyFontSize:    12,
	}
}

// Surface is a paged drawing target. Text places a single line with its
// baseline at (x, y). StringWidth measures s in page units at the current
// font size.
type Surface interface {
	AddPage()
	SetFontSize(size float64)
	Text(x, y float64, s string)
	StringWidth(s string) float64
}
