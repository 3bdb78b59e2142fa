package layout

// Cursor emits lines top to bottom across pages of a Surface.
type Cursor struct {
	cfg   Config
	s     Surface
	y     float64
	pages int
}

// NewCursor opens the first page of s and positions the cursor at the top
// margin.
func NewCursor(s Surface, cfg Config) *Cursor {
	c := &Cursor{cfg: cfg, s: s}
	c.newPage()
	return c
}

// Y returns the vertical position at which the next line will be placed,
// before any page-break check.
func (c *Cursor) Y() float64 { return c.y }

// Pages returns the number of pages opened so far.
func (c *Cursor) Pages() int { return c.pages }

// SetFontSize changes the font size for subsequent lines and measurements.
func (c *Cursor) SetFontSize(size float64) {
	c.s.SetFontSize(size)
}

// EmitLine places text on a single line and moves down by advance. If the
// cursor is below the bottom threshold, a new page is started first.
func (c *Cursor) EmitLine(text string, advance float64) {
	if c.y > c.cfg.BottomThreshold {
		c.newPage()
	}
	c.s.Text(c.cfg.LeftMargin, c.y, text)
	c.y += advance
}

// EmitWrappedBlock wraps text to the content width and emits each resulting
// line with the body line height.
func (c *Cursor) EmitWrappedBlock(text string) {
	for _, line := range Wrap(text, c.cfg.ContentWidth, c.s.StringWidth) {
		c.EmitLine(line, c.cfg.LineHeight)
	}
}

// ForcePageBreak starts a new page regardless of the current position.
func (c *Cursor) ForcePageBreak() {
	c.newPage()
}

// Advance moves the cursor down by dy without emitting anything.
func (c *Cursor) Advance(dy float64) {
	c.y += dy
}

func (c *Cursor) newPage() {
	c.s.AddPage()
	c.pages++
	c.y = c.cfg.TopMargin
}
