// Package pdf implements layout.Surface on top of gofpdf.
package pdf

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/Strob0t/pmreport/internal/layout"
)

const fontFamily = "Helvetica"

// Surface draws report lines into an in-memory PDF document. Pages are
// managed by the caller, so automatic page breaks are disabled.
type Surface struct {
	pdf       *gofpdf.Fpdf
	translate func(string) string
}

// NewSurface returns an empty document sized by cfg (millimetres).
func NewSurface(cfg layout.Config) *Surface {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr:        "mm",
		OrientationStr: "P",
		Size:           gofpdf.SizeType{Wd: cfg.PageWidth, Ht: cfg.PageHeight},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont(fontFamily, "", cfg.BodyFontSize)
	return &Surface{
		pdf:       pdf,
		translate: pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

func (s *Surface) AddPage() { s.pdf.AddPage() }

func (s *Surface) SetFontSize(size float64) { s.pdf.SetFontSize(size) }

func (s *Surface) Text(x, y float64, text string) {
	s.pdf.Text(x, y, s.translate(text))
}

func (s *Surface) StringWidth(text string) float64 {
	return s.pdf.GetStringWidth(s.translate(text))
}

// PageCount returns the number of pages added so far.
func (s *Surface) PageCount() int { return s.pdf.PageCount() }

// Bytes finalizes the document and returns its encoded form. The surface
// must not be drawn on afterwards.
func (s *Surface) Bytes() ([]byte, error) {
	if err := s.pdf.Error(); err != nil {
		return nil, fmt.Errorf("build pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := s.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

var _ layout.Surface = (*Surface)(nil)
