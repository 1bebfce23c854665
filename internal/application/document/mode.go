package document

import (
	"strings"
	"time"
)

// Mode selects how a traite document is produced
type Mode string

const (
	// ModeTestImage renders the first tranche as a PNG, to check the renderer
	ModeTestImage Mode = "test-image"
	// ModePDFLetterhead prints every tranche to an A4 PDF through the browser
	ModePDFLetterhead Mode = "pdf-letterhead"
	// ModeFullPageScreenshot captures every tranche in one tall PNG
	ModeFullPageScreenshot Mode = "full-page-screenshot"
	// ModeCompositedPDF screenshots each tranche and wraps the images in a PDF
	ModeCompositedPDF Mode = "screenshot-composited-pdf"
)

// DefaultMode is used when the request names no mode
const DefaultMode = ModePDFLetterhead

// Modes returns every supported mode
func Modes() []Mode {
	return []Mode{ModeTestImage, ModePDFLetterhead, ModeFullPageScreenshot, ModeCompositedPDF}
}

// ParseMode reads a mode name; an empty name selects DefaultMode
func ParseMode(s string) (Mode, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultMode, true
	}
	for _, m := range Modes() {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

// IsImage reports whether the mode produces a PNG
func (m Mode) IsImage() bool {
	return m == ModeTestImage || m == ModeFullPageScreenshot
}

// Timeouts bound each renderer attempt
type Timeouts struct {
	PDF        time.Duration
	Screenshot time.Duration
	Composite  time.Duration
}

// DefaultTimeouts returns 90s for single renders and 180s for composition
func DefaultTimeouts() Timeouts {
	return Timeouts{
		PDF:        90 * time.Second,
		Screenshot: 90 * time.Second,
		Composite:  180 * time.Second,
	}
}

func (t Timeouts) withDefaults() Timeouts {
	d := DefaultTimeouts()
	if t.PDF <= 0 {
		t.PDF = d.PDF
	}
	if t.Screenshot <= 0 {
		t.Screenshot = d.Screenshot
	}
	if t.Composite <= 0 {
		t.Composite = d.Composite
	}
	return t
}

func (t Timeouts) forMode(m Mode) time.Duration {
	switch m {
	case ModeCompositedPDF:
		return t.Composite
	case ModePDFLetterhead:
		return t.PDF
	default:
		return t.Screenshot
	}
}
