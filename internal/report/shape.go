package report

import (
	"github.com/abdullahdiaa/garabic"
	"golang.org/x/text/unicode/bidi"
)

// Shaper prepares right-to-left text for a renderer without a shaping
// engine of its own: Arabic-script letters are reshaped into their
// contextual forms, then the bidi runs are rearranged into visual order.
// A nil Shaper passes text through untouched, the degraded mode used when
// shaping is unavailable.
type Shaper struct{}

func NewShaper() *Shaper {
	return &Shaper{}
}

// Shape returns the visual form of text. Any failure falls back to the
// raw string rather than propagating an error; a wrong-looking report
// beats no report.
func (s *Shaper) Shape(text string) string {
	if s == nil || text == "" {
		return text
	}

	shaped := garabic.Shape(text)

	var p bidi.Paragraph
	if _, err := p.SetString(shaped); err != nil {
		return text
	}
	ordering, err := p.Order()
	if err != nil {
		return text
	}

	var out []byte
	for i := 0; i < ordering.NumRuns(); i++ {
		run := ordering.Run(i)
		if run.Direction() == bidi.RightToLeft {
			out = append(out, bidi.ReverseString(run.String())...)
		} else {
			out = append(out, run.String()...)
		}
	}
	return string(out)
}
