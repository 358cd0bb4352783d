package domain

import "math"

// RoiInput holds the three calculator inputs after parsing.
type RoiInput struct {
	AnnualSpend    float64
	SavingsPercent float64
	SystemCost     float64
}

// RoiResult is derived from a RoiInput and never edited on its own.
type RoiResult struct {
	AnnualSavings float64
	PaybackYears  float64 // +Inf when AnnualSavings <= 0
}

const (
	// MinAnnualSavings is the smallest saving that still shows as at least $1.
	MinAnnualSavings = 0.5
	// MaxPaybackYears bounds the payback figures that are shown.
	MaxPaybackYears = 1000.0
)

// HasSavings reports whether the savings are large enough to display.
func (r RoiResult) HasSavings() bool {
	return r.AnnualSavings >= MinAnnualSavings
}

// PaybackAvailable reports whether PaybackYears is a usable figure.
func (r RoiResult) PaybackAvailable() bool {
	return r.HasSavings() &&
		!math.IsNaN(r.PaybackYears) &&
		r.PaybackYears >= 0 &&
		r.PaybackYears <= MaxPaybackYears
}

// PaybackMonths returns the payback period in whole months, or -1 when
// no payback is available.
func (r RoiResult) PaybackMonths() int {
	if !r.PaybackAvailable() {
		return -1
	}
	return int(math.Round(r.PaybackYears * 12))
}

type Tone string

const (
	ToneInfo    Tone = "info"
	ToneSuccess Tone = "success"
	ToneError   Tone = "error"
)

// Estimate is a rendered calculator outcome.
type Estimate struct {
	Input     RoiInput
	Result    RoiResult
	Message   string
	Tone      Tone
	Available bool
}
