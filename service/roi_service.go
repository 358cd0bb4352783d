package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"roi-widget/domain"
	"roi-widget/metrics"
	"roi-widget/repository"
	"roi-widget/widget"
)

// RoiService renders ROI estimates into a calculator view. The math is
// pure; the service only adds memoization and instrumentation.
type RoiService struct {
	cache   repository.CacheRepository
	ttl     time.Duration
	logger  *zap.Logger
	metrics metrics.Recorder
}

// NewRoiService creates a RoiService. cache may be nil.
func NewRoiService(
	cache repository.CacheRepository,
	ttl time.Duration,
	logger *zap.Logger,
	rec metrics.Recorder,
) *RoiService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &RoiService{cache: cache, ttl: ttl, logger: logger, metrics: rec}
}

// ParseNumber reads a raw field value. Currency and grouping symbols are
// ignored; anything missing, non-numeric, non-finite or negative reads as 0.
func ParseNumber(raw string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '$', ',', '%', ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, raw)
	if cleaned == "" {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func ParseInput(spend, percent, cost string) domain.RoiInput {
	return domain.RoiInput{
		AnnualSpend:    ParseNumber(spend),
		SavingsPercent: ParseNumber(percent),
		SystemCost:     ParseNumber(cost),
	}
}

// ClampPercent bounds a savings percentage to [MinSavingsPercent, MaxSavingsPercent].
func ClampPercent(p float64) float64 {
	if math.IsNaN(p) || p < MinSavingsPercent {
		return MinSavingsPercent
	}
	if p > MaxSavingsPercent {
		return MaxSavingsPercent
	}
	return p
}

func normalize(in domain.RoiInput) domain.RoiInput {
	return domain.RoiInput{
		AnnualSpend:    math.Max(0, in.AnnualSpend),
		SavingsPercent: ClampPercent(in.SavingsPercent),
		SystemCost:     math.Max(0, in.SystemCost),
	}
}

// Calculate derives annual savings and payback.
func Calculate(in domain.RoiInput) domain.RoiResult {
	in = normalize(in)
	savings := in.AnnualSpend * (in.SavingsPercent / 100)
	payback := math.Inf(1)
	if savings > 0 {
		payback = in.SystemCost / savings
	}
	return domain.RoiResult{AnnualSavings: savings, PaybackYears: payback}
}

func needsValues(in domain.RoiInput) bool {
	return in.AnnualSpend <= 0 || in.SystemCost <= 0
}

// Render applies the display policy: prompt for missing spend or cost,
// refuse a payback figure without savings, otherwise summarize.
func Render(in domain.RoiInput) domain.Estimate {
	in = normalize(in)
	result := Calculate(in)
	est := domain.Estimate{Input: in, Result: result}

	switch {
	case needsValues(in):
		est.Message = msgEnterValues
		est.Tone = domain.ToneInfo
	case !result.HasSavings():
		est.Message = msgSavingsMustBeOK
		est.Tone = domain.ToneError
	case !result.PaybackAvailable():
		est.Message = msgPaybackTooLong
		est.Tone = domain.ToneError
	default:
		est.Message = fmt.Sprintf("Estimated annual savings: %s. Estimated payback: %s.",
			formatCurrency(result.AnnualSavings), formatPayback(result))
		est.Tone = domain.ToneSuccess
		est.Available = true
	}
	return est
}

func estimateOutcome(est domain.Estimate) string {
	switch {
	case est.Available:
		return "available"
	case est.Tone == domain.ToneInfo:
		return "prompt"
	case est.Message == msgPaybackTooLong:
		return "payback_too_long"
	}
	return "no_savings"
}

func formatCurrency(v float64) string {
	return "$" + humanize.Commaf(math.Round(v))
}

func formatPayback(r domain.RoiResult) string {
	if !r.PaybackAvailable() {
		return "unavailable"
	}
	months := r.PaybackMonths()
	unit := "months"
	if months == 1 {
		unit = "month"
	}
	return fmt.Sprintf("%s years (%d %s)", strconv.FormatFloat(r.PaybackYears, 'f', 1, 64), months, unit)
}

// Snapshot serializes an estimate into the block appended to lead messages.
// The savings percent is recorded as entered, with the capped value when
// the two differ.
func Snapshot(raw domain.RoiInput) string {
	in := normalize(raw)
	result := Calculate(in)

	savings := formatPercent(in.SavingsPercent)
	if raw.SavingsPercent != in.SavingsPercent && !math.IsNaN(raw.SavingsPercent) {
		savings = fmt.Sprintf("%s (capped at %s)", formatPercent(raw.SavingsPercent), savings)
	}

	var b strings.Builder
	b.WriteString(SnapshotMarker + "\n")
	fmt.Fprintf(&b, "Annual spend: %s\n", formatCurrency(in.AnnualSpend))
	fmt.Fprintf(&b, "Savings: %s\n", savings)
	fmt.Fprintf(&b, "System cost: %s\n", formatCurrency(in.SystemCost))
	fmt.Fprintf(&b, "Estimated annual savings: %s\n", formatCurrency(result.AnnualSavings))
	fmt.Fprintf(&b, "Estimated payback: %s", formatPayback(result))
	return b.String()
}

func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64) + "%"
}

// AppendSnapshot adds snapshot to message once, after any text already there.
func AppendSnapshot(message, snapshot string) string {
	if strings.Contains(message, SnapshotMarker) {
		return message
	}
	trimmed := strings.TrimRight(message, " \t\r\n")
	if trimmed == "" {
		return snapshot
	}
	return trimmed + "\n\n" + snapshot
}

func cacheKey(in domain.RoiInput) string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return "estimate:" + f(in.AnnualSpend) + ":" + f(in.SavingsPercent) + ":" + f(in.SystemCost)
}

// Estimate renders in, reusing a cached rendering when one exists.
func (s *RoiService) Estimate(ctx context.Context, in domain.RoiInput) domain.Estimate {
	in = normalize(in)
	key := cacheKey(in)

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("estimate cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			if est, decoded := decodeEstimate(in, cached); decoded {
				s.metrics.ObserveEstimate(estimateOutcome(est), true)
				return est
			}
		}
	}

	est := Render(in)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, encodeEstimate(est), s.ttl); err != nil {
			s.logger.Warn("estimate cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	s.metrics.ObserveEstimate(estimateOutcome(est), false)
	return est
}

const cacheSep = "\x1f"

func encodeEstimate(est domain.Estimate) string {
	return string(est.Tone) + cacheSep + est.Message
}

func decodeEstimate(in domain.RoiInput, raw string) (domain.Estimate, bool) {
	tone, msg, ok := strings.Cut(raw, cacheSep)
	if !ok || msg == "" {
		return domain.Estimate{}, false
	}
	return domain.Estimate{
		Input:     in,
		Result:    Calculate(in),
		Message:   msg,
		Tone:      domain.Tone(tone),
		Available: domain.Tone(tone) == domain.ToneSuccess,
	}, true
}

// Apply reads the calculator inputs and renders into its result node.
// It runs on every input change and on the explicit calculate action.
func (s *RoiService) Apply(ctx context.Context, calc *widget.Calculator) domain.Estimate {
	in := ParseInput(calc.AnnualSpend.Read(), calc.SavingsPercent.Read(), calc.SystemCost.Read())
	est := s.Estimate(ctx, in)
	calc.EnsureResult().Render(est.Message, est.Tone)
	return est
}

// CopyEstimate renders the calculator and appends the estimate to its
// message field. It reports whether the message changed.
func (s *RoiService) CopyEstimate(ctx context.Context, calc *widget.Calculator) (domain.Estimate, bool) {
	est := s.Apply(ctx, calc)
	if needsValues(est.Input) || calc.Message == nil {
		return est, false
	}
	raw := ParseInput(calc.AnnualSpend.Read(), calc.SavingsPercent.Read(), calc.SystemCost.Read())
	before := calc.Message.Read()
	after := AppendSnapshot(before, Snapshot(raw))
	calc.Message.Set(after)
	return est, after != before
}
