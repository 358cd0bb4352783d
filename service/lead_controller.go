package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"roi-widget/domain"
	"roi-widget/metrics"
	"roi-widget/widget"
)

const (
	FailureValidation = "validation"
	FailureNetwork    = "network"
	FailureRejected   = "rejected"
)

// LeadControllerConfig is shared by every controller built for a deployment.
type LeadControllerConfig struct {
	Schema        *FieldSchema
	Delivery      LeadDelivery
	Timeout       time.Duration
	FallbackEmail string
	Page          domain.PageContext
	Logger        *zap.Logger
	Metrics       metrics.Recorder
}

// Outcome describes how one submit event ended.
type Outcome struct {
	SubmissionID string
	// Ignored is set when the event arrived while another submission was
	// in flight. No other field is meaningful then.
	Ignored     bool
	Result      domain.SubmissionState
	FailureKind string
	Receipt     domain.Receipt
}

// LeadController drives one lead form. It owns the in-flight flag: set at
// the start of every submit event and cleared on every exit path.
type LeadController struct {
	formID string
	cfg    LeadControllerConfig

	mu       sync.Mutex
	state    domain.SubmissionState
	inFlight bool
	lastUsed time.Time
	now      func() time.Time
}

func NewLeadController(formID string, cfg LeadControllerConfig) *LeadController {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Nop{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultSubmitTimeout
	}
	if cfg.FallbackEmail == "" {
		cfg.FallbackEmail = DefaultFallbackEmail
	}
	return &LeadController{
		formID:   formID,
		cfg:      cfg,
		state:    domain.StateIdle,
		lastUsed: time.Now(),
		now:      time.Now,
	}
}

func (c *LeadController) State() domain.SubmissionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *LeadController) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// IdleSince reports when the controller last finished a submission, and
// false while one is in flight.
func (c *LeadController) IdleSince() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUsed, !c.inFlight
}

// Touch marks the controller as used at t.
func (c *LeadController) Touch(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.After(c.lastUsed) {
		c.lastUsed = t
	}
}

func (c *LeadController) begin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight {
		return false
	}
	c.inFlight = true
	c.state = domain.StateValidating
	return true
}

func (c *LeadController) transition(s domain.SubmissionState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *LeadController) finish() {
	c.mu.Lock()
	c.inFlight = false
	c.state = domain.StateIdle
	c.lastUsed = c.now()
	c.mu.Unlock()
}

// Submit runs one submit event against form: validate, deliver once,
// render the status. Errors never escape; they end up as status text.
func (c *LeadController) Submit(ctx context.Context, form *widget.LeadForm) Outcome {
	if !c.begin() {
		c.cfg.Metrics.IncIgnored()
		c.cfg.Logger.Debug("submit ignored, submission in flight", zap.String("form_id", c.formID))
		return Outcome{Ignored: true}
	}
	defer c.finish()

	start := c.now()
	out := Outcome{SubmissionID: uuid.NewString()}
	log := c.cfg.Logger.With(zap.String("form_id", c.formID), zap.String("submission_id", out.SubmissionID))
	status := form.EnsureStatus()

	lead := form.Snapshot()
	if err := c.cfg.Schema.Validate(lead); err != nil {
		var verr *domain.ValidationError
		msg := msgIdentityFields
		if errors.As(err, &verr) && verr.Category == "business" {
			msg = msgBusinessFields
		}
		status.Render(msg, domain.ToneError)
		log.Debug("lead validation failed", zap.Error(err))
		out.Result = domain.StateFailed
		out.FailureKind = FailureValidation
		c.cfg.Metrics.ObserveSubmission(FailureValidation, c.now().Sub(start))
		return out
	}

	c.transition(domain.StateSubmitting)
	status.Render(msgSubmitting, domain.ToneInfo)

	if form.Estimate != nil && !needsValues(normalize(*form.Estimate)) {
		message := AppendSnapshot(lead.Get(domain.FieldMessage), Snapshot(*form.Estimate))
		lead.Values[domain.FieldMessage] = message
		form.Field(domain.FieldMessage).Set(message)
	}

	sub := c.cfg.Schema.Build(lead, c.page(form.Page))
	receipt, err := c.deliver(ctx, sub)
	if err != nil {
		out.Result = domain.StateFailed
		c.transition(domain.StateFailed)

		var rej *domain.RemoteRejection
		if errors.As(err, &rej) {
			out.FailureKind = FailureRejected
			status.Render(fmt.Sprintf(msgRemoteFailed, c.cfg.FallbackEmail), domain.ToneError)
			log.Warn("lead rejected by endpoint",
				zap.Int("status_code", rej.StatusCode),
				zap.String("body", rej.Body))
		} else {
			out.FailureKind = FailureNetwork
			status.Render(fmt.Sprintf(msgNetworkFailed, c.cfg.FallbackEmail), domain.ToneError)
			log.Warn("lead delivery failed", zap.Error(err))
		}
		c.cfg.Metrics.ObserveSubmission(out.FailureKind, c.now().Sub(start))
		return out
	}

	c.transition(domain.StateSuccess)
	out.Result = domain.StateSuccess
	out.Receipt = receipt
	if receipt.Channel == ChannelMailDraft {
		status.Render(msgMailDraft, domain.ToneSuccess)
	} else {
		status.Render(msgSuccess, domain.ToneSuccess)
	}
	form.Clear()
	log.Info("lead submitted",
		zap.String("channel", receipt.Channel),
		zap.Int("status_code", receipt.StatusCode))
	c.cfg.Metrics.ObserveSubmission("success", c.now().Sub(start))
	return out
}

type deliveryResult struct {
	receipt domain.Receipt
	err     error
}

// deliver makes the single outbound call under the submit deadline. A
// delivery that outlives the deadline is reported as a NetworkError.
func (c *LeadController) deliver(ctx context.Context, sub domain.FormSubmission) (domain.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	done := make(chan deliveryResult, 1)
	go func() {
		receipt, err := c.cfg.Delivery.SendLead(ctx, sub)
		done <- deliveryResult{receipt: receipt, err: err}
	}()

	select {
	case res := <-done:
		if res.err == nil {
			return res.receipt, nil
		}
		var rej *domain.RemoteRejection
		var nerr *domain.NetworkError
		if errors.As(res.err, &rej) || errors.As(res.err, &nerr) {
			return domain.Receipt{}, res.err
		}
		return domain.Receipt{}, &domain.NetworkError{Err: res.err}
	case <-ctx.Done():
		return domain.Receipt{}, &domain.NetworkError{Err: fmt.Errorf("submit deadline: %w", ctx.Err())}
	}
}

func (c *LeadController) page(p domain.PageContext) domain.PageContext {
	if p.PageURI == "" {
		p.PageURI = c.cfg.Page.PageURI
	}
	if p.PageName == "" {
		p.PageName = c.cfg.Page.PageName
	}
	return p
}
