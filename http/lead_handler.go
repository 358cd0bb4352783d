package http

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"roi-widget/domain"
	"roi-widget/service"
	"roi-widget/widget"
)

const maxFormIDLen = 128

type LeadHandler struct {
	registry *ControllerRegistry
	logger   *zap.Logger
}

func NewLeadHandler(registry *ControllerRegistry, logger *zap.Logger) *LeadHandler {
	return &LeadHandler{registry: registry, logger: logger}
}

func leadFormView(req leadRequest) *widget.LeadForm {
	values := make(map[string]string, len(req.Fields))
	for name, v := range req.Fields {
		values[name] = string(v)
	}
	form := widget.NewLeadForm(values)
	form.Page = domain.PageContext{PageURI: req.PageURI, PageName: req.PageName}
	if req.Roi != nil {
		in := service.ParseInput(string(req.Roi.AnnualSpend), string(req.Roi.SavingsPercent), string(req.Roi.SystemCost))
		form.Estimate = &in
	}
	return form
}

func submitStatusCode(out service.Outcome) int {
	switch {
	case out.Ignored:
		return http.StatusConflict
	case out.Result == domain.StateSuccess:
		return http.StatusOK
	case out.FailureKind == service.FailureValidation:
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadGateway
}

// Submit runs one submit event for the form identified by formId. Without
// a formId the client address keys the in-flight guard.
func (h *LeadHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if !requireJSONPost(w, r) {
		return
	}
	var req leadRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	formID := strings.TrimSpace(req.FormID)
	if len(formID) > maxFormIDLen {
		http.Error(w, "formId too long", http.StatusBadRequest)
		return
	}
	if formID == "" {
		formID = "client:" + clientAddr(r)
	}

	form := leadFormView(req)
	// A submission that reached the endpoint is seen through even if the
	// visitor navigates away; the controller's own deadline still applies.
	ctx := context.WithoutCancel(r.Context())
	out := h.registry.Get(formID).Submit(ctx, form)

	resp := leadResponse{
		SubmissionID: out.SubmissionID,
		State:        out.Result.String(),
		Ignored:      out.Ignored,
		MailtoURL:    out.Receipt.MailtoURL,
	}
	if out.Ignored {
		resp.State = domain.StateSubmitting.String()
		resp.Status = statusView{Text: "A submission is already in progress.", Tone: string(domain.ToneInfo)}
	} else {
		status := form.EnsureStatus()
		resp.Status = statusView{Text: status.Text, Tone: string(status.Tone)}
		resp.Fields = form.Values()
	}
	writeJSON(w, h.logger, submitStatusCode(out), resp)
}
