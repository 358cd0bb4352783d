package http

import (
	"net/http"

	"go.uber.org/zap"

	"roi-widget/service"
	"roi-widget/widget"
)

type RoiHandler struct {
	service *service.RoiService
	logger  *zap.Logger
}

func NewRoiHandler(service *service.RoiService, logger *zap.Logger) *RoiHandler {
	return &RoiHandler{service: service, logger: logger}
}

func calculatorView(req roiRequest) *widget.Calculator {
	return &widget.Calculator{
		AnnualSpend:    widget.NewField("annualSpend", string(req.AnnualSpend)),
		SavingsPercent: widget.NewField("savingsPercent", string(req.SavingsPercent)),
		SystemCost:     widget.NewField("systemCost", string(req.SystemCost)),
		Message:        widget.NewField("message", req.Message),
	}
}

// Estimate re-renders the calculator for the current input values.
func (h *RoiHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	if !requireJSONPost(w, r) {
		return
	}
	var req roiRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	est := h.service.Apply(r.Context(), calculatorView(req))
	writeJSON(w, h.logger, http.StatusOK, newEstimateResponse(est))
}

// Copy appends the current estimate to the supplied lead message.
func (h *RoiHandler) Copy(w http.ResponseWriter, r *http.Request) {
	if !requireJSONPost(w, r) {
		return
	}
	var req roiRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	calc := calculatorView(req)
	est, copied := h.service.CopyEstimate(r.Context(), calc)

	writeJSON(w, h.logger, http.StatusOK, copyResponse{
		Message:  calc.Message.Read(),
		Copied:   copied,
		Estimate: newEstimateResponse(est),
	})
}
