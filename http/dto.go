package http

import (
	"encoding/json"
	"errors"
	"math"

	"roi-widget/domain"
)

// fieldValue accepts a raw form value sent either as a JSON string or a
// JSON number. Objects, arrays and booleans are rejected.
type fieldValue string

var errFieldValue = errors.New("field value must be a string or a number")

func (v *fieldValue) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = fieldValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errFieldValue
	}
	*v = fieldValue(n)
	return nil
}

type roiRequest struct {
	AnnualSpend    fieldValue `json:"annualSpend"`
	SavingsPercent fieldValue `json:"savingsPercent"`
	SystemCost     fieldValue `json:"systemCost"`
	Message        string     `json:"message,omitempty"`
}

type estimateResponse struct {
	AnnualSavings float64  `json:"annualSavings"`
	PaybackYears  *float64 `json:"paybackYears"`
	PaybackMonths *int     `json:"paybackMonths"`
	Available     bool     `json:"available"`
	Message       string   `json:"message"`
	Tone          string   `json:"tone"`
}

func newEstimateResponse(est domain.Estimate) estimateResponse {
	resp := estimateResponse{
		AnnualSavings: math.Round(est.Result.AnnualSavings*100) / 100,
		Available:     est.Available,
		Message:       est.Message,
		Tone:          string(est.Tone),
	}
	if est.Result.PaybackAvailable() {
		years := math.Round(est.Result.PaybackYears*100) / 100
		months := est.Result.PaybackMonths()
		resp.PaybackYears = &years
		resp.PaybackMonths = &months
	}
	return resp
}

type copyResponse struct {
	Message  string           `json:"message"`
	Copied   bool             `json:"copied"`
	Estimate estimateResponse `json:"estimate"`
}

type leadRequest struct {
	FormID   string                `json:"formId"`
	Fields   map[string]fieldValue `json:"fields"`
	Roi      *roiRequest           `json:"roi,omitempty"`
	PageURI  string                `json:"pageUri,omitempty"`
	PageName string                `json:"pageName,omitempty"`
}

type statusView struct {
	Text string `json:"text"`
	Tone string `json:"tone"`
}

type leadResponse struct {
	SubmissionID string            `json:"submissionId,omitempty"`
	State        string            `json:"state"`
	Ignored      bool              `json:"ignored,omitempty"`
	Status       statusView        `json:"status"`
	Fields       map[string]string `json:"fields,omitempty"`
	MailtoURL    string            `json:"mailtoUrl,omitempty"`
}
