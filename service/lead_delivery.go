package service

import (
	"context"

	"roi-widget/domain"
)

// LeadDelivery is the outbound channel a submission is handed to.
// Implementations return *domain.NetworkError or *domain.RemoteRejection
// on failure.
type LeadDelivery interface {
	SendLead(ctx context.Context, sub domain.FormSubmission) (domain.Receipt, error)
}
