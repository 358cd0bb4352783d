package service

import "time"

const (
	// Savings above 100% would claim savings larger than the spend itself.
	MaxSavingsPercent = 100.0
	MinSavingsPercent = 0.0

	DefaultSubmitTimeout = 12 * time.Second
	MaxSubmitTimeout     = 60 * time.Second

	DefaultEstimateTTL = 10 * time.Minute

	SnapshotMarker = "--- ROI Estimate ---"

	DefaultFallbackEmail = "sales@example.com"
)

const (
	msgEnterValues     = "Enter your annual spend and system cost to see your estimate."
	msgSavingsMustBeOK = "Estimated savings must exceed $0 to calculate a payback period."
	msgPaybackTooLong  = "Estimated payback is longer than 1,000 years."

	msgSubmitting     = "Submitting…"
	msgSuccess        = "Thanks! Your request was received. We'll be in touch shortly."
	msgMailDraft      = "Your email app should open with your request. Send it to finish."
	msgIdentityFields = "Please enter your first name, last name, and email."
	msgBusinessFields = "Please complete all required business details: company, number of locations, number of RTUs, and annual spend."
	msgNetworkFailed  = "We couldn't reach our server. Please try again or email us at %s."
	msgRemoteFailed   = "We couldn't sync your request. Please try again or email us at %s."
)
