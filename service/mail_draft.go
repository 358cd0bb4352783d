package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"roi-widget/domain"
)

const ChannelMailDraft = "mail_draft"

// MailDraft delivers a lead as a mailto: link for the visitor's own mail
// client. It is used when no CRM form is configured.
type MailDraft struct {
	To      string
	Subject string
}

func NewMailDraft(to string) *MailDraft {
	return &MailDraft{To: to, Subject: "ROI estimate request"}
}

func (m *MailDraft) SendLead(_ context.Context, sub domain.FormSubmission) (domain.Receipt, error) {
	if strings.TrimSpace(m.To) == "" {
		return domain.Receipt{}, errors.New("mail draft recipient is not set")
	}

	var body strings.Builder
	for _, f := range sub.Fields {
		if f.Value == "" {
			continue
		}
		body.WriteString(f.Name + ": " + f.Value + "\n")
	}
	if sub.Context.PageURI != "" {
		body.WriteString("\nSent from " + sub.Context.PageURI + "\n")
	}

	link := "mailto:" + m.To +
		"?subject=" + mailtoEscape(m.Subject) +
		"&body=" + mailtoEscape(body.String())
	return domain.Receipt{Channel: ChannelMailDraft, MailtoURL: link}, nil
}

func mailtoEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
