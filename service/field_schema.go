package service

import (
	"fmt"

	"roi-widget/domain"
)

// DefaultFieldMap maps canonical site field names to the receiving form's
// property names. Names are sent verbatim; case matters on the remote side.
var DefaultFieldMap = map[string]string{
	domain.FieldFirstName: "firstname",
	domain.FieldLastName:  "lastname",
	domain.FieldEmail:     "email",
	domain.FieldPhone:     "phone",
	domain.FieldCompany:   "company",
	domain.FieldLocations: "number_of_locations",
	domain.FieldRTUs:      "number_of_rtus",
	domain.FieldSpend:     "annual_hvac_spend",
	domain.FieldMessage:   "message",
}

var (
	identityFields = []string{domain.FieldFirstName, domain.FieldLastName, domain.FieldEmail}
	businessFields = []string{domain.FieldCompany, domain.FieldLocations, domain.FieldRTUs, domain.FieldSpend}
)

// FieldSchema is the single mapping and validation rule set for a form.
type FieldSchema struct {
	remote map[string]string
	strict bool
}

// NewFieldSchema overlays overrides on DefaultFieldMap. Unknown site field
// names are rejected so a typo in configuration fails at startup.
func NewFieldSchema(overrides map[string]string, strict bool) (*FieldSchema, error) {
	remote := make(map[string]string, len(DefaultFieldMap))
	for k, v := range DefaultFieldMap {
		remote[k] = v
	}
	for site, name := range overrides {
		if _, ok := DefaultFieldMap[site]; !ok {
			return nil, fmt.Errorf("unknown site field %q in field map", site)
		}
		if name == "" {
			return nil, fmt.Errorf("empty remote name for site field %q", site)
		}
		remote[site] = name
	}
	return &FieldSchema{remote: remote, strict: strict}, nil
}

func (s *FieldSchema) RemoteName(site string) string {
	return s.remote[site]
}

func (s *FieldSchema) Strict() bool {
	return s.strict
}

func (s *FieldSchema) required() []string {
	if !s.strict {
		return identityFields
	}
	return append(append([]string{}, identityFields...), businessFields...)
}

func (s *FieldSchema) isRequired(site string) bool {
	for _, name := range s.required() {
		if name == site {
			return true
		}
	}
	return false
}

// Validate returns a *domain.ValidationError when a required field is empty.
// Identity fields are reported before business fields.
func (s *FieldSchema) Validate(lead domain.Lead) error {
	var missing []string
	for _, name := range identityFields {
		if lead.Get(name) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &domain.ValidationError{Category: "identity", Missing: missing}
	}
	if !s.strict {
		return nil
	}
	for _, name := range businessFields {
		if lead.Get(name) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &domain.ValidationError{Category: "business", Missing: missing}
	}
	return nil
}

// Build produces the outbound payload. Required fields are always sent;
// optional ones only when non-empty.
func (s *FieldSchema) Build(lead domain.Lead, page domain.PageContext) domain.FormSubmission {
	sub := domain.FormSubmission{
		Fields:  make([]domain.FieldValue, 0, len(domain.LeadFieldOrder)),
		Context: page,
	}
	for _, site := range domain.LeadFieldOrder {
		value := lead.Get(site)
		if value == "" && !s.isRequired(site) {
			continue
		}
		sub.Fields = append(sub.Fields, domain.FieldValue{Name: s.remote[site], Value: value})
	}
	return sub
}
