package domain

// Canonical site field names. Remote names come from the field schema.
const (
	FieldFirstName = "firstName"
	FieldLastName  = "lastName"
	FieldEmail     = "email"
	FieldPhone     = "phone"
	FieldCompany   = "company"
	FieldLocations = "locations"
	FieldRTUs      = "rtus"
	FieldSpend     = "spend"
	FieldMessage   = "message"
)

// LeadFieldOrder is the order fields are read, validated and sent in.
var LeadFieldOrder = []string{
	FieldFirstName,
	FieldLastName,
	FieldEmail,
	FieldPhone,
	FieldCompany,
	FieldLocations,
	FieldRTUs,
	FieldSpend,
	FieldMessage,
}

// Lead is a snapshot of the form values taken at submit time.
type Lead struct {
	Values map[string]string
}

func (l Lead) Get(name string) string {
	if l.Values == nil {
		return ""
	}
	return l.Values[name]
}

// FieldValue is one entry of the outbound payload.
type FieldValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type PageContext struct {
	PageURI  string `json:"pageUri"`
	PageName string `json:"pageName"`
}

// FormSubmission is the body posted to the form-ingestion endpoint.
type FormSubmission struct {
	Fields  []FieldValue `json:"fields"`
	Context PageContext  `json:"context"`
}

// Value returns the value sent under the remote field name, if any.
func (s FormSubmission) Value(remoteName string) (string, bool) {
	for _, f := range s.Fields {
		if f.Name == remoteName {
			return f.Value, true
		}
	}
	return "", false
}

// Receipt describes how an accepted submission was delivered.
type Receipt struct {
	Channel    string
	StatusCode int
	MailtoURL  string
}

type SubmissionState int

const (
	StateIdle SubmissionState = iota
	StateValidating
	StateSubmitting
	StateSuccess
	StateFailed
)

func (s SubmissionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateSubmitting:
		return "submitting"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}
