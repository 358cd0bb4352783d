// Package widget is the view model the calculator and lead controller
// render into. Views are constructed once and passed in; nothing looks up
// elements by name at call sites.
package widget

import (
	"strings"

	"roi-widget/domain"
)

// Field is a single named input. A nil *Field behaves like an absent
// element: it reads as "" and ignores writes.
type Field struct {
	Name  string
	Value string
}

func NewField(name, value string) *Field {
	return &Field{Name: name, Value: value}
}

func (f *Field) Read() string {
	if f == nil {
		return ""
	}
	return f.Value
}

func (f *Field) Trimmed() string {
	return strings.TrimSpace(f.Read())
}

func (f *Field) Set(v string) {
	if f == nil {
		return
	}
	f.Value = v
}

// TextNode is a plain-text output region. Text is never interpreted as markup.
type TextNode struct {
	Text string
	Tone domain.Tone
}

func (n *TextNode) Render(text string, tone domain.Tone) {
	n.Text = text
	n.Tone = tone
}

// Calculator is the ROI calculator view.
type Calculator struct {
	AnnualSpend    *Field
	SavingsPercent *Field
	SystemCost     *Field
	Result         *TextNode
	// Message is the lead form's free-text field the copy action writes into.
	Message *Field
}

// EnsureResult returns the result node, creating it if absent.
func (c *Calculator) EnsureResult() *TextNode {
	if c.Result == nil {
		c.Result = &TextNode{}
	}
	return c.Result
}

// LeadForm is the lead capture view.
type LeadForm struct {
	Fields map[string]*Field
	Status *TextNode
	// Estimate, when set, is appended to the message as an ROI snapshot.
	Estimate *domain.RoiInput
	// Page identifies the host page; empty values fall back to the
	// controller's defaults.
	Page domain.PageContext
}

// NewLeadForm builds a form with one field per canonical name, taking
// values from the given map.
func NewLeadForm(values map[string]string) *LeadForm {
	form := &LeadForm{Fields: make(map[string]*Field, len(domain.LeadFieldOrder))}
	for _, name := range domain.LeadFieldOrder {
		form.Fields[name] = NewField(name, values[name])
	}
	return form
}

func (f *LeadForm) Field(name string) *Field {
	if f.Fields == nil {
		return nil
	}
	return f.Fields[name]
}

// EnsureStatus returns the status node, creating it if absent.
func (f *LeadForm) EnsureStatus() *TextNode {
	if f.Status == nil {
		f.Status = &TextNode{}
	}
	return f.Status
}

// Snapshot reads every canonical field, trimmed.
func (f *LeadForm) Snapshot() domain.Lead {
	values := make(map[string]string, len(domain.LeadFieldOrder))
	for _, name := range domain.LeadFieldOrder {
		values[name] = f.Field(name).Trimmed()
	}
	return domain.Lead{Values: values}
}

// Values returns the raw field values, including fields not in the
// canonical set.
func (f *LeadForm) Values() map[string]string {
	out := make(map[string]string, len(f.Fields))
	for name, field := range f.Fields {
		out[name] = field.Read()
	}
	return out
}

// Clear empties every field and drops the pending estimate.
func (f *LeadForm) Clear() {
	for _, field := range f.Fields {
		field.Set("")
	}
	f.Estimate = nil
}
