// Package preview renders quotation documents and WhatsApp message drafts
// from a domain.Quote. Nothing here stores or delivers anything.
package preview

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"text/template"
	"time"

	"github.com/nyaruka/phonenumbers"

	"github.com/kuhu42/solar-back-sub001/pkg/domain"
)

// DefaultRegion is used to parse phone numbers without a country prefix.
const DefaultRegion = "IN"

// ErrInvalidPhone reports a phone number that cannot be normalised to E.164.
var ErrInvalidPhone = errors.New("preview: invalid phone number")

// Document is a rendered plain-text quotation.
type Document struct {
	Title    string `json:"title"`
	Filename string `json:"filename"`
	Body     string `json:"body"`
}

// Message is a WhatsApp draft addressed to an E.164 number.
type Message struct {
	Phone string `json:"phone"`
	Body  string `json:"body"`
	Link  string `json:"link"`
}

var funcs = template.FuncMap{
	"money": formatAmount,
	"day":   func(t time.Time) string { return t.Format("02 Jan 2006") },
}

var documentTemplate = template.Must(template.New("quotation").Funcs(funcs).Option("missingkey=zero").Parse(
	`QUOTATION
Date: {{day .Date}}
{{- if .CustomerRefNumber}}
Reference: {{.CustomerRefNumber}}
{{- end}}

Customer: {{.CustomerName}}
{{- if .CustomerPhone}}
Phone: {{.CustomerPhone}}
{{- end}}

{{if eq .SourceKind "complaint"}}Service request{{else}}Project{{end}}: {{.Title}}
{{- if .Location}}
Site: {{.Location}}
{{- end}}

Amount: {{money .Amount}}

This quotation is valid for 30 days from the date above.
`))

var messageTemplate = template.Must(template.New("whatsapp").Funcs(funcs).Option("missingkey=zero").Parse(
	`Hello {{.CustomerName}}, your quotation for "{{.Title}}" is ready.
Amount: {{money .Amount}}
{{- if .CustomerRefNumber}}
Reference: {{.CustomerRefNumber}}
{{- end}}
Date: {{day .Date}}`))

// QuotationDocument renders q as a plain-text document.
func QuotationDocument(q domain.Quote) (Document, error) {
	var b strings.Builder
	if err := documentTemplate.Execute(&b, q); err != nil {
		return Document{}, fmt.Errorf("render quotation: %w", err)
	}
	title := "Quotation"
	if q.Title != "" {
		title = "Quotation: " + q.Title
	}
	return Document{
		Title:    title,
		Filename: fmt.Sprintf("quotation-%s-%s.txt", q.SourceID, q.Date.Format("20060102")),
		Body:     b.String(),
	}, nil
}

// WhatsAppMessage renders a message draft for q. phone overrides the
// customer's phone when set; either way it must normalise to E.164.
func WhatsAppMessage(q domain.Quote, phone string) (Message, error) {
	if strings.TrimSpace(phone) == "" {
		phone = q.CustomerPhone
	}
	e164, err := NormalizeE164(phone)
	if err != nil {
		return Message{}, err
	}
	var b strings.Builder
	if err := messageTemplate.Execute(&b, q); err != nil {
		return Message{}, fmt.Errorf("render whatsapp message: %w", err)
	}
	body := b.String()
	return Message{
		Phone: e164,
		Body:  body,
		Link:  "https://wa.me/" + strings.TrimPrefix(e164, "+") + "?text=" + url.QueryEscape(body),
	}, nil
}

// NormalizeE164 parses input in DefaultRegion and formats it as E.164.
func NormalizeE164(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidPhone)
	}
	number, err := phonenumbers.Parse(trimmed, DefaultRegion)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidPhone, trimmed, err)
	}
	if !phonenumbers.IsValidNumber(number) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, trimmed)
	}
	return phonenumbers.Format(number, phonenumbers.E164), nil
}

func formatAmount(amount float64) string {
	whole := fmt.Sprintf("%.2f", amount)
	intPart, frac, _ := strings.Cut(whole, ".")
	neg := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")
	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)
	out := "INR " + strings.Join(groups, ",") + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}
