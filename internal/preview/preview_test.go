package preview

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/kuhu42/solar-back-sub001/pkg/domain"
)

func sampleQuote() domain.Quote {
	return domain.Quote{
		SourceID:          "p1",
		SourceKind:        domain.QuoteSourceProject,
		CustomerID:        "c1",
		CustomerName:      "Asha Rao",
		CustomerPhone:     "81234 56789",
		CustomerRefNumber: "CUST-001",
		Title:             "Rooftop 5kW",
		Location:          "Pune",
		Amount:            250000,
		Date:              time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestQuotationDocumentIncludesQuoteFields(t *testing.T) {
	doc, err := QuotationDocument(sampleQuote())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"Asha Rao", "Rooftop 5kW", "CUST-001", "INR 250,000.00", "01 May 2024", "Site: Pune", "Project: Rooftop 5kW"} {
		if !strings.Contains(doc.Body, want) {
			t.Fatalf("document missing %q:\n%s", want, doc.Body)
		}
	}
	if doc.Filename != "quotation-p1-20240501.txt" {
		t.Fatalf("unexpected filename %q", doc.Filename)
	}
	if doc.Title != "Quotation: Rooftop 5kW" {
		t.Fatalf("unexpected title %q", doc.Title)
	}
}

func TestQuotationDocumentForComplaintOmitsEmptyFields(t *testing.T) {
	q := sampleQuote()
	q.SourceKind = domain.QuoteSourceComplaint
	q.Location = ""
	q.CustomerRefNumber = ""
	doc, err := QuotationDocument(q)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(doc.Body, "Service request: Rooftop 5kW") {
		t.Fatalf("expected service request line:\n%s", doc.Body)
	}
	if strings.Contains(doc.Body, "Site:") || strings.Contains(doc.Body, "Reference:") {
		t.Fatalf("expected empty fields to be omitted:\n%s", doc.Body)
	}
}

func TestWhatsAppMessageNormalisesPhone(t *testing.T) {
	msg, err := WhatsAppMessage(sampleQuote(), "")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if msg.Phone != "+918123456789" {
		t.Fatalf("unexpected phone %q", msg.Phone)
	}
	if !strings.HasPrefix(msg.Link, "https://wa.me/918123456789?text=") {
		t.Fatalf("unexpected link %q", msg.Link)
	}
	parsed, err := url.Parse(msg.Link)
	if err != nil {
		t.Fatalf("parse link: %v", err)
	}
	if parsed.Query().Get("text") != msg.Body {
		t.Fatalf("link text does not round-trip the body")
	}
	if !strings.Contains(msg.Body, "Hello Asha Rao") || !strings.Contains(msg.Body, "INR 250,000.00") {
		t.Fatalf("unexpected body %q", msg.Body)
	}
}

func TestWhatsAppMessagePhoneOverride(t *testing.T) {
	msg, err := WhatsAppMessage(sampleQuote(), "+44 20 7031 3000")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if msg.Phone != "+442070313000" {
		t.Fatalf("unexpected phone %q", msg.Phone)
	}
}

func TestWhatsAppMessageRejectsInvalidPhone(t *testing.T) {
	q := sampleQuote()
	q.CustomerPhone = ""
	for _, phone := range []string{"", "12", "not a phone"} {
		if _, err := WhatsAppMessage(q, phone); !errors.Is(err, ErrInvalidPhone) {
			t.Fatalf("phone %q: expected ErrInvalidPhone, got %v", phone, err)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	cases := map[float64]string{
		0:         "INR 0.00",
		999.5:     "INR 999.50",
		1000:      "INR 1,000.00",
		1234567.8: "INR 1,234,567.80",
		-4500:     "-INR 4,500.00",
	}
	for in, want := range cases {
		if got := formatAmount(in); got != want {
			t.Fatalf("formatAmount(%v) = %q, want %q", in, got, want)
		}
	}
}
