package domain

import "time"

// QuoteSourceKind identifies which entity a quotation was requested from.
type QuoteSourceKind string

// Quote sources.
const (
	QuoteSourceProject   QuoteSourceKind = "project"
	QuoteSourceComplaint QuoteSourceKind = "complaint"
)

// Quote is the read-only data bag handed to document and message previewers.
type Quote struct {
	SourceID          string          `json:"source_id"`
	SourceKind        QuoteSourceKind `json:"source_kind"`
	CustomerID        string          `json:"customer_id"`
	CustomerName      string          `json:"customer_name"`
	CustomerPhone     string          `json:"customer_phone,omitempty"`
	CustomerRefNumber string          `json:"customer_ref_number,omitempty"`
	Title             string          `json:"title"`
	Location          string          `json:"location,omitempty"`
	Amount            float64         `json:"amount"`
	Date              time.Time       `json:"date"`
}
