package core

import (
	"context"

	"github.com/kuhu42/solar-back-sub001/pkg/domain"
)

// QuoteRequest projects a project or complaint into the data bag consumed by
// the previewers. It never mutates state. A zero amount on a project falls
// back to the project value.
func (s *Service) QuoteRequest(ctx context.Context, sourceID string, amount float64) (domain.Quote, error) {
	var quote domain.Quote
	err := s.observe(ctx, opQuoteRequest, func(ctx context.Context) error {
		if amount < 0 {
			return domain.Validationf(opQuoteRequest, domain.EntityProject, "amount must not be negative")
		}
		return s.store.View(ctx, func(view domain.TransactionView) error {
			q, err := buildQuote(view, sourceID, amount)
			if err != nil {
				return err
			}
			q.Date = s.clock.Now()
			quote = q
			return nil
		})
	})
	return quote, err
}

func buildQuote(view domain.TransactionView, sourceID string, amount float64) (domain.Quote, error) {
	var q domain.Quote
	if project, ok := view.FindProject(sourceID); ok {
		if amount == 0 {
			amount = project.Value
		}
		q = domain.Quote{
			SourceID:          project.ID,
			SourceKind:        domain.QuoteSourceProject,
			CustomerID:        project.CustomerID,
			CustomerRefNumber: project.CustomerRefNumber,
			Title:             project.Title,
			Location:          project.Location,
			Amount:            amount,
		}
	} else if complaint, ok := view.FindComplaint(sourceID); ok {
		q = domain.Quote{
			SourceID:          complaint.ID,
			SourceKind:        domain.QuoteSourceComplaint,
			CustomerID:        complaint.CustomerID,
			CustomerRefNumber: complaint.CustomerRefNumber,
			Title:             complaint.Title,
			Amount:            amount,
		}
	} else {
		return q, domain.NotFound(opQuoteRequest, domain.EntityProject, sourceID)
	}

	customer, ok := view.FindUser(q.CustomerID)
	if !ok || customer.Name == "" {
		return q, domain.NotFound(opQuoteRequest, domain.EntityUser, q.CustomerID)
	}
	q.CustomerName = customer.Name
	q.CustomerPhone = customer.Phone
	if q.CustomerRefNumber == "" {
		q.CustomerRefNumber = customer.CustomerRefNumber
	}
	return q, nil
}
