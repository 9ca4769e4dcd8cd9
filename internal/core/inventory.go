package core

import (
	"context"

	"github.com/kuhu42/solar-back-sub001/pkg/domain"
)

// SerialResolution splits a serial list into items that resolved and serials
// with no inventory record. Missing serials are not an error.
type SerialResolution struct {
	Found   []domain.InventoryItem `json:"found"`
	Missing []string               `json:"missing"`
}

// InventoryBySerial resolves one serial-number reference.
func (s *Service) InventoryBySerial(ctx context.Context, serial string) (domain.InventoryItem, error) {
	var item domain.InventoryItem
	err := s.observe(ctx, "inventory_by_serial", func(ctx context.Context) error {
		return s.store.View(ctx, func(view domain.TransactionView) error {
			found, ok := view.FindInventoryBySerial(serial)
			if !ok {
				return domain.NotFound("inventory_by_serial", domain.EntityInventoryItem, serial)
			}
			item = found
			return nil
		})
	})
	return item, err
}

// ResolveSerials looks up every serial in order, used to show the equipment
// behind a project's or task's serial list.
func (s *Service) ResolveSerials(ctx context.Context, serials []string) (SerialResolution, error) {
	out := SerialResolution{Found: []domain.InventoryItem{}, Missing: []string{}}
	err := s.observe(ctx, "resolve_serials", func(ctx context.Context) error {
		return s.store.View(ctx, func(view domain.TransactionView) error {
			for _, serial := range serials {
				if item, ok := view.FindInventoryBySerial(serial); ok {
					out.Found = append(out.Found, item)
					continue
				}
				out.Missing = append(out.Missing, serial)
			}
			return nil
		})
	})
	return out, err
}
