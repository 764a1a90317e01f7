package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tabibah/clinic-platform/internal/events"
	"github.com/tabibah/clinic-platform/pkg/logging"
)

var nowFunc = time.Now

// Service owns stock movements and the low-stock alerts they trigger.
type Service struct {
	repo   *Repository
	logger *logging.Logger
}

// NewService constructs an inventory service.
func NewService(repo *Repository, logger *logging.Logger) *Service {
	if repo == nil {
		panic("inventory: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Repo exposes the repository for read-only collaborators.
func (s *Service) Repo() *Repository {
	return s.repo
}

// Create registers a new item.
func (s *Service) Create(ctx context.Context, clinicID, name string, quantity, reorderLevel int) (*Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if quantity < 0 || reorderLevel < 0 {
		return nil, ErrBadQuantity
	}

	it := &Item{
		ID:           uuid.NewString(),
		ClinicID:     clinicID,
		Name:         name,
		Quantity:     quantity,
		ReorderLevel: reorderLevel,
	}
	if err := s.repo.Insert(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

// Consume decrements stock. The low-stock alert fires exactly when the
// decrement crosses the reorder level, not on every consume already under it.
func (s *Service) Consume(ctx context.Context, id string, amount int) (*Item, error) {
	return s.adjust(ctx, id, -amount)
}

// Restock increments stock.
func (s *Service) Restock(ctx context.Context, id string, amount int) (*Item, error) {
	return s.adjust(ctx, id, amount)
}

func (s *Service) adjust(ctx context.Context, id string, delta int) (*Item, error) {
	if delta == 0 {
		return nil, ErrBadQuantity
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	it, err := s.repo.GetByIDTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	oldQuantity := it.Quantity
	newQuantity := oldQuantity + delta
	if newQuantity < 0 {
		return nil, ErrInsufficientStock
	}

	if err := s.repo.SetQuantityTx(ctx, tx, id, newQuantity); err != nil {
		return nil, err
	}
	it.Quantity = newQuantity

	crossed := delta < 0 && oldQuantity > it.ReorderLevel && newQuantity <= it.ReorderLevel
	if crossed {
		evt := events.LowStockAlertV1{
			EventID:      uuid.NewString(),
			ClinicID:     it.ClinicID,
			ItemID:       it.ID,
			ItemName:     it.Name,
			Quantity:     newQuantity,
			ReorderLevel: it.ReorderLevel,
			OccurredAt:   nowFunc().UTC(),
		}
		if _, err := events.Append(ctx, tx, it.ClinicID, events.TypeLowStockAlert, evt); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if crossed {
		s.logger.Warn("low stock threshold crossed",
			"item_id", it.ID,
			"name", it.Name,
			"quantity", newQuantity,
			"reorder_level", it.ReorderLevel,
		)
	}
	return it, nil
}
