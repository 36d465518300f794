// Package inventory provides the application layer for the perishable inventory.
// It owns item ingestion, removal and read-time status computation.
package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rasoiops/rasoiops/internal/domain/inventory"
	"github.com/rasoiops/rasoiops/internal/domain/shared"
	"github.com/rasoiops/rasoiops/internal/infrastructure/security"
	"github.com/rasoiops/rasoiops/internal/ports/inbound"
	"github.com/rasoiops/rasoiops/internal/ports/outbound"
	"github.com/rasoiops/rasoiops/pkg/errors"
	"go.uber.org/zap"
)

// Settings are the freshness parameters in effect for a single operation
type Settings struct {
	DefaultShelfLife   time.Duration
	ExpiringSoonWindow time.Duration
}

// DefaultSettings returns a 7 day shelf life and a 72 hour warning window
func DefaultSettings() Settings {
	return Settings{
		DefaultShelfLife:   inventory.DefaultShelfLife,
		ExpiringSoonWindow: inventory.DefaultExpiringSoonWindow,
	}
}

// Metrics receives inventory telemetry
type Metrics interface {
	ItemAdded(source inventory.Source)
	ItemRemoved()
	SetInventory(byStatus map[inventory.Status]int)
}

type nopMetrics struct{}

func (nopMetrics) ItemAdded(inventory.Source)            {}
func (nopMetrics) ItemRemoved()                          {}
func (nopMetrics) SetInventory(map[inventory.Status]int) {}

// Service implements the inventory use cases
type Service struct {
	repo       outbound.ItemRepository
	validation *security.ValidationService
	events     shared.EventDispatcher
	metrics    Metrics
	clock      shared.Clock
	settings   func() Settings
	logger     *zap.Logger
}

var _ inbound.InventoryService = (*Service)(nil)

// NewService creates the inventory service. settings is read on every
// operation so reloaded configuration applies immediately; events and
// metrics may be nil.
func NewService(
	repo outbound.ItemRepository,
	validation *security.ValidationService,
	events shared.EventDispatcher,
	metrics Metrics,
	clock shared.Clock,
	settings func() Settings,
	logger *zap.Logger,
) *Service {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if clock == nil {
		clock = shared.SystemClock
	}
	if settings == nil {
		settings = DefaultSettings
	}
	return &Service{
		repo:       repo,
		validation: validation,
		events:     events,
		metrics:    metrics,
		clock:      clock,
		settings:   settings,
		logger:     logger.Named("inventory-service"),
	}
}

// Items returns the raw items, newest first
func (s *Service) Items(ctx context.Context) ([]inventory.Item, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.NewStorageError("list items", err)
	}
	return items, nil
}

// List returns every item newest first with its status computed now
func (s *Service) List(ctx context.Context) ([]inventory.View, error) {
	items, err := s.Items(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	window := s.settings().ExpiringSoonWindow
	views := make([]inventory.View, 0, len(items))
	for _, item := range items {
		views = append(views, item.ViewAt(now, window))
	}
	return views, nil
}

// Summary counts items by status and by category
func (s *Service) Summary(ctx context.Context) (*inbound.InventorySummary, error) {
	views, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return Summarize(views, s.clock()), nil
}

// Summarize aggregates already computed views. Every status and category is
// present in the result, with zero counts where nothing matches.
func Summarize(views []inventory.View, asOf time.Time) *inbound.InventorySummary {
	summary := &inbound.InventorySummary{
		Total:      len(views),
		ByStatus:   map[inventory.Status]int{},
		ByCategory: map[inventory.Category]int{},
		AsOf:       asOf,
	}
	for _, st := range []inventory.Status{inventory.StatusFresh, inventory.StatusExpiringSoon, inventory.StatusExpired} {
		summary.ByStatus[st] = 0
	}
	for _, c := range inventory.Categories() {
		summary.ByCategory[c] = 0
	}
	for _, v := range views {
		summary.ByStatus[v.Status]++
		summary.ByCategory[v.Category]++
	}
	return summary
}

// AddManual validates and prepends a hand-entered item. The expiry date may
// lie in the past; such items are simply reported as expired.
func (s *Service) AddManual(ctx context.Context, cmd inbound.AddItemCommand) (*inventory.View, error) {
	if err := s.validation.ValidateStruct(cmd); err != nil {
		return nil, err
	}

	now := s.clock()
	item, err := inventory.NewItem(
		s.validation.SanitizeText(cmd.Name, inventory.MaxNameLength),
		cmd.Category,
		s.validation.SanitizeText(cmd.Quantity, inventory.MaxQuantityLength),
		now,
		cmd.ExpiryDate,
		inventory.SourceManual,
	)
	if err != nil {
		return nil, errors.NewValidationError(err.Error()).WithCause(err)
	}

	if err := s.prepend(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info("Item added",
		zap.String("item_id", item.ID.String()),
		zap.String("name", item.Name),
		zap.String("category", string(item.Category)))

	view := item.ViewAt(now, s.settings().ExpiringSoonWindow)
	return &view, nil
}

// IngestDetected turns detected items into full records expiring after the
// default shelf life and prepends them as one batch, keeping batch order.
func (s *Service) IngestDetected(ctx context.Context, detected []inbound.DetectedItem) ([]inventory.View, error) {
	if len(detected) == 0 {
		return []inventory.View{}, nil
	}

	now := s.clock()
	cfg := s.settings()
	items := make([]inventory.Item, 0, len(detected))
	for _, d := range detected {
		item, err := inventory.NewItem(
			s.validation.SanitizeText(d.Name, inventory.MaxNameLength),
			d.Category,
			s.validation.SanitizeText(d.Quantity, inventory.MaxQuantityLength),
			now,
			now.Add(cfg.DefaultShelfLife),
			inventory.SourceVision,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to build detected item")
		}
		items = append(items, item)
	}

	if err := s.prepend(ctx, items...); err != nil {
		return nil, err
	}

	s.logger.Info("Detected items ingested", zap.Int("count", len(items)))

	views := make([]inventory.View, 0, len(items))
	for _, item := range items {
		views = append(views, item.ViewAt(now, cfg.ExpiringSoonWindow))
	}
	return views, nil
}

// Seed prepends the demo items when the inventory is empty
func (s *Service) Seed(ctx context.Context) (int, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return 0, errors.NewStorageError("count items", err)
	}
	if count > 0 {
		s.logger.Debug("Inventory already populated, skipping seed", zap.Int("count", count))
		return 0, nil
	}

	items := inventory.DemoItems(s.clock())
	if err := s.prepend(ctx, items...); err != nil {
		return 0, err
	}
	s.logger.Info("Seeded demo inventory", zap.Int("count", len(items)))
	return len(items), nil
}

// Delete removes the item with id. An unknown id is not an error and
// reports false.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	removed, err := s.findAndDelete(ctx, id)
	if err != nil {
		return false, err
	}
	if removed == nil {
		s.logger.Debug("Delete of unknown item ignored", zap.String("item_id", id.String()))
		return false, nil
	}

	s.metrics.ItemRemoved()
	s.publish(inventory.ItemRemovedEvent{
		ItemID:    removed.ID,
		Name:      removed.Name,
		Category:  removed.Category,
		RemovedAt: s.clock(),
	})
	s.refreshGauges(ctx)

	s.logger.Info("Item removed", zap.String("item_id", id.String()), zap.String("name", removed.Name))
	return true, nil
}

func (s *Service) findAndDelete(ctx context.Context, id uuid.UUID) (*inventory.Item, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.NewStorageError("list items", err)
	}
	var target *inventory.Item
	for i := range items {
		if items[i].ID == id {
			target = &items[i]
			break
		}
	}

	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, errors.NewStorageError("delete item", err)
	}
	if !ok {
		return nil, nil
	}
	if target == nil {
		// Added concurrently between List and Delete
		target = &inventory.Item{ID: id}
	}
	return target, nil
}

func (s *Service) prepend(ctx context.Context, items ...inventory.Item) error {
	if err := s.repo.Prepend(ctx, items...); err != nil {
		return errors.NewStorageError("store items", err)
	}
	for _, item := range items {
		s.metrics.ItemAdded(item.Source)
		s.publish(inventory.ItemAddedEvent{Item: item, AddedAt: item.AddedAt})
	}
	s.refreshGauges(ctx)
	return nil
}

func (s *Service) publish(event shared.DomainEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Dispatch(event); err != nil {
		s.logger.Error("Failed to publish event",
			zap.String("event", event.EventName()),
			zap.Error(err))
	}
}

func (s *Service) refreshGauges(ctx context.Context) {
	views, err := s.List(ctx)
	if err != nil {
		s.logger.Warn("Could not refresh inventory gauges", zap.Error(err))
		return
	}
	s.metrics.SetInventory(Summarize(views, s.clock()).ByStatus)
}
