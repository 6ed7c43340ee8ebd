package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/Pondcod/cafe-kiosk-sub000/internal/entity"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/messaging"
	"github.com/Pondcod/cafe-kiosk-sub000/internal/repository"
)

const lookupConcurrency = 8

// LineOutcome is what reconciliation did with one order line.
type LineOutcome string

const (
	LineAdjusted LineOutcome = "adjusted"
	LineSkipped  LineOutcome = "skipped"
	LineFailed   LineOutcome = "failed"
)

// LineReconciliation reports one order line.
type LineReconciliation struct {
	Line            int              `json:"line"`
	ProductID       string           `json:"product_id"`
	InventoryItemID string           `json:"inventory_item_id,omitempty"`
	Outcome         LineOutcome      `json:"outcome"`
	QuantityChange  *decimal.Decimal `json:"quantity_change,omitempty"`
	Remaining       *decimal.Decimal `json:"remaining,omitempty"`
	TransactionID   string           `json:"transaction_id,omitempty"`
	Error           string           `json:"error,omitempty"`
}

// ReconciliationReport is the outcome of decrementing stock for one order.
// A failed line never undoes the lines before it.
type ReconciliationReport struct {
	OrderID            string               `json:"order_id"`
	Lines              []LineReconciliation `json:"lines"`
	LowStockItems      []string             `json:"low_stock_items,omitempty"`
	NotificationErrors []string             `json:"notification_errors,omitempty"`
}

// Failed counts the lines that could not be applied.
func (r ReconciliationReport) Failed() int {
	n := 0
	for _, l := range r.Lines {
		if l.Outcome == LineFailed {
			n++
		}
	}
	return n
}

// InventoryService reconciles stock with completed orders and serves the
// back-office stock operations.
type InventoryService struct {
	repo          repository.InventoryRepository
	notifications *NotificationService
	publisher     messaging.Publisher
}

func NewInventoryService(repo repository.InventoryRepository, notifications *NotificationService, publisher messaging.Publisher) *InventoryService {
	return &InventoryService{repo: repo, notifications: notifications, publisher: publisher}
}

// Reconcile decrements stock for every line of a completed order. Lookups run
// in parallel; adjustments run in line order. Each low-stock item is notified
// once per pass, with its quantity after the last line touching it.
func (s *InventoryService) Reconcile(ctx context.Context, order *entity.Order) ReconciliationReport {
	report := ReconciliationReport{OrderID: order.ID, Lines: make([]LineReconciliation, len(order.Lines))}

	items := make([]*entity.InventoryItem, len(order.Lines))
	lookupErrs := make([]error, len(order.Lines))

	var g errgroup.Group
	g.SetLimit(lookupConcurrency)
	for i, line := range order.Lines {
		i, line := i, line
		g.Go(func() error {
			items[i], lookupErrs[i] = s.repo.GetForProduct(ctx, line.ProductID)
			return nil
		})
	}
	_ = g.Wait()

	lowStock := map[string]entity.InventoryItem{}
	var lowStockOrder []string

	for i, line := range order.Lines {
		lr := LineReconciliation{Line: i, ProductID: line.ProductID}

		switch {
		case lookupErrs[i] != nil:
			lr.Outcome = LineFailed
			lr.Error = lookupErrs[i].Error()
			slog.Error("Inventory lookup failed", "order_id", order.ID, "product_id", line.ProductID, "err", lookupErrs[i])

		case items[i] == nil:
			lr.Outcome = LineSkipped

		default:
			lr.InventoryItemID = items[i].ID
			delta := decimal.NewFromInt(int64(line.Quantity)).Neg()
			orderID := order.ID
			updated, txn, err := s.repo.Adjust(ctx, entity.InventoryAdjustment{
				ItemID:  items[i].ID,
				Delta:   delta,
				Kind:    entity.TransactionOrderUsed,
				OrderID: &orderID,
				Note:    fmt.Sprintf("Order %s: %d x %s", order.ID, line.Quantity, line.ProductName),
			})
			if err != nil {
				lr.Outcome = LineFailed
				lr.Error = err.Error()
				slog.Error("Inventory adjustment failed", "order_id", order.ID, "inventory_item_id", items[i].ID, "err", err)
				break
			}

			lr.Outcome = LineAdjusted
			lr.QuantityChange = &txn.QuantityChange
			lr.Remaining = &updated.Quantity
			lr.TransactionID = txn.ID
			s.publishAdjusted(ctx, *updated, *txn)

			if _, seen := lowStock[updated.ID]; !seen {
				lowStockOrder = append(lowStockOrder, updated.ID)
			}
			lowStock[updated.ID] = *updated
		}

		report.Lines[i] = lr
	}

	for _, id := range lowStockOrder {
		item := lowStock[id]
		if !item.AtOrBelowReorderLevel() {
			continue
		}
		report.LowStockItems = append(report.LowStockItems, id)
		if _, err := s.notifications.LowStock(ctx, item); err != nil {
			report.NotificationErrors = append(report.NotificationErrors, err.Error())
			slog.Error("Failed to emit low stock notification", "inventory_item_id", id, "err", err)
		}
	}

	slog.Info("Inventory reconciled", "order_id", order.ID, "lines", len(report.Lines), "failed", report.Failed(), "low_stock", len(report.LowStockItems))
	return report
}

// Restock adds a positive quantity and records a restock transaction.
func (s *InventoryService) Restock(ctx context.Context, itemID string, quantity decimal.Decimal, note string) (*entity.InventoryItem, *entity.InventoryTransaction, error) {
	return s.apply(ctx, entity.InventoryAdjustment{
		ItemID: itemID,
		Delta:  quantity,
		Kind:   entity.TransactionRestock,
		Note:   note,
	})
}

// Adjust records a manual correction or a write-off. Restocks and order usage
// have their own paths.
func (s *InventoryService) Adjust(ctx context.Context, itemID string, delta decimal.Decimal, kind entity.TransactionKind, note string) (*entity.InventoryItem, *entity.InventoryTransaction, error) {
	if kind != entity.TransactionAdjusted && kind != entity.TransactionDamaged {
		return nil, nil, fmt.Errorf("%w: manual adjustments must be %q or %q", entity.ErrInvalidAdjustment, entity.TransactionAdjusted, entity.TransactionDamaged)
	}
	return s.apply(ctx, entity.InventoryAdjustment{
		ItemID: itemID,
		Delta:  delta,
		Kind:   kind,
		Note:   note,
	})
}

// Transactions returns the audit trail of an item, oldest first.
func (s *InventoryService) Transactions(ctx context.Context, itemID string) ([]entity.InventoryTransaction, error) {
	if _, err := s.repo.Get(ctx, itemID); err != nil {
		return nil, err
	}
	return s.repo.Transactions(ctx, itemID)
}

func (s *InventoryService) apply(ctx context.Context, adj entity.InventoryAdjustment) (*entity.InventoryItem, *entity.InventoryTransaction, error) {
	if err := adj.Validate(); err != nil {
		return nil, nil, err
	}

	updated, txn, err := s.repo.Adjust(ctx, adj)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("Inventory adjusted", "inventory_item_id", updated.ID, "type", txn.Kind, "change", txn.QuantityChange.String(), "remaining", updated.Quantity.String())
	s.publishAdjusted(ctx, *updated, *txn)

	if updated.AtOrBelowReorderLevel() {
		if _, err := s.notifications.LowStock(ctx, *updated); err != nil {
			slog.Error("Failed to emit low stock notification", "inventory_item_id", updated.ID, "err", err)
		}
	}
	return updated, txn, nil
}

func (s *InventoryService) publishAdjusted(ctx context.Context, item entity.InventoryItem, txn entity.InventoryTransaction) {
	publishBestEffort(ctx, s.publisher, messaging.TopicInventoryAdjusted, item.ID, entity.InventoryAdjusted{
		InventoryItemID: item.ID,
		TransactionID:   txn.ID,
		Kind:            txn.Kind,
		QuantityChange:  txn.QuantityChange.String(),
		Remaining:       item.Quantity.String(),
		OrderID:         txn.OrderID,
	})
}
