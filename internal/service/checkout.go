package service

import (
	"context"
	"strings"

	"github.com/Skotchmaster/easystore/internal/events"
	"github.com/Skotchmaster/easystore/internal/models"
	"github.com/Skotchmaster/easystore/internal/store"
	"github.com/Skotchmaster/easystore/internal/transport"
	"github.com/Skotchmaster/easystore/pkg/logging"
)

type OrderService struct {
	Orders   store.Collection[models.Order]
	Products store.Collection[models.ProductSeries]
	Events   events.Publisher
}

// SalesUpdate is the outcome of one cart line's sales counter increment.
type SalesUpdate struct {
	ProductID string
	Err       error
}

type CheckoutResult struct {
	Order        *models.Order
	SalesUpdates []SalesUpdate
}

func (r *CheckoutResult) Failed() []SalesUpdate {
	var out []SalesUpdate
	for _, u := range r.SalesUpdates {
		if u.Err != nil {
			out = append(out, u)
		}
	}
	return out
}

// Checkout persists the order and then bumps bought_last_month once per cart
// line. Counter failures are reported in the result and never undo the order.
func (s *OrderService) Checkout(ctx context.Context, req transport.CheckoutRequest) (*CheckoutResult, error) {
	l := logging.FromContext(ctx).With("svc", "order.checkout")

	if strings.TrimSpace(req.ReceiptRef) == "" {
		return nil, validation("payment receipt is required")
	}
	if len(req.Items) == 0 {
		return nil, validation("cart is empty")
	}

	items := make([]models.LineItem, 0, len(req.Items))
	for _, line := range req.Items {
		items = append(items, models.LineItem{ProductID: line.ID, Name: line.Name, Price: line.Price})
	}

	order := &models.Order{
		Items:      items,
		Total:      req.Total,
		Customer:   req.Customer,
		ReceiptRef: req.ReceiptRef,
		Status:     models.OrderStatusPendingVerification,
	}
	if err := s.Orders.Insert(ctx, order); err != nil {
		l.Error("order_insert_failed", "error", err)
		return nil, classify(err, "insert order")
	}

	res := &CheckoutResult{Order: order, SalesUpdates: make([]SalesUpdate, 0, len(items))}
	for _, it := range items {
		_, err := s.Products.Increment(ctx, it.ProductID, map[string]int64{models.FieldBoughtLastMonth: 1})
		if err != nil {
			err = classify(err, "sales counter "+it.ProductID)
			l.Warn("sales_update_failed", "order_id", order.ID, "product_id", it.ProductID, "error", err)
		}
		res.SalesUpdates = append(res.SalesUpdates, SalesUpdate{ProductID: it.ProductID, Err: err})
	}

	publish(ctx, s.Events, events.TopicOrders, events.New(events.OrderCreated, order.ID, map[string]any{
		"total":          order.Total,
		"items":          len(order.Items),
		"failed_updates": len(res.Failed()),
	}))

	l.Info("order_created", "order_id", order.ID, "items", len(items))
	return res, nil
}

func (s *OrderService) List(ctx context.Context) ([]models.Order, error) {
	orders, err := s.Orders.Find(ctx, store.Newest)
	return orders, classify(err, "list orders")
}

func (s *OrderService) Delete(ctx context.Context, id string) error {
	if err := s.Orders.Delete(ctx, id); err != nil {
		return classify(err, "delete order "+id)
	}
	publish(ctx, s.Events, events.TopicOrders, events.New(events.OrderDeleted, id, nil))
	return nil
}
