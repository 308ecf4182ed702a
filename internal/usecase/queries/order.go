package queries

//go:generate mockgen -source=order.go -destination=../../../tests/mock/queries/order.go -package=queriesmock

import (
	"context"
	"sort"

	"storefront/internal/domain/order"
	"storefront/internal/pkg/errs"
	"storefront/internal/usecase/shared"
)

type OrderQueries interface {
	ListOrders(ctx context.Context) ([]order.Summary, error)
}

type orderQueriesImpl struct {
	orders shared.OrderGateway
}

func NewOrderQueries(orders shared.OrderGateway) OrderQueries {
	return &orderQueriesImpl{orders: orders}
}

// ListOrders returns the user's order history, newest first.
func (q *orderQueriesImpl) ListOrders(ctx context.Context) ([]order.Summary, error) {
	orders, err := q.orders.ListOrders(ctx)
	if err != nil {
		return nil, errs.Wrap(err, "list orders")
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].PlacedAt.After(orders[j].PlacedAt)
	})
	return orders, nil
}
