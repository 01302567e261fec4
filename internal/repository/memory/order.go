package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xenking/greengrocer/internal/domain/order"
)

// OrderStore implements order.Repository. AssignCarrier and MarkDelivered run
// under the store mutex, giving them the same single-writer semantics as the
// conditional UPDATEs in the PostgreSQL implementation.
type OrderStore struct {
	mu     sync.Mutex
	orders map[int64]*order.Order
	nextID int64
	now    func() time.Time
}

var _ order.Repository = (*OrderStore)(nil)

// NewOrderStore creates an empty OrderStore.
func NewOrderStore() *OrderStore {
	return &OrderStore{orders: make(map[int64]*order.Order), now: time.Now}
}

// Create stores the order and fills in a generated id.
func (s *OrderStore) Create(_ context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	o.ID = s.nextID

	cp := *o
	cp.Lines = append([]order.Line(nil), o.Lines...)
	s.orders[o.ID] = &cp
	return nil
}

// GetByID returns a copy of the order with the given id.
func (s *OrderStore) GetByID(_ context.Context, id int64) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	cp.Lines = append([]order.Line(nil), o.Lines...)
	return &cp, nil
}

// ListByCustomer returns the customer's orders, newest first.
func (s *OrderStore) ListByCustomer(_ context.Context, customerID int64) ([]order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []order.Order
	for _, o := range s.orders {
		if o.CustomerID == customerID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderTime.After(out[j].OrderTime) })
	return out, nil
}

// ListUnassigned returns placed orders without a carrier.
func (s *OrderStore) ListUnassigned(_ context.Context) ([]order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []order.Order
	for _, o := range s.orders {
		if o.CarrierID == 0 && o.Status == order.StatusPlaced {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListByCarrier returns the carrier's orders in the given status.
func (s *OrderStore) ListByCarrier(_ context.Context, carrierID int64, status order.Status) ([]order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []order.Order
	for _, o := range s.orders {
		if o.CarrierID == carrierID && o.Status == status {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CompletedOrderCount counts the customer's delivered orders.
func (s *OrderStore) CompletedOrderCount(_ context.Context, customerID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, o := range s.orders {
		if o.CustomerID == customerID && o.Status == order.StatusDelivered {
			count++
		}
	}
	return count, nil
}

// AssignCarrier claims the order for the carrier only when no carrier holds
// it yet.
func (s *OrderStore) AssignCarrier(_ context.Context, orderID, carrierID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok || o.CarrierID != 0 {
		return false, nil
	}
	o.CarrierID = carrierID
	o.Status = order.StatusAssigned
	return true, nil
}

// MarkDelivered unconditionally sets DELIVERED and stamps the delivery time.
func (s *OrderStore) MarkDelivered(_ context.Context, orderID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return false, nil
	}
	at := s.now()
	o.Status = order.StatusDelivered
	o.DeliveredAt = &at
	return true, nil
}
