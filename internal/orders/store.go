package orders

import (
	"sync"

	"tailor-orders/internal/errs"
	"tailor-orders/internal/models"
)

// FetchStatus is the collection's request lifecycle.
type FetchStatus int

const (
	FetchIdle FetchStatus = iota
	FetchLoading
	FetchSucceeded
	FetchFailed
)

// Store is the authoritative list of submitted orders. The slice is mutated
// only through the reconciliation methods below; _id uniqueness is the
// backend's invariant and the store preserves array order on update.
type Store struct {
	mu     sync.Mutex
	orders []models.Order
	status FetchStatus
	errMsg string
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) SetLoading() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = FetchLoading
	s.errMsg = ""
}

// ReplaceAll swaps in a freshly fetched collection.
func (s *Store) ReplaceAll(orders []models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append([]models.Order(nil), orders...)
	s.status = FetchSucceeded
	s.errMsg = ""
}

func (s *Store) SetFailed(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = FetchFailed
	s.errMsg = msg
}

func (s *Store) Status() (FetchStatus, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.errMsg
}

// Orders returns a copy; callers never mutate the collection directly.
func (s *Store) Orders() []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Order(nil), s.orders...)
}

func (s *Store) Get(id string) (models.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ID == id {
			return o, true
		}
	}
	return models.Order{}, false
}

// ApplyCreate appends a newly persisted order.
func (s *Store) ApplyCreate(order models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, order)
}

// ApplyUpdate replaces the matching _id entry in place, preserving array
// order.
func (s *Store) ApplyUpdate(order models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].ID == order.ID {
			s.orders[i] = order
			return nil
		}
	}
	return errs.New(errs.KindValidation, "order not found: "+order.ID)
}

// ApplyStatus patches only the status field of the matching order.
func (s *Store) ApplyStatus(id string, status models.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].ID == id {
			s.orders[i].Status = status
			return nil
		}
	}
	return errs.New(errs.KindValidation, "order not found: "+id)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}
