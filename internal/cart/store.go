package cart

import (
	"github.com/shopspring/decimal"
)

// Catalog resolves service ids for AddLine.
type Catalog interface {
	Lookup(id int64) (Service, bool)
}

// Store is the per-session cart. It is not safe for concurrent use; the owning
// session serializes access.
type Store struct {
	catalog   Catalog
	lines     []*Line
	observers map[int]func(SizeChange)
	nextObsID int
}

// NewStore returns an empty cart resolving services through catalog.
func NewStore(catalog Catalog) *Store {
	return &Store{
		catalog:   catalog,
		observers: make(map[int]func(SizeChange)),
	}
}

// AddLine adds a service with quantity 1. A service already in the cart is left untouched.
func (s *Store) AddLine(serviceID int64) Signal {
	if s.find(serviceID) >= 0 {
		return SignalAlreadyInCart
	}
	if s.catalog == nil {
		return SignalNotFound
	}
	svc, ok := s.catalog.Lookup(serviceID)
	if !ok {
		return SignalNotFound
	}

	before := len(s.lines)
	s.lines = append(s.lines, &Line{Service: svc, Quantity: 1})
	s.notify(before)
	return SignalAdded
}

// RemoveLine drops the line for serviceID. Removing an absent line is a no-op.
func (s *Store) RemoveLine(serviceID int64) Signal {
	idx := s.find(serviceID)
	if idx < 0 {
		return SignalNotFound
	}
	before := len(s.lines)
	s.lines = append(s.lines[:idx], s.lines[idx+1:]...)
	s.notify(before)
	return SignalRemoved
}

// SetQuantity removes the line when quantity <= 0. Any positive quantity is clamped
// to 1 because every line books exactly one visit.
func (s *Store) SetQuantity(serviceID int64, quantity int) Signal {
	if quantity <= 0 {
		return s.RemoveLine(serviceID)
	}
	idx := s.find(serviceID)
	if idx < 0 {
		return SignalNotFound
	}
	s.lines[idx].Quantity = 1
	return SignalUpdated
}

// SetSelectedItems replaces the line's sub-item selections wholesale.
func (s *Store) SetSelectedItems(serviceID int64, items []SelectedItem) Signal {
	idx := s.find(serviceID)
	if idx < 0 {
		return SignalNotFound
	}
	s.lines[idx].SelectedItems = append(make([]SelectedItem, 0, len(items)), items...)
	return SignalUpdated
}

// TotalPrice is the sum of each line's visit charge. Quantity does not multiply.
func (s *Store) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, line := range s.lines {
		total = total.Add(line.Service.Price)
	}
	return total
}

// TotalLineCount is the number of distinct services in the cart.
func (s *Store) TotalLineCount() int {
	return len(s.lines)
}

// IsEmpty reports whether the cart holds no lines.
func (s *Store) IsEmpty() bool {
	return len(s.lines) == 0
}

// Line returns a copy of the line for serviceID.
func (s *Store) Line(serviceID int64) (Line, bool) {
	idx := s.find(serviceID)
	if idx < 0 {
		return Line{}, false
	}
	return s.lines[idx].clone(), true
}

// Lines returns copies of all lines in insertion order.
func (s *Store) Lines() []Line {
	out := make([]Line, 0, len(s.lines))
	for _, line := range s.lines {
		out = append(out, line.clone())
	}
	return out
}

// Clear empties the cart.
func (s *Store) Clear() {
	before := len(s.lines)
	s.lines = nil
	s.notify(before)
}

// Restore replaces the cart contents, typically from a persisted snapshot.
// Duplicate service ids keep their first occurrence.
func (s *Store) Restore(lines []Line) {
	before := len(s.lines)
	s.lines = make([]*Line, 0, len(lines))
	seen := make(map[int64]struct{}, len(lines))
	for _, line := range lines {
		if _, dup := seen[line.Service.ID]; dup {
			continue
		}
		seen[line.Service.ID] = struct{}{}
		restored := line.clone()
		restored.Quantity = 1
		s.lines = append(s.lines, &restored)
	}
	s.notify(before)
}

// Subscribe registers fn for size changes and returns a function that removes it.
func (s *Store) Subscribe(fn func(SizeChange)) func() {
	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = fn
	return func() { delete(s.observers, id) }
}

func (s *Store) find(serviceID int64) int {
	for i, line := range s.lines {
		if line.Service.ID == serviceID {
			return i
		}
	}
	return -1
}

func (s *Store) notify(before int) {
	after := len(s.lines)
	if after == before {
		return
	}
	change := SizeChange{Previous: before, Current: after}
	for _, fn := range s.observers {
		fn(change)
	}
}
