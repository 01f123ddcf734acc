package service

import (
	"errors"
	"sync"

	"github.com/benthanh-pos/api/internal/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Errors returned by the order mutation service.
var (
	ErrTableOccupied = errors.New("destination table already has an open order")
)

// MenuItemRef is the snapshot of a menu item taken when a line is added.
type MenuItemRef struct {
	ID    uuid.UUID
	Name  string
	Price decimal.Decimal
}

// OrderService applies all mutations to the live ledger. Multi-step
// mutations (add-or-increment, transfer) run under a single mutex so the
// ledger only ever sees complete transitions.
type OrderService struct {
	mu     sync.Mutex
	ledger *ledger.Ledger
}

func NewOrderService(l *ledger.Ledger) *OrderService {
	return &OrderService{ledger: l}
}

// AddToOrder adds one unit of the menu item to the table's order. If a line
// for the same menu item already exists its quantity is incremented, keeping
// exactly one line per menu item per table. Returns the affected line.
func (s *OrderService) AddToOrder(tableID uuid.UUID, item MenuItemRef) ledger.Line {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.ledger.Order(tableID)
	for i, line := range lines {
		if line.MenuItemID == item.ID {
			lines[i].Quantity++
			s.ledger.SetOrder(tableID, lines)
			return lines[i]
		}
	}

	line := ledger.Line{
		ID:         uuid.New(),
		MenuItemID: item.ID,
		Name:       item.Name,
		Price:      item.Price,
		Quantity:   1,
	}
	s.ledger.SetOrder(tableID, append(lines, line))
	return line
}

// UpdateQuantity adds delta (signed) to a line's quantity. A resulting
// quantity <= 0 removes the line entirely; its note goes with it. A missing
// line is a silent no-op.
func (s *OrderService) UpdateQuantity(tableID, lineID uuid.UUID, delta int32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.ledger.Order(tableID)
	for i, line := range lines {
		if line.ID != lineID {
			continue
		}
		if line.Quantity+delta <= 0 {
			s.ledger.SetOrder(tableID, append(lines[:i], lines[i+1:]...))
			s.ledger.SetItemNote(tableID, lineID, "")
			return
		}
		lines[i].Quantity += delta
		s.ledger.SetOrder(tableID, lines)
		return
	}
}

// ClearTable empties the table's order and drops all of its notes. This is
// the terminal transition after full settlement.
func (s *OrderService) ClearTable(tableID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger.SetOrder(tableID, nil)
	s.ledger.ClearNotes(tableID)
}

// SetTableNote overwrites the table-level note. Empty text means no note.
func (s *OrderService) SetTableNote(tableID uuid.UUID, text string) {
	s.ledger.SetTableNote(tableID, text)
}

// SetItemNote overwrites one line's note. Empty text means no note.
func (s *OrderService) SetItemNote(tableID, lineID uuid.UUID, text string) {
	s.ledger.SetItemNote(tableID, lineID, text)
}

// Transfer moves the entire order and its notes from one table to another.
// If the destination already has a non-empty order it fails with
// ErrTableOccupied and changes nothing.
func (s *OrderService) Transfer(from, to uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ledger.HasOrder(to) {
		return ErrTableOccupied
	}

	lines := s.ledger.Order(from)
	tableNote, _ := s.ledger.TableNote(from)
	itemNotes := s.ledger.ItemNotes(from)

	s.ledger.SetOrder(to, lines)
	s.ledger.SetTableNote(to, tableNote)
	for lineID, text := range itemNotes {
		s.ledger.SetItemNote(to, lineID, text)
	}

	s.ledger.SetOrder(from, nil)
	s.ledger.ClearNotes(from)
	return nil
}
