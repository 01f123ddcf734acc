package ledger

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is one entry of a table's open order. Price is snapshotted when the
// line is created, so later menu edits never change an open order.
type Line struct {
	ID         uuid.UUID       `json:"id"`
	MenuItemID uuid.UUID       `json:"menu_item_id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int32           `json:"quantity"`
}

// Ledger is the authoritative in-memory mapping from table to its open order
// and notes. It is a plain state container: invariants (unique line per menu
// item, quantity > 0) are the mutation service's responsibility. All returned
// slices and maps are copies.
type Ledger struct {
	mu         sync.RWMutex
	orders     map[uuid.UUID][]Line
	tableNotes map[uuid.UUID]string
	itemNotes  map[uuid.UUID]map[uuid.UUID]string
}

func New() *Ledger {
	return &Ledger{
		orders:     make(map[uuid.UUID][]Line),
		tableNotes: make(map[uuid.UUID]string),
		itemNotes:  make(map[uuid.UUID]map[uuid.UUID]string),
	}
}

// Order returns a copy of the table's open order, in insertion order.
func (l *Ledger) Order(tableID uuid.UUID) []Line {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Line(nil), l.orders[tableID]...)
}

// SetOrder replaces the table's order atomically. An empty slice removes the
// table's entry entirely.
func (l *Ledger) SetOrder(tableID uuid.UUID, lines []Line) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(lines) == 0 {
		delete(l.orders, tableID)
		return
	}
	l.orders[tableID] = append([]Line(nil), lines...)
}

// HasOrder reports whether the table has any open lines.
func (l *Ledger) HasOrder(tableID uuid.UUID) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.orders[tableID]) > 0
}

// TableNote returns the table-level note. Absent and empty are the same
// state; the second return is false for both only when no entry is stored.
func (l *Ledger) TableNote(tableID uuid.UUID) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	text, ok := l.tableNotes[tableID]
	return text, ok
}

// SetTableNote overwrites the table-level note. Empty text deletes the
// entry, so "no note" has a single stored form.
func (l *Ledger) SetTableNote(tableID uuid.UUID, text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if text == "" {
		delete(l.tableNotes, tableID)
		return
	}
	l.tableNotes[tableID] = text
}

// ItemNote returns the note attached to one order line.
func (l *Ledger) ItemNote(tableID, lineID uuid.UUID) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	text, ok := l.itemNotes[tableID][lineID]
	return text, ok
}

// SetItemNote overwrites an order line's note. Empty text deletes the entry.
func (l *Ledger) SetItemNote(tableID, lineID uuid.UUID, text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if text == "" {
		if notes, ok := l.itemNotes[tableID]; ok {
			delete(notes, lineID)
			if len(notes) == 0 {
				delete(l.itemNotes, tableID)
			}
		}
		return
	}
	if l.itemNotes[tableID] == nil {
		l.itemNotes[tableID] = make(map[uuid.UUID]string)
	}
	l.itemNotes[tableID][lineID] = text
}

// ItemNotes returns a copy of all line notes scoped to the table.
func (l *Ledger) ItemNotes(tableID uuid.UUID) map[uuid.UUID]string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[uuid.UUID]string, len(l.itemNotes[tableID]))
	for id, text := range l.itemNotes[tableID] {
		out[id] = text
	}
	return out
}

// ClearNotes removes the table-level note and every line note for the table.
func (l *Ledger) ClearNotes(tableID uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.tableNotes, tableID)
	delete(l.itemNotes, tableID)
}

// Total is the sum of price x quantity over the given lines.
func Total(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Price.Mul(decimal.NewFromInt32(line.Quantity)))
	}
	return total
}
