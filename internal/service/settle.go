package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/benthanh-pos/api/internal/enum"
	"github.com/benthanh-pos/api/internal/ledger"
	"github.com/benthanh-pos/api/internal/notify"
	"github.com/benthanh-pos/api/internal/receipt"
	"github.com/benthanh-pos/api/internal/report"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Errors returned by the settlement service.
var (
	ErrNothingToSettle = errors.New("table has no open order")
	ErrInvalidPrint    = errors.New("invalid print type")
)

const printTimeout = 15 * time.Second

// Printer dispatches a rendered document to the external print agent.
// Satisfied by *printer.Client.
type Printer interface {
	Dispatch(ctx context.Context, html, printType string) (string, error)
}

// SettingsSource loads receipt formatting settings, already merged over the
// defaults. Satisfied by the settings store wrapper in the handler layer.
type SettingsSource interface {
	PrintSettings(ctx context.Context) receipt.Settings
	BankSettings(ctx context.Context) receipt.BankSettings
}

// SettlementRecorder persists closed settlements for the dashboard.
// Satisfied by *storage.HistoryStore.
type SettlementRecorder interface {
	InsertSettlement(ctx context.Context, rec report.SettlementRecord) error
}

// Notifier surfaces outcomes to the operator. Satisfied by *notify.Center.
type Notifier interface {
	Post(n notify.Notification)
}

// PaidItem names one order line and how many units of it were paid for.
type PaidItem struct {
	ID       uuid.UUID `json:"id"`
	Quantity int32     `json:"quantity"`
}

// SettleRequest is the one-shot payment payload from the settlement UI.
// For PrintType full, PaidItems is ignored entirely: closing the check
// always clears the whole table.
type SettleRequest struct {
	PrintType     string     `json:"print_type"`
	PaidItems     []PaidItem `json:"paid_items"`
	PaymentMethod string     `json:"payment_method"`
}

// SettlementService converts part or all of an open order into a finalized,
// printed transaction and rewrites the ledger accordingly.
type SettlementService struct {
	ledger   *ledger.Ledger
	orders   *OrderService
	printer  Printer
	settings SettingsSource
	history  SettlementRecorder
	notifier Notifier
}

func NewSettlementService(l *ledger.Ledger, orders *OrderService, p Printer, settings SettingsSource, history SettlementRecorder, notifier Notifier) *SettlementService {
	return &SettlementService{
		ledger:   l,
		orders:   orders,
		printer:  p,
		settings: settings,
		history:  history,
		notifier: notifier,
	}
}

// Settle executes the settlement algorithm for one table:
//
//  1. snapshot the open order (empty -> ErrNothingToSettle),
//  2. compute the settled portion and its total,
//  3. build the immutable receipt snapshot and render it,
//  4. apply the ledger effect (full: clear table; partial: reduce paid
//     quantities, dropping emptied lines),
//  5. record the settlement for the dashboard,
//  6. dispatch the print asynchronously; the success/error notification is
//     posted when the agent's response resolves.
//
// The ledger effect never waits on, and is never rolled back by, the print
// dispatch. Print failures only raise an error notification.
func (s *SettlementService) Settle(ctx context.Context, tableID uuid.UUID, tableName string, req SettleRequest, cashier string) (*receipt.Data, error) {
	if req.PrintType != enum.PrintTypeFull && req.PrintType != enum.PrintTypePartial {
		return nil, ErrInvalidPrint
	}

	lines := s.ledger.Order(tableID)
	if len(lines) == 0 {
		return nil, ErrNothingToSettle
	}

	paid := normalizePaidItems(lines, req.PaidItems)
	settled := settledPortion(lines, req.PrintType, paid)
	data := &receipt.Data{
		Items:     settled,
		Total:     receiptTotal(settled),
		Table:     tableName,
		Cashier:   cashier,
		PrintType: req.PrintType,
	}

	html, renderErr := receipt.Render(*data, s.settings.PrintSettings(ctx), s.settings.BankSettings(ctx))

	// Ledger effect proceeds regardless of render or dispatch outcome.
	if req.PrintType == enum.PrintTypeFull {
		s.orders.ClearTable(tableID)
	} else {
		s.ledger.SetOrder(tableID, reduceLines(lines, paid))
		s.pruneOrphanNotes(tableID)
	}

	if s.history != nil {
		rec := report.SettlementRecord{
			ID:            uuid.New(),
			TableName:     tableName,
			Cashier:       cashier,
			PaymentMethod: req.PaymentMethod,
			PrintType:     req.PrintType,
			Total:         data.Total,
			Items:         historyItems(settled),
			SettledAt:     time.Now().UTC(),
		}
		if err := s.history.InsertSettlement(ctx, rec); err != nil {
			log.Printf("ERROR: record settlement for table %s: %v", tableName, err)
		}
	}

	if renderErr != nil {
		s.notifier.Post(notify.Notification{
			ID:      fmt.Sprintf("print-error-%d", time.Now().UnixMilli()),
			Type:    enum.NotificationError,
			Message: "Could not print: " + renderErr.Error(),
		})
		return data, nil
	}

	go s.dispatchAndNotify(html, req.PrintType)
	return data, nil
}

// PrintCurrent prints the table's current order without any ledger effect.
// Used for provisional bills and kitchen tickets.
func (s *SettlementService) PrintCurrent(ctx context.Context, tableID uuid.UUID, tableName, printType, cashier string) error {
	if printType != enum.PrintTypeProvisional && printType != enum.PrintTypeKitchen {
		return ErrInvalidPrint
	}

	lines := s.ledger.Order(tableID)
	if len(lines) == 0 {
		return ErrNothingToSettle
	}

	items := make([]receipt.Item, len(lines))
	for i, line := range lines {
		items[i] = receipt.Item{Name: line.Name, Quantity: line.Quantity, Price: line.Price}
	}
	data := receipt.Data{
		Items:     items,
		Total:     ledger.Total(lines),
		Table:     tableName,
		Cashier:   cashier,
		PrintType: printType,
	}

	html, err := receipt.Render(data, s.settings.PrintSettings(ctx), s.settings.BankSettings(ctx))
	if err != nil {
		return err
	}

	go s.dispatchAndNotify(html, printType)
	return nil
}

// dispatchAndNotify runs the fallible print call and posts the outcome
// notification once the agent's response resolves. Detached from the
// request context: settlement has already completed by the time this runs.
func (s *SettlementService) dispatchAndNotify(html, printType string) {
	ctx, cancel := context.WithTimeout(context.Background(), printTimeout)
	defer cancel()

	msg, err := s.printer.Dispatch(ctx, html, printType)
	if err != nil {
		log.Printf("ERROR: print dispatch (%s): %v", printType, err)
		s.notifier.Post(notify.Notification{
			ID:      fmt.Sprintf("print-error-%d", time.Now().UnixMilli()),
			Type:    enum.NotificationError,
			Message: "Could not print: " + err.Error(),
		})
		return
	}
	if msg == "" {
		msg = fmt.Sprintf("Print job (%s) sent to agent.", printType)
	}
	s.notifier.Post(notify.Notification{
		ID:      fmt.Sprintf("print-success-%d", time.Now().UnixMilli()),
		Type:    enum.NotificationSuccess,
		Message: msg,
	})
}

// normalizePaidItems folds the raw paid_items payload into one map of line
// id -> paid quantity, the single source of truth for both the receipt and
// the ledger reduction. The first entry for a line id wins, non-positive
// quantities are dropped, quantities are capped at the line's open quantity,
// and ids not currently open are ignored.
func normalizePaidItems(lines []ledger.Line, paidItems []PaidItem) map[uuid.UUID]int32 {
	open := make(map[uuid.UUID]int32, len(lines))
	for _, line := range lines {
		open[line.ID] = line.Quantity
	}

	paid := make(map[uuid.UUID]int32, len(paidItems))
	seen := make(map[uuid.UUID]bool, len(paidItems))
	for _, p := range paidItems {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		openQty, ok := open[p.ID]
		if !ok || p.Quantity <= 0 {
			continue
		}
		qty := p.Quantity
		if qty > openQty {
			qty = openQty
		}
		paid[p.ID] = qty
	}
	return paid
}

// settledPortion selects the lines and quantities being paid for. Full
// settlement covers the entire order; partial settlement covers exactly the
// normalized paid map.
func settledPortion(lines []ledger.Line, printType string, paid map[uuid.UUID]int32) []receipt.Item {
	if printType == enum.PrintTypeFull {
		items := make([]receipt.Item, len(lines))
		for i, line := range lines {
			items[i] = receipt.Item{Name: line.Name, Quantity: line.Quantity, Price: line.Price}
		}
		return items
	}

	var items []receipt.Item
	for _, line := range lines {
		if qty, ok := paid[line.ID]; ok {
			items = append(items, receipt.Item{Name: line.Name, Quantity: qty, Price: line.Price})
		}
	}
	return items
}

// reduceLines subtracts the normalized paid quantities from the order.
// Lines whose quantity drops to zero are removed; untouched lines survive.
func reduceLines(lines []ledger.Line, paid map[uuid.UUID]int32) []ledger.Line {
	var out []ledger.Line
	for _, line := range lines {
		line.Quantity -= paid[line.ID]
		if line.Quantity > 0 {
			out = append(out, line)
		}
	}
	return out
}

// pruneOrphanNotes drops item notes whose lines were removed by a partial
// settlement.
func (s *SettlementService) pruneOrphanNotes(tableID uuid.UUID) {
	open := make(map[uuid.UUID]bool)
	for _, line := range s.ledger.Order(tableID) {
		open[line.ID] = true
	}
	for lineID := range s.ledger.ItemNotes(tableID) {
		if !open[lineID] {
			s.ledger.SetItemNote(tableID, lineID, "")
		}
	}
}

func receiptTotal(items []receipt.Item) (total decimal.Decimal) {
	total = decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt32(it.Quantity)))
	}
	return total
}

func historyItems(items []receipt.Item) []report.SettledItem {
	out := make([]report.SettledItem, len(items))
	for i, it := range items {
		out[i] = report.SettledItem{Name: it.Name, Quantity: it.Quantity, Price: it.Price}
	}
	return out
}
