package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benthanh-pos/api/internal/enum"
	"github.com/benthanh-pos/api/internal/ledger"
	"github.com/benthanh-pos/api/internal/notify"
	"github.com/benthanh-pos/api/internal/receipt"
	"github.com/benthanh-pos/api/internal/report"
	"github.com/google/uuid"
)

// --- Mocks ---

type mockPrinter struct {
	mu         sync.Mutex
	dispatched []struct{ html, printType string }
	err        error
}

func (m *mockPrinter) Dispatch(_ context.Context, html, printType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatched = append(m.dispatched, struct{ html, printType string }{html, printType})
	if m.err != nil {
		return "", m.err
	}
	return "sent", nil
}

func (m *mockPrinter) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.dispatched)
}

type mockSettings struct{}

func (mockSettings) PrintSettings(context.Context) receipt.Settings {
	return receipt.DefaultSettings()
}
func (mockSettings) BankSettings(context.Context) receipt.BankSettings {
	return receipt.BankSettings{}
}

type mockHistory struct {
	mu      sync.Mutex
	records []report.SettlementRecord
	err     error
}

func (m *mockHistory) InsertSettlement(_ context.Context, rec report.SettlementRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

func newTestSettlement(l *ledger.Ledger) (*SettlementService, *mockPrinter, *mockHistory, *notify.Center) {
	orders := NewOrderService(l)
	p := &mockPrinter{}
	h := &mockHistory{}
	center := notify.NewCenter(time.Minute)
	svc := NewSettlementService(l, orders, p, mockSettings{}, h, center)
	return svc, p, h, center
}

// waitFor polls until cond is true or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func seedTable(l *ledger.Ledger, svc *OrderService, tableID uuid.UUID, items ...MenuItemRef) []ledger.Line {
	for _, it := range items {
		svc.AddToOrder(tableID, it)
	}
	return l.Order(tableID)
}

// --- Tests ---

func TestSettleEmptyTable(t *testing.T) {
	l := ledger.New()
	svc, p, _, _ := newTestSettlement(l)

	_, err := svc.Settle(context.Background(), uuid.New(), "Table 1",
		SettleRequest{PrintType: enum.PrintTypeFull}, "Linh")
	if !errors.Is(err, ErrNothingToSettle) {
		t.Fatalf("err = %v, want ErrNothingToSettle", err)
	}
	if p.count() != 0 {
		t.Error("print dispatched for empty table")
	}
}

func TestSettleInvalidPrintType(t *testing.T) {
	l := ledger.New()
	svc, _, _, _ := newTestSettlement(l)

	_, err := svc.Settle(context.Background(), uuid.New(), "Table 1",
		SettleRequest{PrintType: enum.PrintTypeKitchen}, "Linh")
	if !errors.Is(err, ErrInvalidPrint) {
		t.Fatalf("err = %v, want ErrInvalidPrint", err)
	}
}

func TestSettleFullClearsEverything(t *testing.T) {
	l := ledger.New()
	svc, p, h, center := newTestSettlement(l)
	tableID := uuid.New()

	lines := seedTable(l, svc.orders, tableID,
		menuItem("Pho Bo", "45000"), menuItem("Tra Da", "5000"))
	svc.orders.SetTableNote(tableID, "note")
	svc.orders.SetItemNote(tableID, lines[0].ID, "rare")

	// PaidItems present but print type full: the breakdown is ignored and
	// the whole check is closed.
	req := SettleRequest{
		PrintType:     enum.PrintTypeFull,
		PaidItems:     []PaidItem{{ID: lines[0].ID, Quantity: 1}},
		PaymentMethod: enum.PaymentMethodCash,
	}
	data, err := svc.Settle(context.Background(), tableID, "Table 4", req, "Linh")
	if err != nil {
		t.Fatalf("settle: %v", err)
	}

	if len(data.Items) != 2 {
		t.Errorf("receipt items = %d, want 2 (entire pre-settlement order)", len(data.Items))
	}
	if !data.Total.Equal(money("50000")) {
		t.Errorf("receipt total = %s, want 50000", data.Total)
	}
	if data.Table != "Table 4" || data.Cashier != "Linh" {
		t.Errorf("receipt attribution = %q/%q", data.Table, data.Cashier)
	}

	if l.HasOrder(tableID) {
		t.Error("order survived full settlement")
	}
	if _, ok := l.TableNote(tableID); ok {
		t.Error("table note survived full settlement")
	}
	if len(l.ItemNotes(tableID)) != 0 {
		t.Error("item notes survived full settlement")
	}

	h.mu.Lock()
	if len(h.records) != 1 || !h.records[0].Total.Equal(money("50000")) {
		t.Errorf("history = %+v", h.records)
	}
	h.mu.Unlock()

	waitFor(t, func() bool { return p.count() == 1 })
	waitFor(t, func() bool {
		for _, n := range center.Active() {
			if n.Type == enum.NotificationSuccess {
				return true
			}
		}
		return false
	})
}

func TestSettlePartialReducesQuantities(t *testing.T) {
	l := ledger.New()
	svc, _, _, _ := newTestSettlement(l)
	tableID := uuid.New()

	pho := menuItem("Pho Bo", "45000")
	for i := 0; i < 5; i++ {
		svc.orders.AddToOrder(tableID, pho)
	}
	bia := svc.orders.AddToOrder(tableID, menuItem("Bia", "20000"))
	phoLine := l.Order(tableID)[0]

	req := SettleRequest{
		PrintType: enum.PrintTypePartial,
		PaidItems: []PaidItem{{ID: phoLine.ID, Quantity: 2}},
	}
	data, err := svc.Settle(context.Background(), tableID, "Table 2", req, "Linh")
	if err != nil {
		t.Fatalf("settle: %v", err)
	}

	// Receipt covers only the paid portion.
	if len(data.Items) != 1 || data.Items[0].Quantity != 2 {
		t.Errorf("receipt items = %+v, want 1 line qty 2", data.Items)
	}
	if !data.Total.Equal(money("90000")) {
		t.Errorf("receipt total = %s, want 90000", data.Total)
	}

	// 5 - 2 = 3 remain open; the untouched line is untouched.
	lines := l.Order(tableID)
	if len(lines) != 2 {
		t.Fatalf("lines = %+v", lines)
	}
	if lines[0].Quantity != 3 {
		t.Errorf("remaining quantity = %d, want 3", lines[0].Quantity)
	}
	if lines[1].ID != bia.ID || lines[1].Quantity != 1 {
		t.Errorf("untouched line changed: %+v", lines[1])
	}
}

func TestSettlePartialRemovesFullyPaidLines(t *testing.T) {
	l := ledger.New()
	svc, _, _, _ := newTestSettlement(l)
	tableID := uuid.New()

	line := svc.orders.AddToOrder(tableID, menuItem("Pho Bo", "45000"))
	svc.orders.AddToOrder(tableID, MenuItemRef{ID: line.MenuItemID, Name: "Pho Bo", Price: money("45000")})
	svc.orders.SetItemNote(tableID, line.ID, "rare")

	// Paying more than the open quantity still just removes the line.
	req := SettleRequest{
		PrintType: enum.PrintTypePartial,
		PaidItems: []PaidItem{{ID: line.ID, Quantity: 5}},
	}
	data, err := svc.Settle(context.Background(), tableID, "Table 2", req, "Linh")
	if err != nil {
		t.Fatalf("settle: %v", err)
	}

	// Settled quantity is capped at what was actually open.
	if data.Items[0].Quantity != 2 {
		t.Errorf("settled quantity = %d, want 2", data.Items[0].Quantity)
	}
	if l.HasOrder(tableID) {
		t.Errorf("line survived: %+v", l.Order(tableID))
	}
	if _, ok := l.ItemNote(tableID, line.ID); ok {
		t.Error("note survived removal of its line")
	}
}

func TestSettlePartialIgnoresStaleLineIDs(t *testing.T) {
	l := ledger.New()
	svc, _, _, _ := newTestSettlement(l)
	tableID := uuid.New()

	line := svc.orders.AddToOrder(tableID, menuItem("Pho Bo", "45000"))

	req := SettleRequest{
		PrintType: enum.PrintTypePartial,
		PaidItems: []PaidItem{
			{ID: uuid.New(), Quantity: 3}, // stale UI state
			{ID: line.ID, Quantity: 1},
		},
	}
	data, err := svc.Settle(context.Background(), tableID, "Table 2", req, "Linh")
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if len(data.Items) != 1 {
		t.Errorf("receipt items = %+v, want only the live line", data.Items)
	}
	if l.HasOrder(tableID) {
		t.Error("fully paid line survived")
	}
}

func TestSettlePartialIgnoresNonPositiveQuantities(t *testing.T) {
	l := ledger.New()
	svc, _, _, _ := newTestSettlement(l)
	tableID := uuid.New()

	pho := menuItem("Pho Bo", "45000")
	for i := 0; i < 5; i++ {
		svc.orders.AddToOrder(tableID, pho)
	}
	line := l.Order(tableID)[0]

	req := SettleRequest{
		PrintType: enum.PrintTypePartial,
		PaidItems: []PaidItem{{ID: line.ID, Quantity: -3}},
	}
	data, err := svc.Settle(context.Background(), tableID, "Table 2", req, "Linh")
	if err != nil {
		t.Fatalf("settle: %v", err)
	}

	// Nothing was paid, so nothing prints and nothing changes.
	if len(data.Items) != 0 {
		t.Errorf("receipt items = %+v, want none", data.Items)
	}
	lines := l.Order(tableID)
	if len(lines) != 1 || lines[0].Quantity != 5 {
		t.Errorf("order after settle = %+v, want one line of quantity 5", lines)
	}
}

func TestSettlePartialDuplicateEntriesFirstWins(t *testing.T) {
	l := ledger.New()
	svc, _, _, _ := newTestSettlement(l)
	tableID := uuid.New()

	pho := menuItem("Pho Bo", "45000")
	for i := 0; i < 5; i++ {
		svc.orders.AddToOrder(tableID, pho)
	}
	line := l.Order(tableID)[0]

	req := SettleRequest{
		PrintType: enum.PrintTypePartial,
		PaidItems: []PaidItem{{ID: line.ID, Quantity: 2}, {ID: line.ID, Quantity: 2}},
	}
	data, err := svc.Settle(context.Background(), tableID, "Table 2", req, "Linh")
	if err != nil {
		t.Fatalf("settle: %v", err)
	}

	// The receipt and the ledger reduction must agree on 2 units paid.
	if len(data.Items) != 1 || data.Items[0].Quantity != 2 {
		t.Errorf("receipt items = %+v, want 1 line qty 2", data.Items)
	}
	if !data.Total.Equal(money("90000")) {
		t.Errorf("receipt total = %s, want 90000", data.Total)
	}
	lines := l.Order(tableID)
	if len(lines) != 1 || lines[0].Quantity != 3 {
		t.Errorf("order after settle = %+v, want one line of quantity 3", lines)
	}
}

func TestSettleRecordsUTCTimestamp(t *testing.T) {
	l := ledger.New()
	svc, _, history, _ := newTestSettlement(l)
	tableID := uuid.New()

	svc.orders.AddToOrder(tableID, menuItem("Pho Bo", "45000"))

	req := SettleRequest{PrintType: enum.PrintTypeFull, PaymentMethod: enum.PaymentMethodCash}
	if _, err := svc.Settle(context.Background(), tableID, "Table 2", req, "Linh"); err != nil {
		t.Fatalf("settle: %v", err)
	}

	history.mu.Lock()
	rec := history.records[0]
	history.mu.Unlock()
	if rec.SettledAt.Location() != time.UTC {
		t.Errorf("SettledAt location = %v, want UTC", rec.SettledAt.Location())
	}
}

func TestSettlePrintFailureDoesNotRollBackLedger(t *testing.T) {
	l := ledger.New()
	svc, p, _, center := newTestSettlement(l)
	p.err = errors.New("printer offline")
	tableID := uuid.New()

	svc.orders.AddToOrder(tableID, menuItem("Pho Bo", "45000"))

	_, err := svc.Settle(context.Background(), tableID, "Table 4",
		SettleRequest{PrintType: enum.PrintTypeFull}, "Linh")
	if err != nil {
		t.Fatalf("settle: %v", err)
	}

	// The clear happened regardless of the failing dispatch.
	if l.HasOrder(tableID) {
		t.Error("ledger rolled back on print failure")
	}

	waitFor(t, func() bool {
		for _, n := range center.Active() {
			if n.Type == enum.NotificationError && strings.Contains(n.Message, "printer offline") {
				return true
			}
		}
		return false
	})
}

func TestSettleHistoryFailureIsNonFatal(t *testing.T) {
	l := ledger.New()
	svc, _, h, _ := newTestSettlement(l)
	h.err = errors.New("db down")
	tableID := uuid.New()

	svc.orders.AddToOrder(tableID, menuItem("Pho Bo", "45000"))

	if _, err := svc.Settle(context.Background(), tableID, "Table 4",
		SettleRequest{PrintType: enum.PrintTypeFull}, "Linh"); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if l.HasOrder(tableID) {
		t.Error("ledger effect blocked by history failure")
	}
}

func TestPrintCurrent(t *testing.T) {
	l := ledger.New()
	svc, p, _, _ := newTestSettlement(l)
	tableID := uuid.New()

	svc.orders.AddToOrder(tableID, menuItem("Pho Bo", "45000"))

	if err := svc.PrintCurrent(context.Background(), tableID, "Table 1", enum.PrintTypeProvisional, "Linh"); err != nil {
		t.Fatalf("print current: %v", err)
	}

	// No ledger effect for provisional prints.
	if !l.HasOrder(tableID) {
		t.Error("provisional print mutated the ledger")
	}
	waitFor(t, func() bool { return p.count() == 1 })

	if err := svc.PrintCurrent(context.Background(), uuid.New(), "Table 9", enum.PrintTypeKitchen, "Linh"); !errors.Is(err, ErrNothingToSettle) {
		t.Errorf("empty table err = %v, want ErrNothingToSettle", err)
	}
	if err := svc.PrintCurrent(context.Background(), tableID, "Table 1", enum.PrintTypeFull, "Linh"); !errors.Is(err, ErrInvalidPrint) {
		t.Errorf("err = %v, want ErrInvalidPrint", err)
	}
}
