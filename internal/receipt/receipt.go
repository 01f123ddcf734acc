package receipt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/benthanh-pos/api/internal/enum"
	"github.com/shopspring/decimal"
)

// Item is one settled line on a printable receipt.
type Item struct {
	Name     string          `json:"name"`
	Quantity int32           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Data is the immutable snapshot needed to render a receipt. Built once at
// settlement time and never mutated afterwards.
type Data struct {
	Items     []Item          `json:"items"`
	Total     decimal.Decimal `json:"total"`
	Table     string          `json:"table"`
	Cashier   string          `json:"cashier"`
	PrintType string          `json:"print_type"`
}

// Settings controls receipt formatting. User overrides are stored as JSON in
// the settings store and merged shallowly over the defaults.
type Settings struct {
	ShopName     string `json:"shop_name"`
	Address      string `json:"address"`
	Phone        string `json:"phone"`
	FooterText   string `json:"footer_text"`
	PaperWidthMM int    `json:"paper_width_mm"`
	ShowBankQR   bool   `json:"show_bank_qr"`
}

// BankSettings controls the payment block shown on customer receipts.
type BankSettings struct {
	BankCode      string `json:"bank_code"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
	Enabled       bool   `json:"enabled"`
}

func DefaultSettings() Settings {
	return Settings{
		ShopName:     "Ben Thanh Kitchen",
		Address:      "",
		Phone:        "",
		FooterText:   "Thank you, see you again!",
		PaperWidthMM: 80,
		ShowBankQR:   false,
	}
}

// MergeSettings unmarshals stored override JSON over the defaults. Invalid
// or empty input yields the defaults unchanged.
func MergeSettings(stored []byte) Settings {
	s := DefaultSettings()
	if len(stored) > 0 {
		_ = json.Unmarshal(stored, &s)
	}
	return s
}

var titles = map[string]string{
	enum.PrintTypeFull:        "RECEIPT",
	enum.PrintTypePartial:     "PARTIAL RECEIPT",
	enum.PrintTypeProvisional: "PROVISIONAL BILL",
	enum.PrintTypeKitchen:     "KITCHEN TICKET",
}

var receiptTmpl = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><style>
body { font-family: monospace; width: {{.PaperWidth}}mm; margin: 0; }
h1 { font-size: 14px; text-align: center; }
table { width: 100%; font-size: 12px; border-collapse: collapse; }
td.num { text-align: right; }
.total { border-top: 1px dashed #000; font-weight: bold; }
.footer { text-align: center; font-size: 11px; margin-top: 8px; }
</style></head>
<body>
<h1>{{.ShopName}}</h1>
{{if .Address}}<div class="footer">{{.Address}}</div>{{end}}
{{if .Phone}}<div class="footer">{{.Phone}}</div>{{end}}
<h1>{{.Title}}</h1>
<div>Table: {{.Table}}</div>
<div>Cashier: {{.Cashier}}</div>
<table>
{{range .Items}}<tr><td>{{.Name}}</td><td class="num">{{.Quantity}}</td><td class="num">{{.Price}}</td><td class="num">{{.LineTotal}}</td></tr>
{{end}}<tr class="total"><td colspan="3">TOTAL</td><td class="num">{{.Total}}</td></tr>
</table>
{{if .Bank}}<div class="footer">{{.Bank}}</div>{{end}}
<div class="footer">{{.Footer}}</div>
</body>
</html>`))

type tmplItem struct {
	Name      string
	Quantity  int32
	Price     string
	LineTotal string
}

type tmplData struct {
	ShopName   string
	Address    string
	Phone      string
	Title      string
	Table      string
	Cashier    string
	Items      []tmplItem
	Total      string
	Bank       string
	Footer     string
	PaperWidth int
}

// Render produces the printable HTML document the print agent expects.
func Render(data Data, settings Settings, bank BankSettings) (string, error) {
	title, ok := titles[data.PrintType]
	if !ok {
		return "", fmt.Errorf("unknown print type %q", data.PrintType)
	}

	td := tmplData{
		ShopName:   settings.ShopName,
		Address:    settings.Address,
		Phone:      settings.Phone,
		Title:      title,
		Table:      data.Table,
		Cashier:    data.Cashier,
		Total:      data.Total.StringFixed(0),
		Footer:     settings.FooterText,
		PaperWidth: settings.PaperWidthMM,
	}
	for _, it := range data.Items {
		td.Items = append(td.Items, tmplItem{
			Name:      it.Name,
			Quantity:  it.Quantity,
			Price:     it.Price.StringFixed(0),
			LineTotal: it.Price.Mul(decimal.NewFromInt32(it.Quantity)).StringFixed(0),
		})
	}
	// Bank transfer block only appears on customer-facing receipts.
	if bank.Enabled && data.PrintType != enum.PrintTypeKitchen {
		td.Bank = fmt.Sprintf("%s %s (%s)", bank.BankCode, bank.AccountNumber, bank.AccountName)
	}

	var buf bytes.Buffer
	if err := receiptTmpl.Execute(&buf, td); err != nil {
		return "", fmt.Errorf("render receipt: %w", err)
	}
	return buf.String(), nil
}
