package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentCredit PaymentMethod = "credit"
)

type LedgerType string

const (
	LedgerCharge  LedgerType = "charge"
	LedgerPayment LedgerType = "payment"
)

type MovementType string

const (
	MovementIn     MovementType = "in"
	MovementOut    MovementType = "out"
	MovementAdjust MovementType = "adjust"
)

type Category struct {
	Base
	Name      string `json:"name" validate:"required"`
	Color     string `json:"color"`
	SortOrder int    `json:"sortOrder" validate:"gte=0"`
}

// Customer.RunningBalance is the cached sum of unpaid credit. It is only ever
// changed together with a ledger entry.
type Customer struct {
	Base
	Name           string          `json:"name" validate:"required"`
	Phone          *string         `json:"phone"`
	Address        *string         `json:"address"`
	RunningBalance decimal.Decimal `json:"runningBalance"`
}

type Product struct {
	Base
	Name              string          `json:"name" validate:"required"`
	Barcode           *string         `json:"barcode"`
	CategoryID        *string         `json:"categoryId" validate:"omitempty,uuid"`
	Price             decimal.Decimal `json:"price" validate:"gte=0"`
	StockQuantity     int             `json:"stockQuantity"`
	LowStockThreshold int             `json:"lowStockThreshold" validate:"gte=0"`
}

// LowStock reports whether the product is at or below its threshold.
func (p *Product) LowStock() bool {
	return p.StockQuantity <= p.LowStockThreshold
}

// LineItem is embedded in a sale and travels as opaque JSON.
type LineItem struct {
	ProductID string          `json:"productId" validate:"required"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unitPrice" validate:"gte=0"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type Sale struct {
	Base
	LineItems      []LineItem      `json:"lineItems" validate:"required,min=1,dive"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Discount       decimal.Decimal `json:"discount" validate:"gte=0"`
	Total          decimal.Decimal `json:"total" validate:"gte=0"`
	AmountTendered decimal.Decimal `json:"amountTendered"`
	Change         decimal.Decimal `json:"change"`
	PaymentMethod  PaymentMethod   `json:"paymentMethod" validate:"oneof=cash card credit"`
	CustomerID     *string         `json:"customerId" validate:"required_if=PaymentMethod credit"`
}

// CreditLedgerEntry.BalanceAfterEntry is a snapshot taken when the entry was
// written and is never recomputed.
type CreditLedgerEntry struct {
	Base
	CustomerID        string          `json:"customerId" validate:"required,uuid"`
	SaleID            *string         `json:"saleId" validate:"omitempty,uuid"`
	Type              LedgerType      `json:"type" validate:"oneof=charge payment"`
	Amount            decimal.Decimal `json:"amount" validate:"gt=0"`
	BalanceAfterEntry decimal.Decimal `json:"balanceAfterEntry"`
}

type InventoryMovement struct {
	Base
	ProductID string       `json:"productId" validate:"required,uuid"`
	Type      MovementType `json:"type" validate:"oneof=in out adjust"`
	Quantity  int          `json:"quantity"`
	Notes     *string      `json:"notes"`
}

const saleNotePrefix = "sale:"

// SaleNote builds inventory movement notes that point back at a sale.
func SaleNote(saleID string) *string {
	s := saleNotePrefix + saleID
	return &s
}

// SaleIDFromNotes extracts the sale id from notes built by SaleNote.
func SaleIDFromNotes(notes *string) (string, bool) {
	if notes == nil || !strings.HasPrefix(*notes, saleNotePrefix) {
		return "", false
	}
	id := strings.TrimPrefix(*notes, saleNotePrefix)
	return id, id != ""
}

// CatalogItem is shared reference data, not owned by any tenant.
type CatalogItem struct {
	Barcode  string  `json:"barcode" validate:"required"`
	Name     string  `json:"name" validate:"required"`
	Category *string `json:"category"`
}

// UserProfile caches the display attributes of the signed-in user.
type UserProfile struct {
	ID          string    `json:"id" validate:"required"`
	Username    string    `json:"username" validate:"required"`
	DisplayName *string   `json:"displayName"`
	StoreName   *string   `json:"storeName"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
