package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/possync/internal/client/models"
	"github.com/dmitrijs2005/possync/internal/client/repositories/entities"
	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/dbx"
	"github.com/dmitrijs2005/possync/internal/logging"
	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientTender    = fmt.Errorf("%w: amount tendered is below the total", common.ErrorValidation)
	ErrInsufficientStock     = fmt.Errorf("%w: not enough stock", common.ErrorValidation)
	ErrCustomerRequired      = fmt.Errorf("%w: credit sale needs a customer", common.ErrorValidation)
	ErrPaymentExceedsBalance = fmt.Errorf("%w: payment exceeds the running balance", common.ErrorValidation)
	ErrInvalidQuantity       = fmt.Errorf("%w: quantity must be positive", common.ErrorValidation)
	ErrIncompleteOrder       = fmt.Errorf("%w: order must list every category exactly once", common.ErrorValidation)
)

// SaleLine is one line of a sale being rung up.
type SaleLine struct {
	ProductID string
	Quantity  int
}

// SaleInput describes a sale at the till. Prices come from the products.
type SaleInput struct {
	Lines          []SaleLine
	Discount       decimal.Decimal
	PaymentMethod  models.PaymentMethod
	AmountTendered decimal.Decimal
	CustomerID     *string
}

// POSService applies till operations to the local store. Every write goes
// through Save, so each touched row becomes pending for the next push.
type POSService struct {
	db     *sql.DB
	tables *entities.Set
	now    func() time.Time
	log    logging.Logger
}

func NewPOSService(db *sql.DB, log logging.Logger) (*POSService, error) {
	set, err := entities.NewSet(db)
	if err != nil {
		return nil, err
	}
	return &POSService{db: db, tables: set, now: time.Now, log: log}, nil
}

// WithClock replaces the time source used for ids and timestamps.
func (s *POSService) WithClock(now func() time.Time) *POSService {
	c := *s
	c.now = now
	c.tables = s.tables.WithClock(now)
	return &c
}

func (s *POSService) inTx(ctx context.Context, fn func(ctx context.Context, t *entities.Set) error) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, s.tables.WithTx(tx))
	})
}

// owned loads a live row of owner.
func owned[E any, P entities.Entity[E]](ctx context.Context, t *entities.Table[E, P], owner, id string) (P, error) {
	e, err := t.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Meta().IsDeleted {
		return nil, fmt.Errorf("%s[%s]: %w", t.Name(), id, common.ErrorNotFound)
	}
	if e.Meta().OwnerID != owner {
		return nil, fmt.Errorf("%s[%s]: %w", t.Name(), id, common.ErrOwnerMismatch)
	}
	return e, nil
}

// AddCategory appends a category at the end of the owner's display order.
func (s *POSService) AddCategory(ctx context.Context, owner, name, color string) (*models.Category, error) {
	var c *models.Category
	err := s.inTx(ctx, func(ctx context.Context, t *entities.Set) error {
		existing, err := t.Categories.ListByOwner(ctx, owner, false)
		if err != nil {
			return err
		}
		c = &models.Category{Base: models.NewBase(owner, s.now()), Name: name, Color: color, SortOrder: len(existing)}
		return t.Categories.Save(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// AddProduct stores p as a new product of owner. Base fields of p are
// ignored.
func (s *POSService) AddProduct(ctx context.Context, owner string, p models.Product) (*models.Product, error) {
	p.Base = models.NewBase(owner, s.now())
	if err := s.tables.Products.Save(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// AddCustomer stores c as a new customer of owner with a zero balance.
func (s *POSService) AddCustomer(ctx context.Context, owner string, c models.Customer) (*models.Customer, error) {
	c.Base = models.NewBase(owner, s.now())
	c.RunningBalance = decimal.Zero
	if err := s.tables.Customers.Save(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// AdjustStock records a manual inventory movement and applies it to the
// product. in and out take a positive quantity; adjust takes a signed delta.
func (s *POSService) AdjustStock(ctx context.Context, owner, productID string, typ models.MovementType, quantity int, notes *string) (*models.InventoryMovement, error) {
	delta := quantity
	switch typ {
	case models.MovementIn:
	case models.MovementOut:
		delta = -quantity
	case models.MovementAdjust:
	default:
		return nil, fmt.Errorf("%w: movement type %q", common.ErrorValidation, typ)
	}
	if quantity == 0 || (typ != models.MovementAdjust && quantity < 0) {
		return nil, ErrInvalidQuantity
	}

	var m *models.InventoryMovement
	err := s.inTx(ctx, func(ctx context.Context, t *entities.Set) error {
		p, err := owned(ctx, t.Products, owner, productID)
		if err != nil {
			return err
		}
		if p.StockQuantity+delta < 0 {
			return ErrInsufficientStock
		}
		p.StockQuantity += delta
		if err := t.Products.Save(ctx, p); err != nil {
			return err
		}
		m = &models.InventoryMovement{
			Base:      models.NewBase(owner, s.now()),
			ProductID: productID,
			Type:      typ,
			Quantity:  quantity,
			Notes:     notes,
		}
		return t.InventoryMovements.Save(ctx, m)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// RecordSale rings up a sale in one transaction: the sale itself, a stock
// decrement and an out movement per line, and for credit sales a charge on
// the customer's ledger.
func (s *POSService) RecordSale(ctx context.Context, owner string, in SaleInput) (*models.Sale, error) {
	if len(in.Lines) == 0 {
		return nil, fmt.Errorf("%w: sale has no lines", common.ErrorValidation)
	}
	if in.PaymentMethod == models.PaymentCredit && (in.CustomerID == nil || *in.CustomerID == "") {
		return nil, ErrCustomerRequired
	}

	var sale *models.Sale
	err := s.inTx(ctx, func(ctx context.Context, t *entities.Set) error {
		sale = &models.Sale{
			Base:          models.NewBase(owner, s.now()),
			Discount:      in.Discount,
			PaymentMethod: in.PaymentMethod,
			CustomerID:    in.CustomerID,
		}

		loaded := make(map[string]*models.Product, len(in.Lines))
		products := make([]*models.Product, 0, len(in.Lines))
		for _, l := range in.Lines {
			if l.Quantity <= 0 {
				return ErrInvalidQuantity
			}
			p, ok := loaded[l.ProductID]
			if !ok {
				var err error
				if p, err = owned(ctx, t.Products, owner, l.ProductID); err != nil {
					return err
				}
				loaded[l.ProductID] = p
			}
			if p.StockQuantity < l.Quantity {
				return fmt.Errorf("%s: %w", p.Name, ErrInsufficientStock)
			}
			p.StockQuantity -= l.Quantity
			products = append(products, p)

			lineTotal := p.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
			sale.LineItems = append(sale.LineItems, models.LineItem{
				ProductID: p.ID,
				Name:      p.Name,
				Quantity:  l.Quantity,
				UnitPrice: p.Price,
				LineTotal: lineTotal,
			})
			sale.Subtotal = sale.Subtotal.Add(lineTotal)
		}

		sale.Total = decimal.Max(sale.Subtotal.Sub(in.Discount), decimal.Zero)
		switch in.PaymentMethod {
		case models.PaymentCash:
			if in.AmountTendered.LessThan(sale.Total) {
				return ErrInsufficientTender
			}
			sale.AmountTendered = in.AmountTendered
			sale.Change = in.AmountTendered.Sub(sale.Total)
		default:
			sale.AmountTendered = sale.Total
			sale.Change = decimal.Zero
		}

		if err := t.Sales.Save(ctx, sale); err != nil {
			return err
		}
		for i, p := range products {
			if err := t.Products.Save(ctx, p); err != nil {
				return err
			}
			m := &models.InventoryMovement{
				Base:      models.NewBase(owner, s.now()),
				ProductID: p.ID,
				Type:      models.MovementOut,
				Quantity:  in.Lines[i].Quantity,
				Notes:     models.SaleNote(sale.ID),
			}
			if err := t.InventoryMovements.Save(ctx, m); err != nil {
				return err
			}
		}

		if in.PaymentMethod == models.PaymentCredit && sale.Total.IsPositive() {
			_, err := s.post(ctx, t, owner, *in.CustomerID, &sale.ID, models.LedgerCharge, sale.Total)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug(ctx, "sale recorded", "owner", owner, "id", sale.ID, "total", sale.Total.String())
	return sale, nil
}

// RecordPayment books a payment against a customer's credit.
func (s *POSService) RecordPayment(ctx context.Context, owner, customerID string, amount decimal.Decimal) (*models.CreditLedgerEntry, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment must be positive", common.ErrorValidation)
	}
	var e *models.CreditLedgerEntry
	err := s.inTx(ctx, func(ctx context.Context, t *entities.Set) error {
		var err error
		e, err = s.post(ctx, t, owner, customerID, nil, models.LedgerPayment, amount)
		return err
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// post writes a ledger entry and moves the customer's running balance with
// it. The entry keeps the balance it produced.
func (s *POSService) post(ctx context.Context, t *entities.Set, owner, customerID string, saleID *string, typ models.LedgerType, amount decimal.Decimal) (*models.CreditLedgerEntry, error) {
	c, err := owned(ctx, t.Customers, owner, customerID)
	if err != nil {
		return nil, err
	}
	switch typ {
	case models.LedgerCharge:
		c.RunningBalance = c.RunningBalance.Add(amount)
	case models.LedgerPayment:
		if amount.GreaterThan(c.RunningBalance) {
			return nil, ErrPaymentExceedsBalance
		}
		c.RunningBalance = c.RunningBalance.Sub(amount)
	}
	if err := t.Customers.Save(ctx, c); err != nil {
		return nil, err
	}
	e := &models.CreditLedgerEntry{
		Base:              models.NewBase(owner, s.now()),
		CustomerID:        customerID,
		SaleID:            saleID,
		Type:              typ,
		Amount:            amount,
		BalanceAfterEntry: c.RunningBalance,
	}
	if err := t.CreditLedgerEntries.Save(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// ReorderCategories makes ids the display order of the owner's categories.
// ids must name every live category once; only moved rows are rewritten.
func (s *POSService) ReorderCategories(ctx context.Context, owner string, ids []string) error {
	return s.inTx(ctx, func(ctx context.Context, t *entities.Set) error {
		existing, err := t.Categories.ListByOwner(ctx, owner, false)
		if err != nil {
			return err
		}
		if len(existing) != len(ids) {
			return ErrIncompleteOrder
		}
		byID := make(map[string]*models.Category, len(existing))
		for _, c := range existing {
			byID[c.ID] = c
		}
		for pos, id := range ids {
			c, ok := byID[id]
			if !ok {
				return ErrIncompleteOrder
			}
			delete(byID, id)
			if c.SortOrder == pos {
				continue
			}
			c.SortOrder = pos
			if err := t.Categories.Save(ctx, c); err != nil {
				return err
			}
		}
		return nil
	})
}

// SoftDelete flags a row of one of the synchronised tables as deleted.
func (s *POSService) SoftDelete(ctx context.Context, owner, table, id string) error {
	return s.inTx(ctx, func(ctx context.Context, t *entities.Set) error {
		switch table {
		case common.TableCategories:
			return softDelete(ctx, t.Categories, owner, id)
		case common.TableCustomers:
			return softDelete(ctx, t.Customers, owner, id)
		case common.TableProducts:
			return softDelete(ctx, t.Products, owner, id)
		case common.TableSales:
			return softDelete(ctx, t.Sales, owner, id)
		case common.TableCreditLedgerEntries:
			return softDelete(ctx, t.CreditLedgerEntries, owner, id)
		case common.TableInventoryMovements:
			return softDelete(ctx, t.InventoryMovements, owner, id)
		default:
			return fmt.Errorf("%w: %s", common.ErrUnknownTable, table)
		}
	})
}

func softDelete[E any, P entities.Entity[E]](ctx context.Context, t *entities.Table[E, P], owner, id string) error {
	e, err := t.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if e.Meta().OwnerID != owner {
		return common.ErrOwnerMismatch
	}
	return t.SoftDelete(ctx, id)
}

// LowStock lists the owner's live products at or below their threshold.
func (s *POSService) LowStock(ctx context.Context, owner string) ([]*models.Product, error) {
	all, err := s.tables.Products.ListByOwner(ctx, owner, false)
	if err != nil {
		return nil, err
	}
	var out []*models.Product
	for _, p := range all {
		if p.LowStock() {
			out = append(out, p)
		}
	}
	return out, nil
}

// IsNotFound reports whether err means the row does not exist locally.
func IsNotFound(err error) bool {
	return errors.Is(err, common.ErrorNotFound)
}
