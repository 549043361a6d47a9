package entities

import (
	"time"

	"github.com/dmitrijs2005/possync/internal/client/models"
	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/dbx"
)

type (
	Categories          = Table[models.Category, *models.Category]
	Customers           = Table[models.Customer, *models.Customer]
	Products            = Table[models.Product, *models.Product]
	Sales               = Table[models.Sale, *models.Sale]
	CreditLedgerEntries = Table[models.CreditLedgerEntry, *models.CreditLedgerEntry]
	InventoryMovements  = Table[models.InventoryMovement, *models.InventoryMovement]
)

// Set groups the six synchronised tables over one database handle.
type Set struct {
	Categories          *Categories
	Customers           *Customers
	Products            *Products
	Sales               *Sales
	CreditLedgerEntries *CreditLedgerEntries
	InventoryMovements  *InventoryMovements
}

func NewSet(db dbx.DBTX) (*Set, error) {
	var (
		s   Set
		err error
	)
	if s.Categories, err = NewTable[models.Category](db, common.TableCategories); err != nil {
		return nil, err
	}
	if s.Customers, err = NewTable[models.Customer](db, common.TableCustomers); err != nil {
		return nil, err
	}
	if s.Products, err = NewTable[models.Product](db, common.TableProducts); err != nil {
		return nil, err
	}
	if s.Sales, err = NewTable[models.Sale](db, common.TableSales); err != nil {
		return nil, err
	}
	if s.CreditLedgerEntries, err = NewTable[models.CreditLedgerEntry](db, common.TableCreditLedgerEntries); err != nil {
		return nil, err
	}
	if s.InventoryMovements, err = NewTable[models.InventoryMovement](db, common.TableInventoryMovements); err != nil {
		return nil, err
	}
	return &s, nil
}

// WithTx rebinds every table to tx.
func (s *Set) WithTx(tx dbx.DBTX) *Set {
	return &Set{
		Categories:          s.Categories.WithTx(tx),
		Customers:           s.Customers.WithTx(tx),
		Products:            s.Products.WithTx(tx),
		Sales:               s.Sales.WithTx(tx),
		CreditLedgerEntries: s.CreditLedgerEntries.WithTx(tx),
		InventoryMovements:  s.InventoryMovements.WithTx(tx),
	}
}

// WithClock makes every table stamp mutations using now.
func (s *Set) WithClock(now func() time.Time) *Set {
	return &Set{
		Categories:          s.Categories.WithClock(now),
		Customers:           s.Customers.WithClock(now),
		Products:            s.Products.WithClock(now),
		Sales:               s.Sales.WithClock(now),
		CreditLedgerEntries: s.CreditLedgerEntries.WithClock(now),
		InventoryMovements:  s.InventoryMovements.WithClock(now),
	}
}
