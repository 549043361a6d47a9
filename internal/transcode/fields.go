package transcode

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/possync/internal/common"
)

// ErrUnknownField is returned by Check when a row carries a key that is not
// registered for its table.
var ErrUnknownField = errors.New("unknown field")

// Kind tells storage layers how a field value is represented.
type Kind uint8

const (
	KindText Kind = iota
	KindInteger
	KindBool
	KindTime
	KindDecimal
	KindJSON
)

// Field describes one field of a table in local (camelCase) form.
type Field struct {
	Name     string
	Kind     Kind
	Nullable bool
}

// Column returns the remote (and local SQL) column name of the field.
func (f Field) Column() string {
	return SnakeCase(f.Name)
}

const (
	TableCatalog     = "catalog"
	TableUserProfile = "user_profile"
)

var baseFields = []Field{
	{Name: "id", Kind: KindText},
	{Name: "ownerId", Kind: KindText},
	{Name: "createdAt", Kind: KindTime},
	{Name: "updatedAt", Kind: KindTime},
	{Name: "syncedAt", Kind: KindTime, Nullable: true},
	{Name: "isDeleted", Kind: KindBool},
}

func withBase(fields ...Field) []Field {
	out := make([]Field, 0, len(baseFields)+len(fields))
	out = append(out, baseFields...)
	return append(out, fields...)
}

var registry = map[string][]Field{
	common.TableCategories: withBase(
		Field{Name: "name", Kind: KindText},
		Field{Name: "color", Kind: KindText},
		Field{Name: "sortOrder", Kind: KindInteger},
	),
	common.TableCustomers: withBase(
		Field{Name: "name", Kind: KindText},
		Field{Name: "phone", Kind: KindText, Nullable: true},
		Field{Name: "address", Kind: KindText, Nullable: true},
		Field{Name: "runningBalance", Kind: KindDecimal},
	),
	common.TableProducts: withBase(
		Field{Name: "name", Kind: KindText},
		Field{Name: "barcode", Kind: KindText, Nullable: true},
		Field{Name: "categoryId", Kind: KindText, Nullable: true},
		Field{Name: "price", Kind: KindDecimal},
		Field{Name: "stockQuantity", Kind: KindInteger},
		Field{Name: "lowStockThreshold", Kind: KindInteger},
	),
	common.TableSales: withBase(
		Field{Name: "lineItems", Kind: KindJSON},
		Field{Name: "subtotal", Kind: KindDecimal},
		Field{Name: "discount", Kind: KindDecimal},
		Field{Name: "total", Kind: KindDecimal},
		Field{Name: "amountTendered", Kind: KindDecimal},
		Field{Name: "change", Kind: KindDecimal},
		Field{Name: "paymentMethod", Kind: KindText},
		Field{Name: "customerId", Kind: KindText, Nullable: true},
	),
	common.TableCreditLedgerEntries: withBase(
		Field{Name: "customerId", Kind: KindText},
		Field{Name: "saleId", Kind: KindText, Nullable: true},
		Field{Name: "type", Kind: KindText},
		Field{Name: "amount", Kind: KindDecimal},
		Field{Name: "balanceAfterEntry", Kind: KindDecimal},
	),
	common.TableInventoryMovements: withBase(
		Field{Name: "productId", Kind: KindText},
		Field{Name: "type", Kind: KindText},
		Field{Name: "quantity", Kind: KindInteger},
		Field{Name: "notes", Kind: KindText, Nullable: true},
	),
	TableCatalog: {
		{Name: "barcode", Kind: KindText},
		{Name: "name", Kind: KindText},
		{Name: "category", Kind: KindText, Nullable: true},
	},
	TableUserProfile: {
		{Name: "id", Kind: KindText},
		{Name: "username", Kind: KindText},
		{Name: "displayName", Kind: KindText, Nullable: true},
		{Name: "storeName", Kind: KindText, Nullable: true},
		{Name: "updatedAt", Kind: KindTime},
	},
}

// Fields returns the registered fields of table in declaration order.
func Fields(table string) ([]Field, error) {
	f, ok := registry[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrUnknownTable, table)
	}
	out := make([]Field, len(f))
	copy(out, f)
	return out, nil
}

// Tables lists every table with a registered field set.
func Tables() []string {
	out := make([]string, 0, len(registry))
	for t := range registry {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Check reports keys of a local-shape row that are not registered for table.
func Check(table string, row Row) error {
	return check(table, row, func(f Field) string { return f.Name })
}

// CheckRemote is Check for a remote-shape row.
func CheckRemote(table string, row Row) error {
	return check(table, row, Field.Column)
}

func check(table string, row Row, key func(Field) string) error {
	fields, err := Fields(table)
	if err != nil {
		return err
	}
	known := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		known[key(f)] = struct{}{}
	}
	var unknown []string
	for k := range row {
		if _, ok := known[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("%w in %s: %s", ErrUnknownField, table, strings.Join(unknown, ", "))
}
