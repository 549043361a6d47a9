package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// Names of the owner-partitioned tables, in dependency order. Later tables
// reference earlier ones by id, so push and pull must walk them in this order.
const (
	TableCategories          = "categories"
	TableCustomers           = "customers"
	TableProducts            = "products"
	TableSales               = "sales"
	TableCreditLedgerEntries = "credit_ledger_entries"
	TableInventoryMovements  = "inventory_movements"
)

// SyncedTables lists the owner-partitioned tables in dependency order.
var SyncedTables = []string{
	TableCategories,
	TableCustomers,
	TableProducts,
	TableSales,
	TableCreditLedgerEntries,
	TableInventoryMovements,
}

// IsSyncedTable reports whether name is one of SyncedTables.
func IsSyncedTable(name string) bool {
	for _, t := range SyncedTables {
		if t == name {
			return true
		}
	}
	return false
}

// ReceivedAtField is the key under which the remote store returns the time it
// accepted a row. Pull watermarks are kept on this server-side clock, never on
// the updated_at a device wrote.
const ReceivedAtField = "received_at"
