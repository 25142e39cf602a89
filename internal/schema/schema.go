package schema

// TargetVersion is the schema version this build of the registry describes.
// Stores opened at an older persisted version receive only the additive
// deltas between the two versions.
//
// Version history:
// 1 - Initial schema (entities, ledgers, documents, inventory, accounting)
// 2 - Quotations, stock adjustments, activity log, invoices by_status index
// 3 - Journal batches, attachments
const TargetVersion = 3

// SequenceCollection is the key-value collection backing NextSequence.
const SequenceCollection = "sequences"

// KeyKind selects the primary-key style of a collection.
type KeyKind int

const (
	// KeyID collections are keyed by an "id" field, generated by the
	// engine when the caller omits it.
	KeyID KeyKind = iota

	// KeyLookup collections are keyed by a caller-supplied "key" field
	// (key-value style, e.g. settings and sequence counters).
	KeyLookup
)

// Index declares a secondary index over one record field.
type Index struct {
	Name   string
	Field  string
	Unique bool

	// Since is the schema version that introduced this index. Zero means
	// the index exists since the collection itself was introduced.
	Since int
}

// Collection declares one schema-registered container of records.
type Collection struct {
	Name string
	Key  KeyKind

	// Since is the schema version that introduced this collection.
	Since int

	Indexes []Index
}

// KeyField returns the primary-key field name for the collection.
func (c Collection) KeyField() string {
	if c.Key == KeyLookup {
		return "key"
	}
	return "id"
}

// Index returns the named index declaration, if declared.
func (c Collection) Index(name string) (Index, bool) {
	for _, ix := range c.Indexes {
		if ix.Name == name {
			return ix, true
		}
	}
	return Index{}, false
}

// registry is the single declarative source of truth for the persisted
// schema. Migration is a generic loop over this table; there is no
// per-collection migration code anywhere else.
var registry = []Collection{
	// Balance-bearing entities and their ledgers. Every *_ledger collection
	// carries an owner-id index so balance recomputation never scans the
	// full collection.
	{Name: "customers", Since: 1, Indexes: []Index{
		{Name: "by_code", Field: "code", Unique: true},
		{Name: "by_phone", Field: "phone"},
	}},
	{Name: "customer_ledger", Since: 1, Indexes: []Index{
		{Name: "by_customer", Field: "customer_id"},
		{Name: "by_date", Field: "date"},
	}},
	{Name: "vendors", Since: 1, Indexes: []Index{
		{Name: "by_code", Field: "code", Unique: true},
	}},
	{Name: "vendor_ledger", Since: 1, Indexes: []Index{
		{Name: "by_vendor", Field: "vendor_id"},
		{Name: "by_date", Field: "date"},
	}},
	{Name: "labours", Since: 1, Indexes: []Index{
		{Name: "by_code", Field: "code", Unique: true},
		{Name: "by_phone", Field: "phone"},
	}},
	{Name: "labour_ledger", Since: 1, Indexes: []Index{
		{Name: "by_labour", Field: "labour_id"},
		{Name: "by_date", Field: "date"},
	}},
	{Name: "suppliers", Since: 1, Indexes: []Index{
		{Name: "by_code", Field: "code", Unique: true},
	}},
	{Name: "supplier_ledger", Since: 1, Indexes: []Index{
		{Name: "by_supplier", Field: "supplier_id"},
		{Name: "by_date", Field: "date"},
	}},

	// Job and document workflow.
	{Name: "jobs", Since: 1, Indexes: []Index{
		{Name: "by_code", Field: "code", Unique: true},
		{Name: "by_customer", Field: "customer_id"},
		{Name: "by_status", Field: "status"},
	}},
	{Name: "estimates", Since: 1, Indexes: []Index{
		{Name: "by_code", Field: "code", Unique: true},
		{Name: "by_customer", Field: "customer_id"},
	}},
	{Name: "estimate_items", Since: 1, Indexes: []Index{
		{Name: "by_estimate", Field: "estimate_id"},
	}},
	{Name: "jobsheets", Since: 1, Indexes: []Index{
		{Name: "by_code", Field: "code", Unique: true},
		{Name: "by_job", Field: "job_id"},
	}},
	{Name: "jobsheet_items", Since: 1, Indexes: []Index{
		{Name: "by_jobsheet", Field: "jobsheet_id"},
	}},
	{Name: "challans", Since: 1, Indexes: []Index{
		{Name: "by_code", Field: "code", Unique: true},
		{Name: "by_customer", Field: "customer_id"},
	}},
	{Name: "challan_items", Since: 1, Indexes: []Index{
		{Name: "by_challan", Field: "challan_id"},
	}},
	{Name: "invoices", Since: 1, Indexes: []Index{
		{Name: "by_code", Field: "code", Unique: true},
		{Name: "by_customer", Field: "customer_id"},
		{Name: "by_date", Field: "date"},
		{Name: "by_status", Field: "status", Since: 2},
	}},
	{Name: "invoice_items", Since: 1, Indexes: []Index{
		{Name: "by_invoice", Field: "invoice_id"},
	}},
	{Name: "purchase_invoices", Since: 1, Indexes: []Index{
		{Name: "by_code", Field: "code", Unique: true},
		{Name: "by_vendor", Field: "vendor_id"},
	}},
	{Name: "purchase_invoice_items", Since: 1, Indexes: []Index{
		{Name: "by_purchase_invoice", Field: "purchase_invoice_id"},
	}},
	{Name: "payments", Since: 1, Indexes: []Index{
		{Name: "by_party", Field: "party_id"},
		{Name: "by_date", Field: "date"},
	}},
	{Name: "receipts", Since: 1, Indexes: []Index{
		{Name: "by_customer", Field: "customer_id"},
		{Name: "by_date", Field: "date"},
	}},
	{Name: "quotations", Since: 2, Indexes: []Index{
		{Name: "by_code", Field: "code", Unique: true},
		{Name: "by_customer", Field: "customer_id"},
	}},
	{Name: "quotation_items", Since: 2, Indexes: []Index{
		{Name: "by_quotation", Field: "quotation_id"},
	}},

	// Inventory.
	{Name: "inventory_items", Since: 1, Indexes: []Index{
		{Name: "by_sku", Field: "sku", Unique: true},
		{Name: "by_category", Field: "category"},
	}},
	{Name: "stock_entries", Since: 1, Indexes: []Index{
		{Name: "by_item", Field: "item_id"},
		{Name: "by_date", Field: "date"},
	}},
	{Name: "stock_adjustments", Since: 2, Indexes: []Index{
		{Name: "by_item", Field: "item_id"},
	}},

	// Accounting.
	{Name: "accounts", Since: 1, Indexes: []Index{
		{Name: "by_name", Field: "name", Unique: true},
		{Name: "by_type", Field: "type"},
	}},
	{Name: "journal_entries", Since: 1, Indexes: []Index{
		{Name: "by_account", Field: "account_id"},
		{Name: "by_date", Field: "date"},
	}},
	{Name: "journal_batches", Since: 3, Indexes: []Index{
		{Name: "by_date", Field: "date"},
	}},
	{Name: "expense_categories", Since: 1},
	{Name: "expenses", Since: 1, Indexes: []Index{
		{Name: "by_category", Field: "category_id"},
		{Name: "by_date", Field: "date"},
	}},
	{Name: "bank_accounts", Since: 1, Indexes: []Index{
		{Name: "by_number", Field: "account_number", Unique: true},
	}},
	{Name: "bank_transactions", Since: 1, Indexes: []Index{
		{Name: "by_account", Field: "bank_account_id"},
		{Name: "by_date", Field: "date"},
	}},

	// Administration and settings.
	{Name: "users", Since: 1, Indexes: []Index{
		{Name: "by_username", Field: "username", Unique: true},
	}},
	{Name: "roles", Since: 1, Indexes: []Index{
		{Name: "by_name", Field: "name", Unique: true},
	}},
	{Name: "print_templates", Since: 1, Indexes: []Index{
		{Name: "by_name", Field: "name", Unique: true},
	}},
	{Name: "settings", Key: KeyLookup, Since: 1},
	{Name: "company_profile", Key: KeyLookup, Since: 1},
	{Name: SequenceCollection, Key: KeyLookup, Since: 1},
	{Name: "activity_log", Since: 2, Indexes: []Index{
		{Name: "by_entity", Field: "entity_id"},
		{Name: "by_date", Field: "date"},
	}},
	{Name: "attachments", Since: 3, Indexes: []Index{
		{Name: "by_owner", Field: "owner_id"},
	}},
}

// Registry returns the full collection table in declaration order.
// The returned slice is shared; callers must not mutate it.
func Registry() []Collection {
	return registry
}

// Lookup returns the declaration for a collection name.
func Lookup(name string) (Collection, bool) {
	for _, c := range registry {
		if c.Name == name {
			return c, true
		}
	}
	return Collection{}, false
}

// Names returns every registered collection name in declaration order.
func Names() []string {
	names := make([]string, len(registry))
	for i, c := range registry {
		names[i] = c.Name
	}
	return names
}
