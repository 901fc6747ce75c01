package inventory

import "time"

type Variant struct {
	ID        int64
	SKU       string
	Name      string
	Price     int64
	StockQty  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type MovementType string

const (
	MovementDeduction  MovementType = "DEDUCTION"
	MovementRestock    MovementType = "RESTOCK"
	MovementAdjustment MovementType = "ADJUSTMENT"
)

// StockMovement is an append-only ledger row. Rows are never updated or
// deleted; current stock_qty can be reconciled against the ledger.
type StockMovement struct {
	ID          int64
	VariantID   int64
	Type        MovementType
	Quantity    int
	Reason      string
	ReferenceID int64
	CreatedAt   time.Time
}
