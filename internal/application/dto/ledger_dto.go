package dto

import "time"

// LedgerQuery filtros de GET /api/ledger.
type LedgerQuery struct {
	ProductID  string `query:"productId"`
	LocationID string `query:"locationId"`
	Type       string `query:"type" validate:"omitempty,oneof=RECEIPT DELIVERY TRANSFER ADJUSTMENT"`
	Reference  string `query:"reference"`
	DateFrom   string `query:"dateFrom"`
	DateTo     string `query:"dateTo"`
	Page       PageRequest
}

// LedgerEntryResponse asiento del kardex.
type LedgerEntryResponse struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"productId"`
	LocationID string    `json:"locationId"`
	Change     int64     `json:"change"`
	Type       string    `json:"type"`
	Reference  string    `json:"reference,omitempty"`
	Note       string    `json:"note,omitempty"`
	CreatedBy  string    `json:"createdBy,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// LedgerListResponse kardex paginado.
type LedgerListResponse struct {
	Items []LedgerEntryResponse `json:"items"`
	Page  PageResponse          `json:"page"`
}

// LedgerDriftResponse par cuyo stock no coincide con la suma del kardex.
type LedgerDriftResponse struct {
	ProductID   string `json:"productId"`
	LocationID  string `json:"locationId"`
	StockQty    int64  `json:"stockQuantity"`
	LedgerTotal int64  `json:"ledgerTotal"`
	Difference  int64  `json:"difference"`
}

// ReconcileResponse resultado de la conciliación.
type ReconcileResponse struct {
	Consistent bool                  `json:"consistent"`
	Drifts     []LedgerDriftResponse `json:"drifts"`
	CheckedAt  time.Time             `json:"checkedAt"`
}
