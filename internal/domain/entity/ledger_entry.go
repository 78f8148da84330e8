package entity

import "time"

// LedgerEntry movimiento inmutable del kardex: cambio con signo de un producto en una ubicación.
type LedgerEntry struct {
	ID         string
	ProductID  string
	LocationID string
	Change     int64
	Type       OperationType
	Reference  string // id de la operación que lo originó (opcional)
	Note       string
	CreatedBy  string
	CreatedAt  time.Time
}

// LedgerFilter filtros del listado del kardex.
type LedgerFilter struct {
	ProductID  string
	LocationID string
	Type       OperationType
	Reference  string
	DateFrom   *time.Time
	DateTo     *time.Time
	Limit      int
	Offset     int
}

// LedgerDrift par (producto, ubicación) cuyo stock no cuadra con la suma del kardex.
type LedgerDrift struct {
	ProductID   string
	LocationID  string
	StockQty    int64
	LedgerTotal int64
}
