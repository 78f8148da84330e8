package entity

import "time"

// Stock cantidad actual de un producto en una ubicación. Nunca negativa.
type Stock struct {
	ProductID  string
	LocationID string
	Quantity   int64
	UpdatedAt  time.Time
}

// LocationStock fila del read model de stock por ubicación.
type LocationStock struct {
	ProductID   string
	SKU         string
	ProductName string
	UnitMeasure string
	LocationID  string
	Quantity    int64
	UpdatedAt   time.Time
}
