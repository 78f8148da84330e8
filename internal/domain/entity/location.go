package entity

import "time"

// Location es una ubicación dentro de exactamente una bodega (estante, zona, muelle).
// El par (WarehouseID, Name) es único.
type Location struct {
	ID          string
	WarehouseID string
	Name        string
	Code        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
