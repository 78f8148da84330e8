package entity

import "time"

// Warehouse representa una bodega física. El stock vive en sus ubicaciones (Location).
type Warehouse struct {
	ID        string
	Name      string // único
	Code      string // opcional, único si se informa
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
