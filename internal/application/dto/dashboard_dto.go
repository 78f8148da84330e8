package dto

import "github.com/shopspring/decimal"

// DashboardSummaryDTO respuesta de GET /api/dashboard/summary.
type DashboardSummaryDTO struct {
	// Operaciones abiertas por tipo (RECEIPT, DELIVERY, TRANSFER, ADJUSTMENT)
	Operations []OperationCountDTO `json:"operations"`

	Products  int             `json:"products"`
	Locations int             `json:"locations"`
	OnHand    int64           `json:"onHand"`
	Valuation decimal.Decimal `json:"valuation"` // existencia * costo promedio

	// Productos con más movimiento del mes
	TopMovers []TopMoverDTO `json:"topMovers"`

	DateLabel string `json:"dateLabel"` // ej: "Febrero 2026"
}

// OperationCountDTO tarjeta por tipo de operación.
type OperationCountDTO struct {
	Type      string `json:"type"`
	ToProcess int    `json:"toProcess"` // READY
	Waiting   int    `json:"waiting"`
	Late      int    `json:"late"`
	Draft     int    `json:"draft"`
}

// TopMoverDTO producto con más unidades movidas.
type TopMoverDTO struct {
	ProductID   string `json:"productId"`
	SKU         string `json:"sku"`
	ProductName string `json:"productName"`
	UnitsIn     int64  `json:"unitsIn"`
	UnitsOut    int64  `json:"unitsOut"`
}
